package lsh

import (
	"bytes"
	"log/slog"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/hupe1980/lshdb/internal/signature"
	"github.com/hupe1980/lshdb/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestSampler(t *testing.T) {
	s := NewSampler(seeded(1))
	const n = 20000
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		x := s.Sample()
		require.False(t, math.IsNaN(x) || math.IsInf(x, 0))
		sum += x
		sumSq += x * x
	}
	mean := sum / n
	assert.InDelta(t, 0, mean, 0.05)
	assert.InDelta(t, 1, sumSq/n-mean*mean, 0.05)
}

func TestComponent(t *testing.T) {
	assert.Equal(t, int32(300), component(7.5))
	assert.Equal(t, int32(-300), component(-3.01))
	assert.Equal(t, int32(125), component(1.249))
	assert.Equal(t, int32(-13), component(-0.126))
}

func TestSign(t *testing.T) {
	f, err := New(
		NewDenseHyperplane([]int32{1, 0, 0}),
		NewDenseHyperplane([]int32{-1, 0, 0}),
		NewDenseHyperplane([]int32{0, 1, 0}),
		NewDenseHyperplane([]int32{0, 0, 1}),
	)
	require.NoError(t, err)

	sig, err := f.Sign(vector.NewDense(1, []int32{2, 0, -1}))
	require.NoError(t, err)
	require.Len(t, sig, 1)
	// Bit 0 set, bit 1 negative, bit 2 tied at zero, bit 3 negative.
	assert.Equal(t, uint64(1)<<63, sig[0])

	_, err = f.Sign(vector.NewDense(2, []int32{1}))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestHyperplaneDot(t *testing.T) {
	v := vector.FromDense([]int32{2, 0, -1, 4})

	dense := NewDenseHyperplane([]int32{1, 5, 3, 1})
	got, err := dense.Dot(v)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)

	normal, err := vector.NewSparseList(4, []int32{0, 3}, []int32{1, 1})
	require.NoError(t, err)
	sparse := NewSparseHyperplane(normal)
	got, err = sparse.Dot(v)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)

	short := vector.FromDense([]int32{2, 0, -1})
	_, err = dense.Dot(short)
	assert.ErrorIs(t, err, vector.ErrLengthMismatch)
	_, err = sparse.Dot(short)
	assert.ErrorIs(t, err, vector.ErrLengthMismatch)

	long := vector.FromDense([]int32{2, 0, -1, 4, 9})
	_, err = dense.Dot(long)
	assert.ErrorIs(t, err, vector.ErrLengthMismatch)
}

func TestNewRandom(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	f, err := NewRandom(100, 16, WithRand(seeded(2)), WithLogger(logger))
	require.NoError(t, err)
	assert.Equal(t, 100, f.Bits())
	assert.Equal(t, 2, f.Words())
	assert.Contains(t, logs.String(), "signature size does not fill the last word")

	v := vector.NewDense(5, []int32{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8, 9, 7, 9, 3})
	sig, err := f.Sign(v)
	require.NoError(t, err)
	// Bits beyond 100 stay clear.
	assert.Zero(t, sig[1]&(1<<28-1))

	again, err := f.Sign(v)
	require.NoError(t, err)
	assert.Equal(t, sig, again)

	_, err = NewRandom(0, 16)
	assert.Error(t, err)
}

func TestSimilarVectorsAgree(t *testing.T) {
	f, err := NewRandom(1024, 64, WithRand(seeded(3)))
	require.NoError(t, err)

	base := make([]int32, 64)
	near := make([]int32, 64)
	far := make([]int32, 64)
	r := seeded(4)
	for i := range base {
		base[i] = int32(r.IntN(100))
		near[i] = base[i] + int32(r.IntN(5))
		far[i] = -base[i]
	}

	sb, _ := f.Sign(vector.NewDense(1, base))
	sn, _ := f.Sign(vector.NewDense(2, near))
	sf, _ := f.Sign(vector.NewDense(3, far))

	cNear, err := signature.CosineApprox(sb, sn)
	require.NoError(t, err)
	cFar, err := signature.CosineApprox(sb, sf)
	require.NoError(t, err)
	assert.Greater(t, cNear, 0.9)
	assert.Less(t, cFar, -0.9)
}

func TestSparseAndDenseInputsAgree(t *testing.T) {
	f, err := NewRandom(128, 32, WithRand(seeded(5)))
	require.NoError(t, err)

	dense := vector.NewDense(1, []int32{0, 0, 7, 0, 0, 0, 0, -3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 11})
	sparse, err := vector.NewSparse(1, 32, []int32{2, 7, 31}, []int32{7, -3, 11})
	require.NoError(t, err)

	a, _ := f.Sign(dense)
	b, _ := f.Sign(sparse)
	assert.Equal(t, a, b)
}

func TestMarshalBinary(t *testing.T) {
	for _, sparse := range []bool{false, true} {
		f, err := NewRandom(64, 300, WithRand(seeded(6)), WithSparseHyperplanes(sparse))
		require.NoError(t, err)

		data, err := f.MarshalBinary()
		require.NoError(t, err)

		var got Function
		require.NoError(t, got.UnmarshalBinary(data))
		assert.Equal(t, f.Bits(), got.Bits())
		assert.Equal(t, f.Dimension(), got.Dimension())

		v := vector.NewDense(9, make([]int32, 300))
		for i := range v.Dense() {
			v.Dense()[i] = int32(i%7) - 3
		}
		want, _ := f.Sign(v)
		have, _ := got.Sign(v)
		assert.Equal(t, want, have)
	}

	var f Function
	assert.Error(t, f.UnmarshalBinary([]byte{0, 0}))
}
