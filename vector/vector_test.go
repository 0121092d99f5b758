package vector

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDense(t *testing.T) {
	v := NewDense(3, []int32{0, 4, 0, -2})
	assert.Equal(t, int32(3), v.ID())
	assert.Equal(t, 4, v.Dimension())

	s := v.Sparse()
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 4, s.Size())
	assert.Equal(t, v.Dense(), s.ToDense())
}

func TestNewSparse(t *testing.T) {
	_, err := NewSparse(1, 4, []int32{2, 1}, []int32{1, 1})
	assert.ErrorIs(t, err, ErrInvalidSparse)

	_, err = NewSparse(1, 4, []int32{4}, []int32{1})
	assert.ErrorIs(t, err, ErrInvalidSparse)

	_, err = NewSparse(1, 4, []int32{1}, []int32{1, 2})
	assert.ErrorIs(t, err, ErrInvalidSparse)

	v, err := NewSparse(1, 4, []int32{1, 3}, []int32{5, 6})
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 5, 0, 6}, v.Dense())
}

func TestDot(t *testing.T) {
	a := FromDense([]int32{1, 0, 3, 0, 5})
	b := FromDense([]int32{0, 2, 3, 0, -1})

	assert.Equal(t, int64(4), a.Dot(b))
	assert.Equal(t, a.Dot(b), b.Dot(a))

	got, err := a.DotDense([]int32{0, 2, 3, 0, -1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), got)

	_, err = a.DotDense([]int32{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestCursor(t *testing.T) {
	c := FromDense([]int32{0, 7, 0, 9}).Cursor()
	var pos, vals []int32
	for c.Next() {
		pos = append(pos, c.Position())
		vals = append(vals, c.Value())
	}
	assert.Equal(t, []int32{1, 3}, pos)
	assert.Equal(t, []int32{7, 9}, vals)
	assert.False(t, c.Next())
}

func TestSparseListBinary(t *testing.T) {
	l := FromDense([]int32{0, -7, 0, 9, 0})
	data, err := l.MarshalBinary()
	require.NoError(t, err)

	var got SparseList
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, l.ToDense(), got.ToDense())

	assert.ErrorIs(t, got.UnmarshalBinary(data[:10]), ErrInvalidSparse)
}

func TestLimitAndChunks(t *testing.T) {
	vs := make([]*Dense, 25)
	for i := range vs {
		vs[i] = NewDense(int32(i), []int32{int32(i)})
	}

	limited := slices.Collect(Limit(Slice(vs), 10))
	assert.Len(t, limited, 10)
	assert.Empty(t, slices.Collect(Limit(Slice(vs), 0)))

	var sizes []int
	for chunk := range Chunks(Slice(vs), 10) {
		sizes = append(sizes, len(chunk))
	}
	assert.Equal(t, []int{10, 10, 5}, sizes)
}
