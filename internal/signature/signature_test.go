package signature

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sig(words ...int64) Signature {
	s := make(Signature, len(words))
	for i, w := range words {
		s[i] = uint64(w)
	}
	return s
}

// compareShifted is the two-step rule: compare the top 63 bits, then the low bit.
func compareShifted(a, b Signature) int {
	for i := range a {
		ha, hb := int64(a[i]>>1), int64(b[i]>>1)
		if ha != hb {
			if ha < hb {
				return -1
			}
			return 1
		}
		if d := int(a[i]&1) - int(b[i]&1); d != 0 {
			return d
		}
	}
	return 0
}

func TestCosineApprox(t *testing.T) {
	a := sig(1, 2, 64)

	c, err := CosineApprox(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c, 1e-12)

	c, err = CosineApprox(a, sig(-2, -3, -65))
	require.NoError(t, err)
	assert.InDelta(t, -1.0, c, 1e-12)
}

func TestHammingDistance(t *testing.T) {
	a := sig(56, 23, 19)
	d, err := HammingDistance(a, a)
	require.NoError(t, err)
	assert.Equal(t, 0, d)

	d, err = HammingDistance(sig(4, 20, 56), sig(52, -60, 56))
	require.NoError(t, err)
	assert.Equal(t, 61, d)
}

func TestLengthMismatch(t *testing.T) {
	_, err := HammingDistance(sig(1), sig(1, 2))
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = CosineApprox(sig(1), sig(1, 2))
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestCompare(t *testing.T) {
	t.Run("unsigned order", func(t *testing.T) {
		// -1 has the top bit set and sorts after every non-negative word.
		assert.Equal(t, 1, Compare(sig(-1), sig(math.MaxInt64)))
		assert.Equal(t, -1, Compare(sig(0, 5), sig(0, -5)))
		assert.Equal(t, 0, Compare(sig(3, -3), sig(3, -3)))
	})

	t.Run("first word decides", func(t *testing.T) {
		assert.Equal(t, -1, Compare(sig(1, -1), sig(2, 0)))
	})

	t.Run("matches two-step rule", func(t *testing.T) {
		r := rand.New(rand.NewPCG(7, 11))
		for i := 0; i < 10000; i++ {
			a := Signature{r.Uint64(), r.Uint64()}
			b := Signature{r.Uint64(), r.Uint64()}
			if i%3 == 0 {
				b[0] = a[0]
			}
			if i%5 == 0 {
				b[0] = a[0] ^ 1
			}
			assert.Equal(t, compareShifted(a, b), Compare(a, b))
		}
	})

	t.Run("total order", func(t *testing.T) {
		r := rand.New(rand.NewPCG(1, 2))
		for i := 0; i < 1000; i++ {
			a := Signature{r.Uint64() & 3, r.Uint64()}
			b := Signature{r.Uint64() & 3, r.Uint64()}
			c := Signature{r.Uint64() & 3, r.Uint64()}
			assert.Equal(t, -Compare(b, a), Compare(a, b))
			if Compare(a, b) <= 0 && Compare(b, c) <= 0 {
				assert.LessOrEqual(t, Compare(a, c), 0)
			}
			assert.Equal(t, Compare(a, b) == 0, a.Equal(b))
		}
	})
}

func TestBits(t *testing.T) {
	s := make(Signature, 2)
	s.SetBit(0)
	s.SetBit(63)
	s.SetBit(64)

	assert.Equal(t, uint64(1)<<63|1, s[0])
	assert.Equal(t, uint64(1)<<63, s[1])
	assert.True(t, s.Bit(64))
	assert.False(t, s.Bit(65))
	assert.Equal(t, 3, s.PopCount())
	assert.Equal(t, 128, s.Bits())

	assert.Equal(t, 1, Words(1))
	assert.Equal(t, 1, Words(64))
	assert.Equal(t, 2, Words(65))
}

func TestEntryCodec(t *testing.T) {
	e := Entry{Sig: sig(-7, 42), ID: 1234}
	buf := AppendEntry(nil, e)
	require.Len(t, buf, EntrySize(2))

	got, err := DecodeEntry(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	_, err = DecodeEntry(buf[:5], 2)
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestCompareEntries(t *testing.T) {
	a := Entry{Sig: sig(1), ID: 2}
	b := Entry{Sig: sig(1), ID: 3}
	c := Entry{Sig: sig(0), ID: 9}
	assert.Equal(t, -1, CompareEntries(a, b))
	assert.Equal(t, 1, CompareEntries(a, c))
}
