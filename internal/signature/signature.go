package signature

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// WordSize is the number of bits per signature word.
const WordSize = 64

// ErrLengthMismatch is returned when two signatures of different word counts
// are compared.
var ErrLengthMismatch = errors.New("signature length mismatch")

// Signature is a packed bit vector, most significant bit first.
type Signature []uint64

// Words returns the number of words needed to hold the given number of bits.
func Words(bits int) int {
	return (bits + WordSize - 1) / WordSize
}

// Bits returns the capacity of s in bits.
func (s Signature) Bits() int {
	return len(s) * WordSize
}

// Bit reports whether bit i is set.
func (s Signature) Bit(i int) bool {
	return s[i/WordSize]&(msb>>(uint(i)%WordSize)) != 0
}

// SetBit sets bit i.
func (s Signature) SetBit(i int) {
	s[i/WordSize] |= msb >> (uint(i) % WordSize)
}

// PopCount returns the number of set bits.
func (s Signature) PopCount() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}

// Clone returns a copy of s.
func (s Signature) Clone() Signature {
	if s == nil {
		return nil
	}
	c := make(Signature, len(s))
	copy(c, s)
	return c
}

// Equal reports whether a and b hold the same bits.
func (s Signature) Equal(o Signature) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Signature) String() string {
	return fmt.Sprintf("%016x", []uint64(s))
}

const msb = uint64(1) << (WordSize - 1)

// Compare orders a and b word by word as unsigned patterns.
// The first differing word decides. Signatures of different length are
// ordered by their common prefix first and by length second.
func Compare(a, b Signature) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// HammingDistance returns the number of differing bits.
func HammingDistance(a, b Signature) (int, error) {
	if len(a) != len(b) {
		return 0, mismatch(a, b)
	}
	d := 0
	for i := range a {
		d += bits.OnesCount64(a[i] ^ b[i])
	}
	return d, nil
}

// CosineApprox estimates the cosine similarity of the vectors a and b were
// hashed from.
func CosineApprox(a, b Signature) (float64, error) {
	d, err := HammingDistance(a, b)
	if err != nil {
		return 0, err
	}
	if len(a) == 0 {
		return 1, nil
	}
	return math.Cos(float64(d) / float64(a.Bits()) * math.Pi), nil
}

func mismatch(a, b Signature) error {
	return fmt.Errorf("%w: %d vs %d words", ErrLengthMismatch, len(a), len(b))
}
