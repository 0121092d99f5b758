// Package permutation reorders signature bits so that each index table
// sorts signatures by a different bit priority.
package permutation

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/hupe1980/lshdb/internal/codec"
	"github.com/hupe1980/lshdb/internal/signature"
)

// ErrInvalidMapping is returned for mappings that are not bijections.
var ErrInvalidMapping = errors.New("permutation: invalid mapping")

// Function is a bijection over signature bit positions.
type Function interface {
	// Permute returns a new signature with bit i of sig moved to bit
	// mapping[i]. The input is not modified.
	Permute(sig signature.Signature) signature.Signature
	// Bits returns the number of permuted positions.
	Bits() int
}

// Identity returns signatures unchanged. Table 0 uses it so that its
// signatures are the canonical ones.
type Identity struct {
	bits int
}

// NewIdentity creates an identity over bits positions.
func NewIdentity(bits int) *Identity { return &Identity{bits: bits} }

func (p *Identity) Permute(sig signature.Signature) signature.Signature { return sig.Clone() }
func (p *Identity) Bits() int                                           { return p.bits }

// Mapping permutes bits by an explicit table.
type Mapping struct {
	mapping []int32
}

// NewMapping validates that mapping is a permutation of [0, len(mapping)).
func NewMapping(mapping []int32) (*Mapping, error) {
	seen := make([]bool, len(mapping))
	for i, m := range mapping {
		if m < 0 || int(m) >= len(mapping) || seen[m] {
			return nil, fmt.Errorf("%w: position %d maps to %d", ErrInvalidMapping, i, m)
		}
		seen[m] = true
	}
	return &Mapping{mapping: mapping}, nil
}

// NewRandom draws a uniformly random permutation of bits positions.
func NewRandom(bits int, rng *rand.Rand) *Mapping {
	mapping := make([]int32, bits)
	for i := range mapping {
		mapping[i] = int32(i)
	}
	rng.Shuffle(len(mapping), func(i, j int) {
		mapping[i], mapping[j] = mapping[j], mapping[i]
	})
	return &Mapping{mapping: mapping}
}

func (p *Mapping) Bits() int { return len(p.mapping) }

func (p *Mapping) Permute(sig signature.Signature) signature.Signature {
	out := make(signature.Signature, len(sig))
	for i, target := range p.mapping {
		if sig.Bit(i) {
			out.SetBit(int(target))
		}
	}
	return out
}

const (
	kindIdentity uint8 = 0
	kindMapping  uint8 = 1
)

// Marshal encodes an ordered list of permutation functions.
func Marshal(fns []Function) ([]byte, error) {
	w := codec.NewWriter(64)
	w.Uint32(uint32(len(fns)))
	for i, fn := range fns {
		switch p := fn.(type) {
		case *Identity:
			w.Uint8(kindIdentity)
			w.Uint32(uint32(p.bits))
		case *Mapping:
			w.Uint8(kindMapping)
			w.Int32s(p.mapping)
		default:
			return nil, fmt.Errorf("permutation: cannot encode function %d of type %T", i, fn)
		}
	}
	return w.Data(), nil
}

// Unmarshal decodes the format written by Marshal.
func Unmarshal(data []byte) ([]Function, error) {
	r := codec.NewReader(data)
	n := int(r.Uint32())
	if err := r.Err(); err != nil {
		return nil, err
	}
	if n > r.Remaining() {
		return nil, fmt.Errorf("permutation: %d functions exceed %d bytes", n, r.Remaining())
	}
	fns := make([]Function, 0, n)
	for i := 0; i < n; i++ {
		switch kind := r.Uint8(); kind {
		case kindIdentity:
			fns = append(fns, NewIdentity(int(r.Uint32())))
		case kindMapping:
			mapping := r.Int32s()
			if err := r.Err(); err != nil {
				return nil, err
			}
			m, err := NewMapping(mapping)
			if err != nil {
				return nil, err
			}
			fns = append(fns, m)
		default:
			if err := r.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("permutation: unknown kind %d", kind)
		}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return fns, nil
}
