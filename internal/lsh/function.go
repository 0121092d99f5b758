package lsh

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/hupe1980/lshdb/internal/codec"
	"github.com/hupe1980/lshdb/internal/signature"
	"github.com/hupe1980/lshdb/vector"
)

// ErrDimensionMismatch is returned when a vector does not match the
// function's input dimension.
var ErrDimensionMismatch = errors.New("lsh: dimension mismatch")

// Function maps vectors to signatures, one bit per hyperplane.
type Function struct {
	planes []Hyperplane
	dim    int
	sparse bool
}

type options struct {
	rng    *rand.Rand
	sparse bool
	logger *slog.Logger
}

// Option configures NewRandom.
type Option func(*options)

// WithRand sets the random source. Defaults to a randomly seeded PCG.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithSparseHyperplanes selects SparseHyperplane instead of DenseHyperplane.
func WithSparseHyperplanes(sparse bool) Option {
	return func(o *options) { o.sparse = sparse }
}

// WithLogger sets the logger used for configuration warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// NewRandom creates a function with bits random hyperplanes over
// dim-dimensional input.
func NewRandom(bits, dim int, opts ...Option) (*Function, error) {
	if bits <= 0 {
		return nil, fmt.Errorf("lsh: signature size must be positive, got %d", bits)
	}
	if dim <= 0 {
		return nil, fmt.Errorf("lsh: input dimension must be positive, got %d", dim)
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if bits%signature.WordSize != 0 {
		o.logger.Warn("signature size does not fill the last word",
			"bits", bits, "word_size", signature.WordSize)
	}

	s := NewSampler(o.rng)
	f := &Function{planes: make([]Hyperplane, bits), dim: dim, sparse: o.sparse}
	for i := range f.planes {
		if o.sparse {
			f.planes[i] = RandomSparseHyperplane(dim, s)
		} else {
			f.planes[i] = RandomDenseHyperplane(dim, s)
		}
	}
	return f, nil
}

// New builds a function from explicit hyperplanes, all of the same
// dimension.
func New(planes ...Hyperplane) (*Function, error) {
	if len(planes) == 0 {
		return nil, errors.New("lsh: no hyperplanes")
	}
	f := &Function{planes: planes, dim: planes[0].Dimension()}
	for i, p := range planes {
		if p.Dimension() != f.dim {
			return nil, fmt.Errorf("%w: hyperplane %d has %d components, expected %d",
				ErrDimensionMismatch, i, p.Dimension(), f.dim)
		}
		if _, ok := p.(*SparseHyperplane); ok {
			f.sparse = true
		}
	}
	return f, nil
}

// Bits returns the signature size in bits.
func (f *Function) Bits() int { return len(f.planes) }

// Words returns the signature size in words.
func (f *Function) Words() int { return signature.Words(len(f.planes)) }

// Dimension returns the expected input dimension.
func (f *Function) Dimension() int { return f.dim }

func (f *Function) String() string {
	return fmt.Sprintf("lsh.Function[%dx%d]", len(f.planes), f.dim)
}

// Sign hashes v. Bits are packed most significant first; unused trailing
// bits of the last word stay zero.
func (f *Function) Sign(v vector.Vector) (signature.Signature, error) {
	if v.Dimension() != f.dim {
		return nil, fmt.Errorf("%w: vector %d has %d components, expected %d",
			ErrDimensionMismatch, v.ID(), v.Dimension(), f.dim)
	}
	sparse := v.Sparse()
	sig := make(signature.Signature, f.Words())
	for i, p := range f.planes {
		dot, err := p.Dot(sparse)
		if err != nil {
			return nil, fmt.Errorf("hyperplane %d: %w", i, err)
		}
		if dot > 0 {
			sig.SetBit(i)
		}
	}
	return sig, nil
}

// Entry hashes v and pairs the signature with v's id.
func (f *Function) Entry(v vector.Vector) (signature.Entry, error) {
	sig, err := f.Sign(v)
	if err != nil {
		return signature.Entry{}, err
	}
	return signature.Entry{Sig: sig, ID: v.ID()}, nil
}

// MarshalBinary encodes the hyperplanes.
func (f *Function) MarshalBinary() ([]byte, error) {
	w := codec.NewWriter(16 + len(f.planes)*f.dim*4)
	w.Uint32(uint32(len(f.planes)))
	w.Uint32(uint32(f.dim))
	w.Bool(f.sparse)
	for _, p := range f.planes {
		switch h := p.(type) {
		case *SparseHyperplane:
			b, err := h.normal.MarshalBinary()
			if err != nil {
				return nil, err
			}
			w.Bytes(b)
		default:
			w.Int32s(p.Normal())
		}
	}
	return w.Data(), nil
}

// UnmarshalBinary decodes the format written by MarshalBinary.
func (f *Function) UnmarshalBinary(data []byte) error {
	r := codec.NewReader(data)
	n := int(r.Uint32())
	dim := int(r.Uint32())
	sparse := r.Bool()
	if err := r.Err(); err != nil {
		return err
	}
	if n <= 0 || dim <= 0 {
		return fmt.Errorf("lsh: invalid header: %d hyperplanes of dimension %d", n, dim)
	}

	planes := make([]Hyperplane, n)
	for i := range planes {
		if sparse {
			var l vector.SparseList
			b := r.Bytes()
			if err := r.Err(); err != nil {
				return err
			}
			if err := l.UnmarshalBinary(b); err != nil {
				return err
			}
			planes[i] = &SparseHyperplane{normal: &l}
			continue
		}
		normal := r.Int32s()
		if err := r.Err(); err != nil {
			return err
		}
		planes[i] = &DenseHyperplane{normal: normal}
	}
	decoded, err := New(planes...)
	if err != nil {
		return err
	}
	if decoded.dim != dim {
		return fmt.Errorf("%w: header says %d, hyperplanes have %d", ErrDimensionMismatch, dim, decoded.dim)
	}
	*f = *decoded
	return nil
}
