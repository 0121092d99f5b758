package lsh

import (
	"fmt"

	"github.com/hupe1980/lshdb/vector"
)

// Hyperplane is a hyperplane through the origin, given by its normal vector.
type Hyperplane interface {
	// Dot returns the scalar product of the normal vector with v. It fails
	// with vector.ErrLengthMismatch when the sizes differ.
	Dot(v *vector.SparseList) (int64, error)
	// Dimension returns the size of the normal vector.
	Dimension() int
	// Normal returns the normal vector in dense form.
	Normal() []int32
}

// DenseHyperplane stores every component of its normal vector.
type DenseHyperplane struct {
	normal []int32
}

// NewDenseHyperplane copies normal.
func NewDenseHyperplane(normal []int32) *DenseHyperplane {
	return &DenseHyperplane{normal: append([]int32(nil), normal...)}
}

// RandomDenseHyperplane samples every component.
func RandomDenseHyperplane(dim int, s *Sampler) *DenseHyperplane {
	normal := make([]int32, dim)
	for i := range normal {
		normal[i] = component(s.Sample())
	}
	return &DenseHyperplane{normal: normal}
}

func (h *DenseHyperplane) Dot(v *vector.SparseList) (int64, error) {
	return v.DotDense(h.normal)
}

func (h *DenseHyperplane) Dimension() int  { return len(h.normal) }
func (h *DenseHyperplane) Normal() []int32 { return h.normal }

// SparseHyperplane keeps roughly one percent of the components of a random
// normal vector and zeroes the rest.
type SparseHyperplane struct {
	normal *vector.SparseList
}

// sparseKeepPercent is the share of components kept by
// RandomSparseHyperplane.
const sparseKeepPercent = 1

// NewSparseHyperplane wraps a sparse normal vector.
func NewSparseHyperplane(normal *vector.SparseList) *SparseHyperplane {
	return &SparseHyperplane{normal: normal}
}

// RandomSparseHyperplane samples a normal vector with about one percent of
// its components set.
func RandomSparseHyperplane(dim int, s *Sampler) *SparseHyperplane {
	var positions, values []int32
	for i := 0; i < dim; i++ {
		if s.rng.IntN(100) >= sparseKeepPercent {
			continue
		}
		positions = append(positions, int32(i))
		values = append(values, component(s.Sample()))
	}
	l, err := vector.NewSparseList(dim, positions, values)
	if err != nil {
		// Positions are generated ascending and in range.
		panic(fmt.Sprintf("lsh: invalid sparse hyperplane: %v", err))
	}
	return &SparseHyperplane{normal: l}
}

func (h *SparseHyperplane) Dot(v *vector.SparseList) (int64, error) {
	if v.Size() != h.normal.Size() {
		return 0, fmt.Errorf("%w: %d vs %d", vector.ErrLengthMismatch, h.normal.Size(), v.Size())
	}
	return h.normal.Dot(v), nil
}

func (h *SparseHyperplane) Dimension() int  { return h.normal.Size() }
func (h *SparseHyperplane) Normal() []int32 { return h.normal.ToDense() }
