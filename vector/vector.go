package vector

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch is returned when two vectors of different dimension
	// are multiplied.
	ErrLengthMismatch = errors.New("vector length mismatch")

	// ErrInvalidSparse is returned for unordered or out-of-range sparse
	// positions.
	ErrInvalidSparse = errors.New("invalid sparse vector")
)

// Vector is an integer input vector.
type Vector interface {
	// ID returns the caller-assigned id.
	ID() int32
	// Dimension returns the number of components.
	Dimension() int
	// Dense returns all components. Callers must not modify the result.
	Dense() []int32
	// Sparse returns the non-zero components in ascending position order.
	Sparse() *SparseList
}

// Dense is a Vector backed by a plain slice.
type Dense struct {
	id     int32
	values []int32
}

// NewDense wraps values. The slice is retained.
func NewDense(id int32, values []int32) *Dense {
	return &Dense{id: id, values: values}
}

func (d *Dense) ID() int32      { return d.id }
func (d *Dense) Dimension() int { return len(d.values) }
func (d *Dense) Dense() []int32 { return d.values }

func (d *Dense) Sparse() *SparseList { return FromDense(d.values) }

func (d *Dense) String() string {
	return fmt.Sprintf("Dense(%d, dim=%d)", d.id, len(d.values))
}

// Sparse is a Vector that stores only non-zero components.
type Sparse struct {
	id   int32
	list *SparseList
}

// NewSparse builds a sparse vector of dimension dim. Positions must be
// strictly ascending and lie in [0, dim).
func NewSparse(id int32, dim int, positions, values []int32) (*Sparse, error) {
	l, err := NewSparseList(dim, positions, values)
	if err != nil {
		return nil, err
	}
	return &Sparse{id: id, list: l}, nil
}

func (s *Sparse) ID() int32           { return s.id }
func (s *Sparse) Dimension() int      { return s.list.Size() }
func (s *Sparse) Dense() []int32      { return s.list.ToDense() }
func (s *Sparse) Sparse() *SparseList { return s.list }

func (s *Sparse) String() string {
	return fmt.Sprintf("Sparse(%d, dim=%d, nnz=%d)", s.id, s.list.Size(), s.list.Len())
}
