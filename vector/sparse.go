package vector

import (
	"encoding/binary"
	"fmt"
)

// SparseList holds the non-zero components of an integer vector as parallel
// position and value slices, ordered by position.
type SparseList struct {
	size      int
	positions []int32
	values    []int32
}

// NewSparseList validates and wraps positions and values.
func NewSparseList(size int, positions, values []int32) (*SparseList, error) {
	if len(positions) != len(values) {
		return nil, fmt.Errorf("%w: %d positions, %d values", ErrInvalidSparse, len(positions), len(values))
	}
	for i, p := range positions {
		if p < 0 || int(p) >= size {
			return nil, fmt.Errorf("%w: position %d out of range [0,%d)", ErrInvalidSparse, p, size)
		}
		if i > 0 && positions[i-1] >= p {
			return nil, fmt.Errorf("%w: positions not ascending at %d", ErrInvalidSparse, i)
		}
	}
	return &SparseList{size: size, positions: positions, values: values}, nil
}

// FromDense collects the non-zero components of values.
func FromDense(values []int32) *SparseList {
	l := &SparseList{size: len(values)}
	for i, v := range values {
		if v != 0 {
			l.positions = append(l.positions, int32(i))
			l.values = append(l.values, v)
		}
	}
	return l
}

// Size returns the dimension of the represented vector.
func (l *SparseList) Size() int { return l.size }

// Len returns the number of stored components.
func (l *SparseList) Len() int { return len(l.positions) }

// At returns the i-th stored component.
func (l *SparseList) At(i int) (pos int32, value int32) {
	return l.positions[i], l.values[i]
}

// Cursor returns a cursor positioned before the first component.
func (l *SparseList) Cursor() *Cursor {
	return &Cursor{list: l, i: -1}
}

// ToDense expands the list.
func (l *SparseList) ToDense() []int32 {
	out := make([]int32, l.size)
	for i, p := range l.positions {
		out[p] = l.values[i]
	}
	return out
}

// Dot returns the scalar product with another sparse list by merging both
// position sequences.
func (l *SparseList) Dot(o *SparseList) int64 {
	var sum int64
	i, j := 0, 0
	for i < len(l.positions) && j < len(o.positions) {
		switch pi, pj := l.positions[i], o.positions[j]; {
		case pi < pj:
			i++
		case pi > pj:
			j++
		default:
			sum += int64(l.values[i]) * int64(o.values[j])
			i++
			j++
		}
	}
	return sum
}

// DotDense returns the scalar product with a dense slice of the same size.
func (l *SparseList) DotDense(dense []int32) (int64, error) {
	if len(dense) != l.size {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, l.size, len(dense))
	}
	var sum int64
	for i, p := range l.positions {
		sum += int64(l.values[i]) * int64(dense[p])
	}
	return sum, nil
}

// MarshalBinary encodes the list as size, count, then position/value pairs,
// all big-endian.
func (l *SparseList) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 8+8*len(l.positions))
	buf = binary.BigEndian.AppendUint32(buf, uint32(l.size))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(l.positions)))
	for i, p := range l.positions {
		buf = binary.BigEndian.AppendUint32(buf, uint32(p))
		buf = binary.BigEndian.AppendUint32(buf, uint32(l.values[i]))
	}
	return buf, nil
}

// UnmarshalBinary decodes the format written by MarshalBinary.
func (l *SparseList) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: truncated header", ErrInvalidSparse)
	}
	size := int(binary.BigEndian.Uint32(data))
	n := int(binary.BigEndian.Uint32(data[4:]))
	data = data[8:]
	if len(data) != 8*n {
		return fmt.Errorf("%w: expected %d bytes of components, got %d", ErrInvalidSparse, 8*n, len(data))
	}
	positions := make([]int32, n)
	values := make([]int32, n)
	for i := 0; i < n; i++ {
		positions[i] = int32(binary.BigEndian.Uint32(data[8*i:]))
		values[i] = int32(binary.BigEndian.Uint32(data[8*i+4:]))
	}
	decoded, err := NewSparseList(size, positions, values)
	if err != nil {
		return err
	}
	*l = *decoded
	return nil
}

// Cursor walks a SparseList in ascending position order.
type Cursor struct {
	list *SparseList
	i    int
}

// Next advances the cursor. It must be called before the first access.
func (c *Cursor) Next() bool {
	if c.i+1 >= len(c.list.positions) {
		c.i = len(c.list.positions)
		return false
	}
	c.i++
	return true
}

// Position returns the current component's position.
func (c *Cursor) Position() int32 { return c.list.positions[c.i] }

// Value returns the current component's value.
func (c *Cursor) Value() int32 { return c.list.values[c.i] }
