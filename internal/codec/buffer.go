package codec

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Writer appends big-endian values to a byte slice.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

func (w *Writer) Uint8(v uint8)     { w.buf = append(w.buf, v) }
func (w *Writer) Uint32(v uint32)   { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }
func (w *Writer) Uint64(v uint64)   { w.buf = binary.BigEndian.AppendUint64(w.buf, v) }
func (w *Writer) Int32(v int32)     { w.Uint32(uint32(v)) }
func (w *Writer) Float64(v float64) { w.Uint64(math.Float64bits(v)) }

func (w *Writer) Bool(v bool) {
	if v {
		w.Uint8(1)
		return
	}
	w.Uint8(0)
}

// Bytes writes a length-prefixed byte slice.
func (w *Writer) Bytes(b []byte) {
	w.Uint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// Int32s writes a length-prefixed int32 slice.
func (w *Writer) Int32s(vs []int32) {
	w.Uint32(uint32(len(vs)))
	for _, v := range vs {
		w.Int32(v)
	}
}

// Uint64s writes a length-prefixed uint64 slice.
func (w *Writer) Uint64s(vs []uint64) {
	w.Uint32(uint32(len(vs)))
	for _, v := range vs {
		w.Uint64(v)
	}
}

// Append appends raw bytes without a length prefix.
func (w *Writer) Append(b []byte) { w.buf = append(w.buf, b...) }

// Data returns the encoded bytes.
func (w *Writer) Data() []byte { return w.buf }

// Len returns the number of encoded bytes.
func (w *Writer) Len() int { return len(w.buf) }

// Reader consumes big-endian values. The first failure sticks; later reads
// return zero values and Err reports it.
type Reader struct {
	buf []byte
	pos int
	err error
}

// NewReader reads from b.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.err = io.ErrUnexpectedEOF
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *Reader) Uint8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *Reader) Uint32() uint32 {
	if b := r.take(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

func (r *Reader) Uint64() uint64 {
	if b := r.take(8); b != nil {
		return binary.BigEndian.Uint64(b)
	}
	return 0
}

func (r *Reader) Int32() int32     { return int32(r.Uint32()) }
func (r *Reader) Float64() float64 { return math.Float64frombits(r.Uint64()) }
func (r *Reader) Bool() bool       { return r.Uint8() != 0 }

// length reads a slice length and bounds it by the remaining bytes.
func (r *Reader) length(elemSize int) int {
	n := int(r.Uint32())
	if r.err == nil && n*elemSize > len(r.buf)-r.pos {
		r.err = fmt.Errorf("%w: length %d exceeds remaining %d bytes", io.ErrUnexpectedEOF, n, len(r.buf)-r.pos)
		return 0
	}
	return n
}

func (r *Reader) Bytes() []byte {
	n := r.length(1)
	return r.take(n)
}

func (r *Reader) Int32s() []int32 {
	n := r.length(4)
	if r.err != nil {
		return nil
	}
	vs := make([]int32, n)
	for i := range vs {
		vs[i] = r.Int32()
	}
	return vs
}

func (r *Reader) Uint64s() []uint64 {
	n := r.length(8)
	if r.err != nil {
		return nil
	}
	vs := make([]uint64, n)
	for i := range vs {
		vs[i] = r.Uint64()
	}
	return vs
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Err returns the first read failure.
func (r *Reader) Err() error { return r.err }
