package vector

import "iter"

// Limit yields at most n vectors from seq.
func Limit(seq iter.Seq[Vector], n int) iter.Seq[Vector] {
	return func(yield func(Vector) bool) {
		if n <= 0 {
			return
		}
		i := 0
		for v := range seq {
			if !yield(v) {
				return
			}
			i++
			if i >= n {
				return
			}
		}
	}
}

// Chunks groups seq into slices of up to size vectors.
func Chunks(seq iter.Seq[Vector], size int) iter.Seq[[]Vector] {
	return func(yield func([]Vector) bool) {
		if size <= 0 {
			size = 1
		}
		chunk := make([]Vector, 0, size)
		for v := range seq {
			chunk = append(chunk, v)
			if len(chunk) == size {
				if !yield(chunk) {
					return
				}
				chunk = make([]Vector, 0, size)
			}
		}
		if len(chunk) > 0 {
			yield(chunk)
		}
	}
}

// Slice returns an iterator over vs.
func Slice[V Vector](vs []V) iter.Seq[Vector] {
	return func(yield func(Vector) bool) {
		for _, v := range vs {
			if !yield(v) {
				return
			}
		}
	}
}
