package main

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/hupe1980/lshdb/vector"
)

// vectorReader parses one vector per line. A line is an id followed by
// either dense components ("7 1 0 -3") or position:value pairs
// ("7 0:1 2:-3"). Sparse lines need the dimension. Blank lines and lines
// starting with '#' are skipped.
type vectorReader struct {
	scanner *bufio.Scanner
	dim     int
	line    int
	err     error
}

func newVectorReader(r io.Reader, dim int) *vectorReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return &vectorReader{scanner: s, dim: dim}
}

// All yields vectors until the input ends or a line fails to parse. Err
// reports the failure afterwards.
func (r *vectorReader) All() iter.Seq[vector.Vector] {
	return func(yield func(vector.Vector) bool) {
		for r.scanner.Scan() {
			r.line++
			text := strings.TrimSpace(r.scanner.Text())
			if text == "" || strings.HasPrefix(text, "#") {
				continue
			}
			v, err := parseVector(strings.Fields(text), r.dim)
			if err != nil {
				r.err = fmt.Errorf("line %d: %w", r.line, err)
				return
			}
			if !yield(v) {
				return
			}
		}
		if err := r.scanner.Err(); err != nil {
			r.err = err
		}
	}
}

func (r *vectorReader) Err() error { return r.err }

func parseVector(fields []string, dim int) (vector.Vector, error) {
	if len(fields) < 2 {
		return nil, fmt.Errorf("expected an id and at least one component")
	}
	id, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", fields[0], err)
	}
	if strings.Contains(fields[1], ":") {
		return parseSparse(int32(id), fields[1:], dim)
	}
	values, err := parseComponents(fields[1:])
	if err != nil {
		return nil, err
	}
	return vector.NewDense(int32(id), values), nil
}

func parseSparse(id int32, pairs []string, dim int) (vector.Vector, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("sparse input needs input_dimension")
	}
	positions := make([]int32, 0, len(pairs))
	values := make([]int32, 0, len(pairs))
	for _, p := range pairs {
		pos, val, ok := strings.Cut(p, ":")
		if !ok {
			return nil, fmt.Errorf("invalid pair %q", p)
		}
		pi, err := strconv.ParseInt(pos, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid position %q: %w", pos, err)
		}
		vi, err := strconv.ParseInt(val, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", val, err)
		}
		positions = append(positions, int32(pi))
		values = append(values, int32(vi))
	}
	return vector.NewSparse(id, dim, positions, values)
}

func parseComponents(fields []string) ([]int32, error) {
	values := make([]int32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid component %q: %w", f, err)
		}
		values[i] = int32(v)
	}
	return values, nil
}
