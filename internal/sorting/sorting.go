// Package sorting orders signature entries before they are bulk loaded.
package sorting

import (
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/lshdb/internal/signature"
)

// DefaultThreshold is the partition size below which ParallelQuickSort
// sorts directly instead of forking.
const DefaultThreshold = 10000

// Sorter sorts entries in place by signature, then id.
type Sorter interface {
	Sort(ctx context.Context, entries []signature.Entry) error
}

// Standard sorts on the calling goroutine.
type Standard struct{}

func (Standard) Sort(ctx context.Context, entries []signature.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	slices.SortFunc(entries, signature.CompareEntries)
	return nil
}

// Parallel is a fork/join quicksort.
type Parallel struct {
	// Threshold is the direct sort size. Zero means DefaultThreshold.
	Threshold int
	// Workers bounds concurrent partitions. Zero means GOMAXPROCS.
	Workers int
}

func (p Parallel) Sort(ctx context.Context, entries []signature.Entry) error {
	return ParallelQuickSort(ctx, entries, signature.CompareEntries, p.Threshold, p.Workers)
}

// ParallelQuickSort sorts data with cmp. Partitions larger than threshold
// are split around a median-of-three pivot and sorted concurrently, up to
// workers at a time; smaller ones are sorted directly.
func ParallelQuickSort[T any](ctx context.Context, data []T, cmp func(a, b T) int, threshold, workers int) error {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if threshold < 3 {
		threshold = 3
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var step func(part []T) error
	step = func(part []T) error {
		for len(part) > threshold {
			if err := ctx.Err(); err != nil {
				return err
			}
			lo, hi := partition(part, cmp)
			left, right := part[:lo], part[hi:]
			// Hand the smaller half to another worker if one is free and
			// keep iterating on the larger one.
			if len(left) > len(right) {
				left, right = right, left
			}
			if !g.TryGo(func() error { return step(left) }) {
				if err := step(left); err != nil {
					return err
				}
			}
			part = right
		}
		slices.SortFunc(part, cmp)
		return nil
	}

	g.Go(func() error { return step(data) })
	return g.Wait()
}

// partition rearranges data into elements less than, equal to and greater
// than a median-of-three pivot. It returns the bounds of the equal run.
func partition[T any](data []T, cmp func(a, b T) int) (lo, hi int) {
	n := len(data)
	mid := n / 2
	if cmp(data[mid], data[0]) < 0 {
		data[0], data[mid] = data[mid], data[0]
	}
	if cmp(data[n-1], data[0]) < 0 {
		data[0], data[n-1] = data[n-1], data[0]
	}
	if cmp(data[mid], data[n-1]) < 0 {
		data[mid], data[n-1] = data[n-1], data[mid]
	}
	pivot := data[n-1]

	lt, i, gt := 0, 0, n-1
	for i <= gt {
		switch c := cmp(data[i], pivot); {
		case c < 0:
			data[lt], data[i] = data[i], data[lt]
			lt++
			i++
		case c > 0:
			data[i], data[gt] = data[gt], data[i]
			gt--
		default:
			i++
		}
	}
	return lt, gt + 1
}
