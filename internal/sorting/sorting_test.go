package sorting

import (
	"cmp"
	"context"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lshdb/internal/signature"
)

func randomEntries(n int, r *rand.Rand) []signature.Entry {
	out := make([]signature.Entry, n)
	for i := range out {
		out[i] = signature.Entry{Sig: signature.Signature{r.Uint64(), r.Uint64()}, ID: int32(i)}
	}
	return out
}

func TestSorters(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	sorters := map[string]Sorter{
		"standard":        Standard{},
		"parallel":        Parallel{Threshold: 16, Workers: 4},
		"parallel single": Parallel{Threshold: 16, Workers: 1},
		"parallel direct": Parallel{},
	}
	for name, s := range sorters {
		t.Run(name, func(t *testing.T) {
			for _, n := range []int{0, 1, 2, 3, 17, 1000, 20000} {
				data := randomEntries(n, r)
				want := slices.Clone(data)
				slices.SortFunc(want, signature.CompareEntries)

				require.NoError(t, s.Sort(context.Background(), data))
				assert.Equal(t, want, data)
			}
		})
	}
}

func TestParallelQuickSortDuplicates(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	data := make([]int, 50000)
	for i := range data {
		data[i] = r.IntN(5)
	}
	require.NoError(t, ParallelQuickSort(context.Background(), data, cmp.Compare[int], 8, 4))
	assert.True(t, slices.IsSorted(data))

	same := make([]int, 10000)
	require.NoError(t, ParallelQuickSort(context.Background(), same, cmp.Compare[int], 4, 2))
	assert.True(t, slices.IsSorted(same))
}

func TestParallelQuickSortPresorted(t *testing.T) {
	asc := make([]int, 30000)
	desc := make([]int, 30000)
	for i := range asc {
		asc[i] = i
		desc[i] = len(desc) - i
	}
	require.NoError(t, ParallelQuickSort(context.Background(), asc, cmp.Compare[int], 16, 4))
	require.NoError(t, ParallelQuickSort(context.Background(), desc, cmp.Compare[int], 16, 4))
	assert.True(t, slices.IsSorted(asc))
	assert.True(t, slices.IsSorted(desc))
}

func TestPartition(t *testing.T) {
	data := []int{5, 1, 9, 5, 3, 5, 8, 2}
	lo, hi := partition(data, cmp.Compare[int])
	pivot := data[lo]
	for _, v := range data[:lo] {
		assert.Less(t, v, pivot)
	}
	for _, v := range data[lo:hi] {
		assert.Equal(t, pivot, v)
	}
	for _, v := range data[hi:] {
		assert.Greater(t, v, pivot)
	}
}

func TestSortCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	data := randomEntries(100, rand.New(rand.NewPCG(5, 6)))
	assert.ErrorIs(t, Standard{}.Sort(ctx, data), context.Canceled)
	assert.ErrorIs(t, Parallel{Threshold: 4}.Sort(ctx, data), context.Canceled)
}
