package lshdb

import (
	"cmp"
	"slices"
)

// Results maps element ids to their estimated cosine similarity with the
// query.
type Results map[int32]float64

// Result is one near neighbor.
type Result struct {
	ID         int32   `json:"id"`
	Similarity float64 `json:"similarity"`
}

// Sorted returns the results by similarity, most similar first. Ties are
// ordered by id.
func (r Results) Sorted() []Result {
	out := make([]Result, 0, len(r))
	for id, sim := range r {
		out = append(out, Result{ID: id, Similarity: sim})
	}
	slices.SortFunc(out, func(a, b Result) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// IDs returns the result ids in Sorted order.
func (r Results) IDs() []int32 {
	sorted := r.Sorted()
	ids := make([]int32, len(sorted))
	for i, res := range sorted {
		ids[i] = res.ID
	}
	return ids
}
