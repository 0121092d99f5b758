package testutil

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/hupe1980/lshdb/vector"
)

// SearchResult is an id with its cosine similarity to a query.
type SearchResult struct {
	ID         int32
	Similarity float64
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: newRand(seed),
		seed: seed,
	}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = newRand(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// Rand returns a new generator seeded from r, for APIs that take a
// *rand.Rand. The result is not thread-safe.
func (r *RNG) Rand() *rand.Rand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return rand.New(rand.NewPCG(r.rand.Uint64(), r.rand.Uint64()))
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

func (r *RNG) valueLocked(maxAbs int32) int32 {
	return r.rand.Int32N(2*maxAbs+1) - maxAbs
}

// IntVector returns dim values in [-maxAbs, maxAbs].
func (r *RNG) IntVector(dim int, maxAbs int32) []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := make([]int32, dim)
	for i := range v {
		v[i] = r.valueLocked(maxAbs)
	}
	return v
}

// DenseVectors generates num vectors with ids 0..num-1.
// Uses a single backing array for efficiency.
func (r *RNG) DenseVectors(num, dim int, maxAbs int32) []*vector.Dense {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]int32, num*dim)
	out := make([]*vector.Dense, num)
	for i := range num {
		values := data[i*dim : (i+1)*dim : (i+1)*dim]
		for j := range values {
			values[j] = r.valueLocked(maxAbs)
		}
		out[i] = vector.NewDense(int32(i), values)
	}
	return out
}

// SparseVectors generates num vectors with ids 0..num-1, each with up to
// nnz non-zero components.
func (r *RNG) SparseVectors(num, dim, nnz int, maxAbs int32) []*vector.Sparse {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*vector.Sparse, num)
	for i := range num {
		seen := make(map[int32]bool, nnz)
		positions := make([]int32, 0, nnz)
		for len(positions) < nnz && len(positions) < dim {
			p := r.rand.Int32N(int32(dim))
			if !seen[p] {
				seen[p] = true
				positions = append(positions, p)
			}
		}
		slices.Sort(positions)
		values := make([]int32, len(positions))
		for j := range values {
			for values[j] == 0 {
				values[j] = r.valueLocked(maxAbs)
			}
		}
		v, err := vector.NewSparse(int32(i), dim, positions, values)
		if err != nil {
			panic(err)
		}
		out[i] = v
	}
	return out
}

// Perturb returns a copy of v with changes components replaced by random
// values in [-maxAbs, maxAbs].
func (r *RNG) Perturb(v []int32, changes int, maxAbs int32) []int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := slices.Clone(v)
	for range changes {
		out[r.rand.IntN(len(out))] = r.valueLocked(maxAbs)
	}
	return out
}

// ClusteredVectors generates num vectors around clusters random centroids.
// Each component deviates from its centroid by at most spread.
func (r *RNG) ClusteredVectors(num, dim, clusters int, maxAbs, spread int32) []*vector.Dense {
	r.mu.Lock()
	defer r.mu.Unlock()

	centroids := make([][]int32, clusters)
	for c := range centroids {
		centroids[c] = make([]int32, dim)
		for j := range centroids[c] {
			centroids[c][j] = r.valueLocked(maxAbs)
		}
	}
	out := make([]*vector.Dense, num)
	for i := range num {
		centroid := centroids[r.rand.IntN(clusters)]
		values := make([]int32, dim)
		for j := range values {
			values[j] = centroid[j] + r.valueLocked(spread)
		}
		out[i] = vector.NewDense(int32(i), values)
	}
	return out
}

// Cosine returns the exact cosine similarity of a and b. Zero vectors
// have similarity 0.
func Cosine(a, b []int32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// BruteForceSearch returns the k vectors most similar to query by exact
// cosine similarity.
func BruteForceSearch[V vector.Vector](vectors []V, query []int32, k int) []SearchResult {
	results := make([]SearchResult, 0, len(vectors))
	for _, v := range vectors {
		results = append(results, SearchResult{ID: v.ID(), Similarity: Cosine(v.Dense(), query)})
	}
	slices.SortFunc(results, func(a, b SearchResult) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		}
		return int(a.ID) - int(b.ID)
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// ComputeRecall returns the share of groundTruth ids present in approximate.
func ComputeRecall(groundTruth []SearchResult, approximate []int32) float64 {
	if len(groundTruth) == 0 {
		return 1
	}
	found := make(map[int32]bool, len(approximate))
	for _, id := range approximate {
		found[id] = true
	}
	hits := 0
	for _, r := range groundTruth {
		if found[r.ID] {
			hits++
		}
	}
	return float64(hits) / float64(len(groundTruth))
}
