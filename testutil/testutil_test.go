package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenseVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.DenseVectors(8, 32, 10)

	require.Len(t, v, 8)
	for i, vec := range v {
		assert.Equal(t, int32(i), vec.ID())
		assert.Equal(t, 32, vec.Dimension())
		for _, x := range vec.Dense() {
			assert.GreaterOrEqual(t, x, int32(-10))
			assert.LessOrEqual(t, x, int32(10))
		}
	}
}

func TestSparseVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.SparseVectors(10, 1000, 20, 5)

	require.Len(t, v, 10)
	for _, vec := range v {
		assert.Equal(t, 1000, vec.Dimension())
		assert.Equal(t, 20, vec.Sparse().Len())
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.IntVector(10, 100)

	rng.Reset()
	v2 := rng.IntVector(10, 100)

	assert.Equal(t, v1, v2)
	assert.Equal(t, uint64(4711), rng.Seed())
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]int32{1, 2, 3}, []int32{2, 4, 6}), 1e-12)
	assert.InDelta(t, -1.0, Cosine([]int32{1, 2, 3}, []int32{-1, -2, -3}), 1e-12)
	assert.InDelta(t, 0.0, Cosine([]int32{1, 0}, []int32{0, 1}), 1e-12)
	assert.Zero(t, Cosine([]int32{0, 0}, []int32{1, 1}))
}

func TestBruteForceSearch(t *testing.T) {
	rng := NewRNG(1)
	vecs := rng.DenseVectors(50, 16, 20)

	res := BruteForceSearch(vecs, vecs[7].Dense(), 5)

	require.Len(t, res, 5)
	assert.Equal(t, int32(7), res[0].ID)
	assert.InDelta(t, 1.0, res[0].Similarity, 1e-9)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Similarity, res[i].Similarity)
	}
}

func TestComputeRecall(t *testing.T) {
	truth := []SearchResult{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}

	assert.Equal(t, 1.0, ComputeRecall(truth, []int32{4, 3, 2, 1}))
	assert.Equal(t, 0.5, ComputeRecall(truth, []int32{1, 3, 9}))
	assert.Equal(t, 1.0, ComputeRecall(nil, nil))
}

func TestPerturb(t *testing.T) {
	rng := NewRNG(3)
	v := rng.IntVector(100, 50)

	p := rng.Perturb(v, 5, 50)

	diff := 0
	for i := range v {
		if v[i] != p[i] {
			diff++
		}
	}
	assert.LessOrEqual(t, diff, 5)
	assert.Len(t, p, 100)
}
