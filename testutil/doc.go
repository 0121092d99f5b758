// Package testutil provides testing utilities for lshdb.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random integer vectors, computing
// exact cosine neighbors, and verifying search recall.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.DenseVectors(1000, 300, 100)      // ids 0..999, values in [-100, 100]
//	sparse := rng.SparseVectors(1000, 10000, 50, 100)
//
// # Exact Search (Ground Truth)
//
//	truth := testutil.BruteForceSearch(vecs, query, k)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(truth, approx)
package testutil
