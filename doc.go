// Package lshdb is an embedded approximate nearest neighbor database for
// integer vectors under cosine similarity.
//
// Vectors are hashed with random hyperplane locality sensitive hashing
// into fixed-length bit signatures. Every table keeps the signatures
// sorted under its own bit permutation in a chain of fixed-capacity block
// files; a query looks at the signatures adjacent to its own in each
// table and estimates similarity from the Hamming distance.
//
// # Quick Start
//
//	cfg := lshdb.DefaultConfig()
//	cfg.Path = "./vdb"
//	cfg.SignatureBits = 1024
//	cfg.Tables = 4
//	cfg.BlockCapacity = 1000
//	cfg.InputDimension = 300
//
//	db, _ := lshdb.New(cfg)
//	_ = db.BulkLoad(ctx, vector.Slice(vectors))
//
//	results, _ := db.NearNeighbors(query, 20, 0.8)
//	for _, r := range results.Sorted() {
//	    fmt.Println(r.ID, r.Similarity)
//	}
//
// Reopen a built database:
//
//	db, _ := lshdb.Open(ctx, "./vdb")
//
// # Lifecycle
//
// A database starts unconfigured. The first submitted vector creates the
// hash function, permutations and staging store. SubmitInputVectors may be
// called repeatedly to stream input in chunks; Create then builds every
// table. BulkLoad does both in one call. After Create or Recover the
// database only answers queries.
//
// # Storage Layout
//
//	<path>/vector-db.properties     configuration snapshot (ini)
//	<path>/lsh-func.ser             hyperplanes
//	<path>/permutation-funcs.ser    per-table permutations
//	<path>/indexes.ser              block chain metadata
//	<path>/signature_storage/       staged signatures
//	<path>/index/blockIndex<i>/     block files of table i
package lshdb
