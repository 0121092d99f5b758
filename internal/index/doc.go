// Package index implements the sorted block-chain index that backs every
// permutation table.
//
// # Layout
//
// An Index is an ordered chain of capacity-bounded blocks. Entries are
// sorted ascending by signature across the whole chain; each block records
// the signature of its first entry as its start key. Blocks live in an
// arena and link to their neighbours by arena position.
//
// Every block owns one file (blockIndex<j> below the index directory) and a
// cache slot holding its decoded entries. Slots are dropped under memory
// pressure by a cache.Residency and reload on the next access.
//
// # Variants
//
// A value index persists (signature, id) pairs. A reference index persists
// ids only and resolves signatures through a Lookup plus the table's
// permutation; it does not support deletion or full scans.
//
// # Concurrency
//
// Reads (Get, BeamSearch, Ascend) may run concurrently with each other.
// Mutations (BulkLoad, Insert, Delete) take the index exclusively.
package index
