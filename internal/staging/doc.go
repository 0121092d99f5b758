// Package staging buffers signature entries between hashing and index
// construction.
//
// Hashing workers append entries to a Store in arrival order. At build time
// the entries are read back once per table, permuted, sorted and bulk
// loaded. The MemoryStore keeps entries on the heap; the DiskStore appends
// them to a single file so that very large inputs do not have to fit in
// memory.
package staging
