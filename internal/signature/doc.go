// Package signature implements packed LSH bit signatures.
//
// A Signature is a fixed number of 64-bit words. Bit 0 of a signature is the
// most significant bit of word 0, bit 64 the most significant bit of word 1,
// and so on. All signatures of one database share the same word count.
//
// # Ordering
//
// Signatures are ordered lexicographically by word, each word compared as an
// unsigned 64-bit pattern. This is the order used by every block index.
//
// # Similarity
//
// The Hamming distance counts differing bits. CosineApprox maps it onto the
// angle between the hashed vectors:
//
//	cos(hamming / (words*64) * π)
package signature
