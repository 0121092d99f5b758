// Package resource bounds the memory, IO and parallelism an lshdb instance
// may use.
//
// # Memory
//
// Decoded block caches reserve their size before they are populated. When
// the reservation fails the caller evicts older caches or serves the read
// without caching.
//
// # IO
//
// Block and staging writes during a build pass through a token bucket when
// IOLimitBytesPerSec is set.
//
// # Workers
//
// Workers caps signature hashing and parallel sorting goroutines.
//
// A nil *Controller is valid and imposes no limits.
package resource
