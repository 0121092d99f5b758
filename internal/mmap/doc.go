// Package mmap maps block files read-only into memory.
//
// Block index files are small and read whole on every cache miss, so a
// mapping lives only for the duration of one decode:
//
//	m, err := mmap.Open(path)
//	if err != nil { ... }
//	defer m.Close()
//	decode(m.Bytes())
//
// Slices returned by Bytes are invalid after Close.
package mmap
