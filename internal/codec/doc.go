// Package codec provides the framed binary container shared by all lshdb
// files, plus sticky-error payload buffers.
//
// # Frame layout
//
//	Magic        uint32
//	Version      uint16
//	Compression  uint8   (compress.Type actually applied)
//	Flags        uint8
//	Checksum     uint32  CRC32C of the stored payload
//	StoredLen    uint32
//	RawLen       uint32
//	Payload      [StoredLen]byte
//
// Header fields are little-endian. Payload contents are big-endian.
package codec
