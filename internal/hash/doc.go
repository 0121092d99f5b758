// Package hash provides the CRC32-Castagnoli checksum used by every lshdb
// file header and by the staging log records.
package hash
