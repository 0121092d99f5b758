package signature

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when an encoded entry is truncated.
var ErrShortBuffer = errors.New("signature: short buffer")

// Entry pairs a signature with the id of the vector it was computed from.
type Entry struct {
	Sig Signature
	ID  int32
}

// CompareEntries orders by signature, then by id.
func CompareEntries(a, b Entry) int {
	if c := Compare(a.Sig, b.Sig); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

// EntrySize is the encoded size of an entry with the given word count.
func EntrySize(words int) int {
	return words*8 + 4
}

// AppendEntry appends the big-endian encoding of e: the signature words
// followed by the id.
func AppendEntry(dst []byte, e Entry) []byte {
	for _, w := range e.Sig {
		dst = binary.BigEndian.AppendUint64(dst, w)
	}
	return binary.BigEndian.AppendUint32(dst, uint32(e.ID))
}

// DecodeEntry decodes one entry of the given word count from src.
func DecodeEntry(src []byte, words int) (Entry, error) {
	if len(src) < EntrySize(words) {
		return Entry{}, ErrShortBuffer
	}
	sig := make(Signature, words)
	for i := range sig {
		sig[i] = binary.BigEndian.Uint64(src[i*8:])
	}
	return Entry{Sig: sig, ID: int32(binary.BigEndian.Uint32(src[words*8:]))}, nil
}
