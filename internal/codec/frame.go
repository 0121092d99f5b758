package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/lshdb/internal/compress"
	"github.com/hupe1980/lshdb/internal/hash"
)

// HeaderSize is the encoded size of a frame header.
const HeaderSize = 20

var (
	// ErrBadMagic is returned when a frame belongs to a different file kind.
	ErrBadMagic = errors.New("codec: bad magic")
	// ErrVersion is returned for frames written by an unknown format version.
	ErrVersion = errors.New("codec: unsupported version")
	// ErrChecksum is returned when the payload does not match its checksum.
	ErrChecksum = errors.New("codec: checksum mismatch")
	// ErrTruncated is returned when a frame is shorter than its header claims.
	ErrTruncated = errors.New("codec: truncated frame")
)

// Header describes a frame.
type Header struct {
	Magic       uint32
	Version     uint16
	Compression compress.Type
	Flags       uint8
}

// EncodeFrame compresses payload with h.Compression and returns the framed
// bytes. The returned header carries the compression actually applied.
func EncodeFrame(h Header, payload []byte) ([]byte, Header, error) {
	stored, applied, err := compress.Encode(h.Compression, payload)
	if err != nil {
		return nil, h, err
	}
	h.Compression = applied

	out := make([]byte, HeaderSize, HeaderSize+len(stored))
	binary.LittleEndian.PutUint32(out[0:], h.Magic)
	binary.LittleEndian.PutUint16(out[4:], h.Version)
	out[6] = byte(applied)
	out[7] = h.Flags
	binary.LittleEndian.PutUint32(out[8:], hash.CRC32C(stored))
	binary.LittleEndian.PutUint32(out[12:], uint32(len(stored)))
	binary.LittleEndian.PutUint32(out[16:], uint32(len(payload)))
	return append(out, stored...), h, nil
}

// WriteFrame encodes and writes one frame.
func WriteFrame(w io.Writer, h Header, payload []byte) error {
	data, _, err := EncodeFrame(h, payload)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// DecodeFrame parses a frame from data, verifying magic, version and
// checksum. maxVersion is the newest version the caller understands.
func DecodeFrame(data []byte, magic uint32, maxVersion uint16) (Header, []byte, error) {
	if len(data) < HeaderSize {
		return Header{}, nil, ErrTruncated
	}
	h := Header{
		Magic:       binary.LittleEndian.Uint32(data[0:]),
		Version:     binary.LittleEndian.Uint16(data[4:]),
		Compression: compress.Type(data[6]),
		Flags:       data[7],
	}
	if h.Magic != magic {
		return h, nil, fmt.Errorf("%w: %#x", ErrBadMagic, h.Magic)
	}
	if h.Version == 0 || h.Version > maxVersion {
		return h, nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	checksum := binary.LittleEndian.Uint32(data[8:])
	storedLen := int(binary.LittleEndian.Uint32(data[12:]))
	rawLen := int(binary.LittleEndian.Uint32(data[16:]))

	if len(data)-HeaderSize < storedLen {
		return h, nil, ErrTruncated
	}
	stored := data[HeaderSize : HeaderSize+storedLen]
	if hash.CRC32C(stored) != checksum {
		return h, nil, ErrChecksum
	}
	payload, err := compress.Decode(h.Compression, stored, rawLen)
	if err != nil {
		return h, nil, err
	}
	return h, payload, nil
}

// ReadFrame reads everything from r and decodes it as one frame.
func ReadFrame(r io.Reader, magic uint32, maxVersion uint16) (Header, []byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Header{}, nil, err
	}
	return DecodeFrame(data, magic, maxVersion)
}
