// Package compress wraps the block compressors used for on-disk files.
package compress

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies a compression algorithm. The value is persisted.
type Type uint8

const (
	// None stores payloads as-is.
	None Type = 0
	// LZ4 is fast block compression, used for index blocks.
	LZ4 Type = 1
	// ZSTD trades speed for ratio, used for recovery files.
	ZSTD Type = 2
)

// ErrCorrupt is returned when a compressed payload cannot be decoded.
var ErrCorrupt = errors.New("compress: corrupt payload")

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// Parse resolves a configuration name to a Type.
func Parse(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return ZSTD, nil
	}
	return None, fmt.Errorf("compress: unknown type %q", name)
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Encode compresses data with t. It returns the type actually applied:
// payloads that do not shrink below 90% of their size are kept as None.
func Encode(t Type, data []byte) ([]byte, Type, error) {
	if t == None || len(data) == 0 {
		return data, None, nil
	}

	var out []byte
	switch t {
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, None, err
		}
		out = buf[:n]
	case ZSTD:
		enc := getZstdEncoder()
		out = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, None, fmt.Errorf("compress: unknown type %d", t)
	}

	if len(out) == 0 || float64(len(out)) > float64(len(data))*0.9 {
		return data, None, nil
	}
	return out, t, nil
}

// Decode reverses Encode. size is the uncompressed length.
func Decode(t Type, data []byte, size int) ([]byte, error) {
	switch t {
	case None:
		if len(data) != size {
			return nil, fmt.Errorf("%w: stored %d bytes, expected %d", ErrCorrupt, len(data), size)
		}
		return data, nil
	case LZ4:
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if n != size {
			return nil, fmt.Errorf("%w: decompressed %d bytes, expected %d", ErrCorrupt, n, size)
		}
		return out, nil
	case ZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		if len(out) != size {
			return nil, fmt.Errorf("%w: decompressed %d bytes, expected %d", ErrCorrupt, len(out), size)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown type %d", ErrCorrupt, t)
}
