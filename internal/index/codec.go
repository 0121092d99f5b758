package index

import (
	"fmt"

	"github.com/hupe1980/lshdb/internal/codec"
	"github.com/hupe1980/lshdb/internal/permutation"
	"github.com/hupe1980/lshdb/internal/signature"
)

// Kind selects what a block file stores.
type Kind uint8

const (
	// KindValue blocks store signatures and ids.
	KindValue Kind = 1
	// KindReference blocks store ids only.
	KindReference Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindReference:
		return "reference"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Lookup resolves an element id to its canonical (unpermuted) entry.
type Lookup interface {
	Lookup(id int32) (signature.Entry, bool)
}

// entryCodec turns block contents into file payloads and back.
type entryCodec interface {
	kind() Kind
	encode(w *codec.Writer, entries []signature.Entry)
	decode(r *codec.Reader, count int) ([]signature.Entry, error)
	validate(e signature.Entry) error
	// resolves reports whether stored entries are reconstructed from
	// elsewhere rather than read back verbatim.
	resolves() bool
}

type valueCodec struct {
	words int
}

func (c valueCodec) kind() Kind     { return KindValue }
func (c valueCodec) resolves() bool { return false }

func (c valueCodec) encode(w *codec.Writer, entries []signature.Entry) {
	for _, e := range entries {
		for _, word := range e.Sig {
			w.Uint64(word)
		}
		w.Int32(e.ID)
	}
}

func (c valueCodec) decode(r *codec.Reader, count int) ([]signature.Entry, error) {
	entries := make([]signature.Entry, count)
	words := make([]uint64, count*c.words)
	for i := range entries {
		sig := signature.Signature(words[i*c.words : (i+1)*c.words : (i+1)*c.words])
		for j := range sig {
			sig[j] = r.Uint64()
		}
		entries[i] = signature.Entry{Sig: sig, ID: r.Int32()}
	}
	return entries, r.Err()
}

func (c valueCodec) validate(e signature.Entry) error {
	if len(e.Sig) != c.words {
		return fmt.Errorf("%w: entry %d has %d words, index expects %d",
			signature.ErrLengthMismatch, e.ID, len(e.Sig), c.words)
	}
	return nil
}

type referenceCodec struct {
	words  int
	lookup Lookup
	perm   permutation.Function
}

func (c referenceCodec) kind() Kind     { return KindReference }
func (c referenceCodec) resolves() bool { return true }

func (c referenceCodec) encode(w *codec.Writer, entries []signature.Entry) {
	for _, e := range entries {
		w.Int32(e.ID)
	}
}

func (c referenceCodec) decode(r *codec.Reader, count int) ([]signature.Entry, error) {
	entries := make([]signature.Entry, count)
	for i := range entries {
		id := r.Int32()
		if err := r.Err(); err != nil {
			return nil, err
		}
		e, err := c.resolve(id)
		if err != nil {
			return nil, err
		}
		entries[i] = e
	}
	return entries, nil
}

func (c referenceCodec) resolve(id int32) (signature.Entry, error) {
	e, ok := c.lookup.Lookup(id)
	if !ok {
		return signature.Entry{}, fmt.Errorf("%w: id %d", ErrUnknownReference, id)
	}
	return signature.Entry{Sig: c.perm.Permute(e.Sig), ID: id}, nil
}

func (c referenceCodec) validate(e signature.Entry) error {
	if len(e.Sig) != c.words {
		return fmt.Errorf("%w: entry %d has %d words, index expects %d",
			signature.ErrLengthMismatch, e.ID, len(e.Sig), c.words)
	}
	if _, ok := c.lookup.Lookup(e.ID); !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownReference, e.ID)
	}
	return nil
}
