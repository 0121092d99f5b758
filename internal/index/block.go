package index

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/hupe1980/lshdb/internal/codec"
	"github.com/hupe1980/lshdb/internal/fs"
	"github.com/hupe1980/lshdb/internal/mmap"
	"github.com/hupe1980/lshdb/internal/signature"
)

const (
	blockMagic   = 0x4C534842 // "LSHB"
	blockVersion = 1

	// entryOverhead approximates the per-entry heap cost beyond the
	// signature words: the slice header, the id and padding.
	entryOverhead = 32
)

const noBlock = -1

// block is one node of the chain.
type block struct {
	id       int
	size     int
	startKey signature.Signature
	prev     int
	next     int
	slot     slot
}

// slot holds a block's decoded entries. A nil slice means not loaded.
// Loaded slices are never modified in place; writers install new slices.
type slot struct {
	mu      sync.Mutex
	entries []signature.Entry
}

// Evict drops the decoded entries.
func (s *slot) Evict() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
}

func blockFileName(id int) string {
	return fmt.Sprintf("blockIndex%d", id)
}

func (ix *Index) blockPath(b *block) string {
	return filepath.Join(ix.cfg.Dir, blockFileName(b.id))
}

// writeBlock persists entries as b's new contents and refreshes its cache.
func (ix *Index) writeBlock(ctx context.Context, b *block, entries []signature.Entry) error {
	if len(entries) > ix.cfg.Capacity {
		return fmt.Errorf("%w: block %d would hold %d entries, capacity %d",
			ErrCapacityExceeded, b.id, len(entries), ix.cfg.Capacity)
	}

	w := codec.NewWriter(4 + len(entries)*signature.EntrySize(ix.cfg.Words))
	w.Uint32(uint32(len(entries)))
	ix.codec.encode(w, entries)

	data, _, err := codec.EncodeFrame(codec.Header{
		Magic:       blockMagic,
		Version:     blockVersion,
		Compression: ix.cfg.Compression,
		Flags:       uint8(ix.codec.kind()),
	}, w.Data())
	if err != nil {
		return fmt.Errorf("%w: encode block %d: %w", ErrStorage, b.id, err)
	}
	if err := ix.rc.AcquireIO(ctx, len(data)); err != nil {
		return err
	}
	if err := fs.WriteFile(ix.fsys, ix.blockPath(b), data); err != nil {
		return fmt.Errorf("%w: write block %d: %w", ErrStorage, b.id, err)
	}

	b.size = len(entries)
	if len(entries) > 0 {
		b.startKey = entries[0].Sig
	}
	ix.cache(b, entries)
	return nil
}

// cache installs entries into b's slot and registers it for residency.
func (ix *Index) cache(b *block, entries []signature.Entry) {
	b.slot.mu.Lock()
	b.slot.entries = entries
	b.slot.mu.Unlock()
	if !ix.residency.Admit(ix.cacheKey(b), ix.footprint(len(entries)), &b.slot) {
		b.slot.Evict()
	}
}

func (ix *Index) footprint(n int) int64 {
	return int64(n) * int64(ix.cfg.Words*8+entryOverhead)
}

// entries returns b's decoded contents, reading the block file on a cache
// miss. Callers must not modify the result.
func (ix *Index) entries(b *block) ([]signature.Entry, error) {
	b.slot.mu.Lock()
	if e := b.slot.entries; e != nil {
		b.slot.mu.Unlock()
		ix.hits.Add(1)
		ix.residency.Touch(ix.cacheKey(b))
		return e, nil
	}
	ix.misses.Add(1)
	e, err := ix.readBlock(b)
	if err != nil {
		b.slot.mu.Unlock()
		return nil, err
	}
	b.slot.entries = e
	b.slot.mu.Unlock()

	if !ix.residency.Admit(ix.cacheKey(b), ix.footprint(len(e)), &b.slot) {
		b.slot.Evict()
	}
	return e, nil
}

func (ix *Index) readBlock(b *block) ([]signature.Entry, error) {
	var entries []signature.Entry
	decode := func(data []byte) error {
		h, payload, err := codec.DecodeFrame(data, blockMagic, blockVersion)
		if err != nil {
			return err
		}
		if Kind(h.Flags) != ix.codec.kind() {
			return fmt.Errorf("block holds %s entries, index is %s", Kind(h.Flags), ix.codec.kind())
		}
		r := codec.NewReader(payload)
		count := int(r.Uint32())
		if count != b.size {
			return fmt.Errorf("block holds %d entries, expected %d", count, b.size)
		}
		entries, err = ix.codec.decode(r, count)
		return err
	}

	path := ix.blockPath(b)
	var err error
	if _, local := ix.fsys.(fs.LocalFS); local {
		err = mmap.ReadFile(path, decode)
	} else {
		var data []byte
		if data, err = fs.ReadFile(ix.fsys, path); err == nil {
			err = decode(data)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read block %d: %w", ErrStorage, b.id, err)
	}
	if entries == nil {
		entries = []signature.Entry{}
	}
	return entries, nil
}
