package index

import (
	"fmt"

	"github.com/hupe1980/lshdb/internal/codec"
	"github.com/hupe1980/lshdb/internal/compress"
	"github.com/hupe1980/lshdb/internal/signature"
)

// Meta is the persisted shape of an index: everything except block
// contents, which stay in their files.
type Meta struct {
	Kind        Kind
	Words       int
	Capacity    int
	Compression compress.Type
	NextID      int
	Count       int
	// Blocks lists the chain in order.
	Blocks []BlockMeta
}

// BlockMeta describes one block.
type BlockMeta struct {
	ID       int
	Size     int
	StartKey signature.Signature
}

// Meta captures the index structure for recovery.
func (ix *Index) Meta() Meta {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	m := Meta{
		Kind:        ix.codec.kind(),
		Words:       ix.cfg.Words,
		Capacity:    ix.cfg.Capacity,
		Compression: ix.cfg.Compression,
		NextID:      ix.nextID,
		Count:       ix.count,
	}
	for cur := ix.head; cur != noBlock; cur = ix.blocks[cur].next {
		b := ix.blocks[cur]
		m.Blocks = append(m.Blocks, BlockMeta{ID: b.id, Size: b.size, StartKey: b.startKey.Clone()})
	}
	return m
}

// Open restores an index from m. Block files are verified to exist but
// are read lazily. Reference indexes need WithReference.
func Open(cfg Config, m Meta, opts ...Option) (*Index, error) {
	cfg.Words = m.Words
	cfg.Capacity = m.Capacity
	cfg.Compression = m.Compression
	ix, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if ix.codec.kind() != m.Kind {
		return nil, fmt.Errorf("index: recovered %s index opened as %s", m.Kind, ix.codec.kind())
	}

	count := 0
	for i, bm := range m.Blocks {
		if len(bm.StartKey) != m.Words {
			return nil, fmt.Errorf("%w: block %d start key has %d words", ErrStorage, bm.ID, len(bm.StartKey))
		}
		b := &block{id: bm.ID, size: bm.Size, startKey: bm.StartKey, prev: noBlock, next: noBlock}
		if _, err := ix.fsys.Stat(ix.blockPath(b)); err != nil {
			return nil, fmt.Errorf("%w: block %d: %w", ErrStorage, bm.ID, err)
		}
		ix.blocks = append(ix.blocks, b)
		if i == 0 {
			ix.head = 0
		} else {
			ix.linkAfter(i-1, i)
		}
		count += bm.Size
	}
	if count != m.Count {
		return nil, fmt.Errorf("%w: blocks hold %d entries, metadata says %d", ErrStorage, count, m.Count)
	}
	ix.count = count
	ix.nextID = m.NextID
	return ix, nil
}

// MarshalBinary encodes m.
func (m Meta) MarshalBinary() ([]byte, error) {
	w := codec.NewWriter(32 + len(m.Blocks)*(8+m.Words*8))
	w.Uint8(uint8(m.Kind))
	w.Uint32(uint32(m.Words))
	w.Uint32(uint32(m.Capacity))
	w.Uint8(uint8(m.Compression))
	w.Uint32(uint32(m.NextID))
	w.Uint64(uint64(m.Count))
	w.Uint32(uint32(len(m.Blocks)))
	for _, b := range m.Blocks {
		w.Uint32(uint32(b.ID))
		w.Uint32(uint32(b.Size))
		for _, word := range b.StartKey {
			w.Uint64(word)
		}
	}
	return w.Data(), nil
}

// UnmarshalBinary decodes the format written by MarshalBinary.
func (m *Meta) UnmarshalBinary(data []byte) error {
	r := codec.NewReader(data)
	out := Meta{
		Kind:        Kind(r.Uint8()),
		Words:       int(r.Uint32()),
		Capacity:    int(r.Uint32()),
		Compression: compress.Type(r.Uint8()),
		NextID:      int(r.Uint32()),
		Count:       int(r.Uint64()),
	}
	n := int(r.Uint32())
	if err := r.Err(); err != nil {
		return err
	}
	if n > r.Remaining()/8 {
		return fmt.Errorf("index: metadata claims %d blocks in %d bytes", n, r.Remaining())
	}
	out.Blocks = make([]BlockMeta, n)
	for i := range out.Blocks {
		b := BlockMeta{ID: int(r.Uint32()), Size: int(r.Uint32()), StartKey: make(signature.Signature, out.Words)}
		for j := range b.StartKey {
			b.StartKey[j] = r.Uint64()
		}
		out.Blocks[i] = b
	}
	if err := r.Err(); err != nil {
		return err
	}
	*m = out
	return nil
}
