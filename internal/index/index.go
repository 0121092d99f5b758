package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/lshdb/internal/cache"
	"github.com/hupe1980/lshdb/internal/compress"
	"github.com/hupe1980/lshdb/internal/fs"
	"github.com/hupe1980/lshdb/internal/permutation"
	"github.com/hupe1980/lshdb/internal/resource"
	"github.com/hupe1980/lshdb/internal/signature"
)

// LoadFactor is the share of block capacity filled by BulkLoad, leaving room
// for inserts before blocks split.
const LoadFactor = 0.75

// Config describes one index.
type Config struct {
	// Dir holds the block files.
	Dir string
	// Words is the signature length in 64-bit words.
	Words int
	// Capacity is the maximum number of entries per block. At least 2.
	Capacity int
	// Compression is applied to block payloads.
	Compression compress.Type
}

// Validate checks cfg.
func (cfg Config) Validate() error {
	if cfg.Dir == "" {
		return errors.New("index: directory is required")
	}
	if cfg.Words <= 0 {
		return fmt.Errorf("index: words must be positive, got %d", cfg.Words)
	}
	if cfg.Capacity < 2 {
		return fmt.Errorf("index: block capacity must be at least 2, got %d", cfg.Capacity)
	}
	return nil
}

// Option configures an Index.
type Option func(*Index)

// WithFileSystem sets the file system used for block files.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(ix *Index) { ix.fsys = fsys }
}

// WithResourceController throttles block writes.
func WithResourceController(rc *resource.Controller) Option {
	return func(ix *Index) { ix.rc = rc }
}

// WithResidency bounds the number of decoded blocks kept in memory.
func WithResidency(r *cache.Residency) Option {
	return func(ix *Index) { ix.residency = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Index) { ix.logger = l }
}

// WithReference makes the index store ids only. Signatures are resolved
// through lookup and permuted with perm.
func WithReference(lookup Lookup, perm permutation.Function) Option {
	return func(ix *Index) { ix.ref = &referenceCodec{lookup: lookup, perm: perm} }
}

// Index is a sorted chain of blocks.
type Index struct {
	cfg       Config
	fsys      fs.FileSystem
	rc        *resource.Controller
	residency *cache.Residency
	logger    *slog.Logger
	codec     entryCodec
	ref       *referenceCodec
	owner     uint64

	mu     sync.RWMutex
	blocks []*block // arena; nil marks a removed block
	head   int
	nextID int
	count  int

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates an empty index. Block files are written below cfg.Dir.
func New(cfg Config, opts ...Option) (*Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ix := &Index{
		cfg:    cfg,
		fsys:   fs.Default,
		logger: slog.Default(),
		head:   noBlock,
		owner:  cache.NewOwner(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.ref != nil {
		if ix.ref.lookup == nil || ix.ref.perm == nil {
			return nil, errors.New("index: reference index needs a lookup and a permutation")
		}
		ix.ref.words = cfg.Words
		ix.codec = *ix.ref
	} else {
		ix.codec = valueCodec{words: cfg.Words}
	}
	if err := ix.fsys.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", ErrStorage, cfg.Dir, err)
	}
	return ix, nil
}

// Kind reports the index variant.
func (ix *Index) Kind() Kind { return ix.codec.kind() }

// Len returns the number of entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.count
}

// Blocks returns the number of blocks in the chain.
func (ix *Index) Blocks() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n := 0
	for cur := ix.head; cur != noBlock; cur = ix.blocks[cur].next {
		n++
	}
	return n
}

// CacheStats returns block cache hits and misses.
func (ix *Index) CacheStats() (hits, misses int64) {
	return ix.hits.Load(), ix.misses.Load()
}

func (ix *Index) cacheKey(b *block) cache.Key {
	return cache.Key{Owner: ix.owner, Block: b.id}
}

// newBlock allocates an unlinked block.
func (ix *Index) newBlock() int {
	b := &block{id: ix.nextID, prev: noBlock, next: noBlock}
	ix.nextID++
	ix.blocks = append(ix.blocks, b)
	return len(ix.blocks) - 1
}

// linkAfter inserts the block at pos directly after the block at after.
func (ix *Index) linkAfter(after, pos int) {
	a, b := ix.blocks[after], ix.blocks[pos]
	b.prev = after
	b.next = a.next
	if a.next != noBlock {
		ix.blocks[a.next].prev = pos
	}
	a.next = pos
}

func (ix *Index) unlink(pos int) error {
	b := ix.blocks[pos]
	if b.prev != noBlock {
		ix.blocks[b.prev].next = b.next
	} else {
		ix.head = b.next
	}
	if b.next != noBlock {
		ix.blocks[b.next].prev = b.prev
	}
	ix.residency.Remove(ix.cacheKey(b))
	ix.blocks[pos] = nil
	if err := ix.fsys.Remove(ix.blockPath(b)); err != nil {
		return fmt.Errorf("%w: remove block %d: %w", ErrStorage, b.id, err)
	}
	return nil
}

// findBlock returns the arena position of the block that may hold key: the
// first block whose start key equals key, else the last block whose start
// key is smaller. It returns noBlock when every start key is greater.
func (ix *Index) findBlock(key signature.Signature) int {
	found := noBlock
	for cur := ix.head; cur != noBlock; cur = ix.blocks[cur].next {
		switch c := signature.Compare(key, ix.blocks[cur].startKey); {
		case c == 0:
			return cur
		case c > 0:
			found = cur
		default:
			return found
		}
	}
	return found
}

// BulkLoad replaces the index contents with sorted entries. Blocks are
// filled to LoadFactor of their capacity.
func (ix *Index) BulkLoad(ctx context.Context, entries []signature.Entry) error {
	for i, e := range entries {
		if err := ix.codec.validate(e); err != nil {
			return err
		}
		if i > 0 && signature.Compare(entries[i-1].Sig, e.Sig) > 0 {
			return fmt.Errorf("%w: position %d", ErrUnsorted, i)
		}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.reset(); err != nil {
		return err
	}

	perBlock := int(math.Ceil(LoadFactor * float64(ix.cfg.Capacity)))
	last := noBlock
	for off := 0; off < len(entries); off += perBlock {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(off+perBlock, len(entries))
		pos := ix.newBlock()
		if last == noBlock {
			ix.head = pos
		} else {
			ix.linkAfter(last, pos)
		}
		last = pos

		chunk := make([]signature.Entry, end-off)
		copy(chunk, entries[off:end])
		if err := ix.writeBlock(ctx, ix.blocks[pos], chunk); err != nil {
			return err
		}
		ix.count += len(chunk)
	}

	ix.logger.Debug("index bulk loaded",
		"dir", ix.cfg.Dir, "entries", len(entries), "blocks", len(ix.blocks), "kind", ix.codec.kind().String())
	return nil
}

// reset drops every block and its file.
func (ix *Index) reset() error {
	ix.residency.RemoveOwner(ix.owner)
	for _, b := range ix.blocks {
		if b == nil {
			continue
		}
		if err := ix.fsys.Remove(ix.blockPath(b)); err != nil {
			return fmt.Errorf("%w: remove block %d: %w", ErrStorage, b.id, err)
		}
	}
	ix.blocks = nil
	ix.head = noBlock
	ix.count = 0
	return nil
}

// Insert adds one entry. A full target block is split: the first
// len/2+1 entries stay, the rest move to a new block linked right after it.
func (ix *Index) Insert(ctx context.Context, e signature.Entry) error {
	if err := ix.codec.validate(e); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.head == noBlock {
		pos := ix.newBlock()
		ix.head = pos
		if err := ix.writeBlock(ctx, ix.blocks[pos], []signature.Entry{e}); err != nil {
			return err
		}
		ix.count++
		return nil
	}

	pos := ix.findBlock(e.Sig)
	if pos == noBlock {
		pos = ix.head
	}
	b := ix.blocks[pos]
	entries, err := ix.entries(b)
	if err != nil {
		return err
	}

	if len(entries) < ix.cfg.Capacity {
		if err := ix.writeBlock(ctx, b, insertSorted(entries, e)); err != nil {
			return err
		}
		ix.count++
		return nil
	}

	split := min(len(entries)/2+1, len(entries)-1)
	left := append([]signature.Entry(nil), entries[:split]...)
	right := append([]signature.Entry(nil), entries[split:]...)
	if signature.Compare(e.Sig, right[0].Sig) < 0 {
		left = insertSorted(left, e)
	} else {
		right = insertSorted(right, e)
	}

	npos := ix.newBlock()
	ix.linkAfter(pos, npos)
	nb := ix.blocks[npos]
	if err := ix.writeBlock(ctx, nb, right); err != nil {
		return err
	}
	if err := ix.writeBlock(ctx, b, left); err != nil {
		return err
	}
	ix.count++

	ix.logger.Debug("block split",
		"dir", ix.cfg.Dir, "block", b.id, "new_block", nb.id, "left", len(left), "right", len(right))
	return nil
}

// insertSorted returns a copy of entries with e placed after every entry
// whose signature is not greater.
func insertSorted(entries []signature.Entry, e signature.Entry) []signature.Entry {
	i := len(entries)
	for j, x := range entries {
		if signature.Compare(x.Sig, e.Sig) > 0 {
			i = j
			break
		}
	}
	out := make([]signature.Entry, 0, len(entries)+1)
	out = append(out, entries[:i]...)
	out = append(out, e)
	return append(out, entries[i:]...)
}

// Delete removes every entry whose signature equals key and returns how
// many were removed. Blocks that become empty are unlinked.
func (ix *Index) Delete(ctx context.Context, key signature.Signature) (int, error) {
	if ix.codec.resolves() {
		return 0, fmt.Errorf("%w: delete on %s index", ErrUnsupported, ix.codec.kind())
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	start := ix.findBlock(key)
	if start == noBlock {
		return 0, nil
	}
	// Equal keys may continue backwards across block boundaries.
	for prev := ix.blocks[start].prev; prev != noBlock; prev = ix.blocks[prev].prev {
		pe, err := ix.entries(ix.blocks[prev])
		if err != nil {
			return 0, err
		}
		if len(pe) == 0 || !pe[len(pe)-1].Sig.Equal(key) {
			break
		}
		start = prev
	}

	removed := 0
	for cur := start; cur != noBlock; {
		b := ix.blocks[cur]
		next := b.next
		if signature.Compare(b.startKey, key) > 0 {
			break
		}
		entries, err := ix.entries(b)
		if err != nil {
			return removed, err
		}
		retained := make([]signature.Entry, 0, len(entries))
		for _, x := range entries {
			if !x.Sig.Equal(key) {
				retained = append(retained, x)
			}
		}
		if n := len(entries) - len(retained); n > 0 {
			if len(retained) == 0 {
				if err := ix.unlink(cur); err != nil {
					return removed, err
				}
			} else if err := ix.writeBlock(ctx, b, retained); err != nil {
				return removed, err
			}
			removed += n
			ix.count -= n
		}
		cur = next
	}
	return removed, nil
}

// Get returns the id stored under key. Reference indexes hold ids only and
// fail with ErrUnsupported.
func (ix *Index) Get(key signature.Signature) (int32, error) {
	if ix.codec.resolves() {
		return 0, fmt.Errorf("%w: get on %s index", ErrUnsupported, ix.codec.kind())
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	pos := ix.findBlock(key)
	if pos == noBlock {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	entries, err := ix.entries(ix.blocks[pos])
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		switch c := signature.Compare(key, e.Sig); {
		case c == 0:
			return e.ID, nil
		case c < 0:
			return 0, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// BeamSearch returns up to radius entries on each side of key's position
// in sort order. Entries smaller than key are taken from the nearest
// blocks backwards, the others forwards.
func (ix *Index) BeamSearch(key signature.Signature, radius int) ([]signature.Entry, error) {
	if radius <= 0 {
		return nil, nil
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]signature.Entry, 0, 2*radius)
	smaller, greater := radius, radius
	prev, next := noBlock, noBlock

	if pos := ix.findBlock(key); pos == noBlock {
		next = ix.head
	} else {
		b := ix.blocks[pos]
		entries, err := ix.entries(b)
		if err != nil {
			return nil, err
		}
		center := 0
		for center < len(entries) && signature.Compare(key, entries[center].Sig) > 0 {
			center++
		}
		from := max(0, center-radius)
		to := min(len(entries), center+radius)
		out = append(out, entries[from:to]...)
		smaller -= center - from
		greater -= to - center
		prev, next = b.prev, b.next
	}

	for ; prev != noBlock && smaller > 0; prev = ix.blocks[prev].prev {
		entries, err := ix.entries(ix.blocks[prev])
		if err != nil {
			return nil, err
		}
		from := max(len(entries)-smaller, 0)
		out = append(out, entries[from:]...)
		smaller -= len(entries) - from
	}
	for ; next != noBlock && greater > 0; next = ix.blocks[next].next {
		entries, err := ix.entries(ix.blocks[next])
		if err != nil {
			return nil, err
		}
		to := min(len(entries), greater)
		out = append(out, entries[:to]...)
		greater -= to
	}
	return out, nil
}

// Ascend calls fn for every entry in sort order until fn returns false.
func (ix *Index) Ascend(fn func(signature.Entry) bool) error {
	if ix.codec.resolves() {
		return fmt.Errorf("%w: scan of %s index", ErrUnsupported, ix.codec.kind())
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for cur := ix.head; cur != noBlock; cur = ix.blocks[cur].next {
		entries, err := ix.entries(ix.blocks[cur])
		if err != nil {
			return err
		}
		for _, e := range entries {
			if !fn(e) {
				return nil
			}
		}
	}
	return nil
}

// EvictAll drops every cached block.
func (ix *Index) EvictAll() {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	ix.residency.RemoveOwner(ix.owner)
	for _, b := range ix.blocks {
		if b != nil {
			b.slot.Evict()
		}
	}
}

// Close releases cached blocks. Block files stay on disk.
func (ix *Index) Close() error {
	ix.EvictAll()
	return nil
}

// RemoveFiles deletes the index directory.
func (ix *Index) RemoveFiles() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.residency.RemoveOwner(ix.owner)
	ix.blocks = nil
	ix.head = noBlock
	ix.count = 0
	if err := ix.fsys.RemoveAll(ix.cfg.Dir); err != nil {
		return fmt.Errorf("%w: remove %s: %w", ErrStorage, ix.cfg.Dir, err)
	}
	return nil
}
