package cache

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hupe1980/lshdb/internal/resource"
)

// Evictable is a cache slot that can drop its contents.
type Evictable interface {
	Evict()
}

// Key identifies one block of one index.
type Key struct {
	Owner uint64
	Block int
}

type resident struct {
	slot Evictable
	size int64
}

var owners atomic.Uint64

// NewOwner returns a process-unique owner id for Key.Owner.
func NewOwner() uint64 {
	return owners.Add(1)
}

// Residency tracks loaded slots in LRU order. A nil *Residency admits
// everything and never evicts.
type Residency struct {
	// mu serializes admissions so a key is reserved at most once.
	mu        sync.Mutex
	lru       *lru.Cache[Key, resident]
	rc        *resource.Controller
	evictions atomic.Int64
}

// NewResidency keeps at most maxBlocks slots loaded and reserves their
// sizes from rc. maxBlocks <= 0 returns nil.
func NewResidency(maxBlocks int, rc *resource.Controller) (*Residency, error) {
	if maxBlocks <= 0 {
		return nil, nil
	}
	r := &Residency{rc: rc}
	c, err := lru.NewWithEvict(maxBlocks, r.onEvict)
	if err != nil {
		return nil, err
	}
	r.lru = c
	return r, nil
}

func (r *Residency) onEvict(_ Key, v resident) {
	r.evictions.Add(1)
	r.rc.ReleaseMemory(v.size)
	v.slot.Evict()
}

// Admit registers a freshly loaded slot of the given size. It returns false
// when memory could not be reserved even after evicting every other slot;
// the caller must then drop the slot's contents itself.
// Callers must not hold the slot's lock.
func (r *Residency) Admit(key Key, size int64, slot Evictable) bool {
	if r == nil {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.lru.Peek(key); ok {
		// Re-admission of a live slot whose contents changed size.
		delta := size - old.size
		if delta > 0 && !r.reserve(delta, key) {
			r.lru.Remove(key)
			return false
		}
		if delta < 0 {
			r.rc.ReleaseMemory(-delta)
		}
		r.lru.Add(key, resident{slot: slot, size: size})
		return true
	}
	if !r.reserve(size, key) {
		return false
	}
	r.lru.Add(key, resident{slot: slot, size: size})
	return true
}

func (r *Residency) reserve(size int64, self Key) bool {
	for !r.rc.TryAcquireMemory(size) {
		k, _, ok := r.lru.GetOldest()
		if !ok || (k == self && r.lru.Len() == 1) {
			return false
		}
		if k == self {
			// Never evict the slot being admitted; age it instead.
			r.lru.Get(k)
			continue
		}
		r.lru.Remove(k)
	}
	return true
}

// Touch marks a slot as recently used.
func (r *Residency) Touch(key Key) {
	if r == nil {
		return
	}
	r.lru.Get(key)
}

// Remove evicts one slot.
func (r *Residency) Remove(key Key) {
	if r == nil {
		return
	}
	r.lru.Remove(key)
}

// RemoveOwner evicts every slot of one index.
func (r *Residency) RemoveOwner(owner uint64) {
	if r == nil {
		return
	}
	for _, k := range r.lru.Keys() {
		if k.Owner == owner {
			r.lru.Remove(k)
		}
	}
}

// Len returns the number of resident slots.
func (r *Residency) Len() int {
	if r == nil {
		return 0
	}
	return r.lru.Len()
}

// Evictions returns how many slots were evicted so far.
func (r *Residency) Evictions() int64 {
	if r == nil {
		return 0
	}
	return r.evictions.Load()
}
