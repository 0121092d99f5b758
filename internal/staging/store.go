package staging

import (
	"errors"
	"iter"
	"sync"

	"github.com/hupe1980/lshdb/internal/signature"
)

// ErrClosed is returned by Store after Close.
var ErrClosed = errors.New("staging: store closed")

// Store is an append-only buffer of signature entries. Store is safe for
// concurrent use; reading is not safe while writers are active.
type Store interface {
	// Store appends e.
	Store(e signature.Entry) error
	// Flush makes stored entries visible to readers.
	Flush() error
	// Close flushes and ends the write phase. Reading is still allowed.
	Close() error
	// All yields every stored entry in insertion order.
	All() iter.Seq2[signature.Entry, error]
	// Len returns the number of stored entries.
	Len() int
	// Clear drops every entry and any backing file.
	Clear() error
}

// BuildLookup indexes every entry of s by id.
func BuildLookup(s Store) (*SignatureIndex, error) {
	ix := NewSignatureIndex()
	for e, err := range s.All() {
		if err != nil {
			return nil, err
		}
		ix.Put(e)
	}
	return ix, nil
}

// MemoryStore keeps entries on the heap.
type MemoryStore struct {
	mu      sync.Mutex
	entries []signature.Entry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Store(e signature.Entry) error {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Flush() error { return nil }
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) All() iter.Seq2[signature.Entry, error] {
	return func(yield func(signature.Entry, error) bool) {
		s.mu.Lock()
		snapshot := s.entries[:len(s.entries):len(s.entries)]
		s.mu.Unlock()
		for _, e := range snapshot {
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
	return nil
}
