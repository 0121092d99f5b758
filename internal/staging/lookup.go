package staging

import (
	"sync"

	"github.com/tidwall/btree"

	"github.com/hupe1980/lshdb/internal/signature"
)

// SignatureIndex maps element ids to their canonical entries. Reference
// indexes resolve the ids they store through it.
type SignatureIndex struct {
	mu   sync.RWMutex
	tree btree.Map[int32, signature.Entry]
}

// NewSignatureIndex returns an empty index.
func NewSignatureIndex() *SignatureIndex {
	return &SignatureIndex{}
}

// Put stores e under its id, replacing any previous entry.
func (ix *SignatureIndex) Put(e signature.Entry) {
	ix.mu.Lock()
	ix.tree.Set(e.ID, e)
	ix.mu.Unlock()
}

// Lookup returns the entry stored for id.
func (ix *SignatureIndex) Lookup(id int32) (signature.Entry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tree.Get(id)
}

// Len returns the number of ids.
func (ix *SignatureIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.tree.Len()
}

