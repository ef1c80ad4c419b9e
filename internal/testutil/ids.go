package testutil

import (
	"fmt"
	"sync"
)

// SeqIDs generates readable sequential identifiers ("id-0001", "id-0002", ...).
//
// Sequential ids keep golden traces byte-stable across runs and make the
// lexicographic pair ordering of conversations predictable in tests.
//
// Thread-safety: NewID is safe for concurrent use.
type SeqIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSeqIDs creates a generator. An empty prefix defaults to "id".
func NewSeqIDs(prefix string) *SeqIDs {
	if prefix == "" {
		prefix = "id"
	}
	return &SeqIDs{prefix: prefix}
}

// NewID returns the next identifier.
func (g *SeqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
