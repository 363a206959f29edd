package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDs issues "<prefix>-0001", "<prefix>-0002", ... in order.
//
// The same test with a fresh SequenceIDs always assigns the same ids, which
// keeps golden output stable.
//
// Thread-safety: all methods are safe for concurrent use.
type SequenceIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDs creates a generator. An empty prefix defaults to "id".
func NewSequenceIDs(prefix string) *SequenceIDs {
	if prefix == "" {
		prefix = "id"
	}
	return &SequenceIDs{prefix: prefix}
}

// NewID returns the next id in the sequence.
func (g *SequenceIDs) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n), nil
}

// FailingIDs always fails, for exercising id generation errors.
type FailingIDs struct {
	Err error
}

// NewID returns g.Err.
func (g FailingIDs) NewID() (string, error) {
	return "", g.Err
}
