// Package testutil provides deterministic helpers for store tests.
package testutil

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// SequentialIDs generates UUIDs from a monotonic counter.
//
// The n-th call returns 00000000-0000-7000-8000-<n as 12 hex digits>, so
// the same test produces the same ids on every run. The version and
// variant bits are those of a UUIDv7.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialIDs struct {
	mu  sync.Mutex
	seq uint64
}

// NewSequentialIDs creates a generator whose first id ends in 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// NewID returns the next id.
func (g *SequentialIDs) NewID() (uuid.UUID, error) {
	g.mu.Lock()
	g.seq++
	n := g.seq
	g.mu.Unlock()
	return SequentialID(n), nil
}

// Current returns the number of ids generated so far.
func (g *SequentialIDs) Current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. The next id ends in 1 again.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// SequentialID returns the n-th id of a SequentialIDs generator.
func SequentialID(n uint64) uuid.UUID {
	var id uuid.UUID
	id[6] = 0x70
	id[8] = 0x80
	var tail [8]byte
	binary.BigEndian.PutUint64(tail[:], n)
	copy(id[10:], tail[2:])
	return id
}

// FixedIDs returns predetermined ids in order.
type FixedIDs struct {
	mu  sync.Mutex
	ids []uuid.UUID
	idx int
}

// NewFixedIDs parses ids up front; it panics on a malformed id.
func NewFixedIDs(ids ...string) *FixedIDs {
	g := &FixedIDs{}
	for _, s := range ids {
		g.ids = append(g.ids, uuid.MustParse(s))
	}
	return g
}

// NewID returns the next predetermined id. Running out is an error so a
// test inserting more rows than planned fails loudly.
func (g *FixedIDs) NewID() (uuid.UUID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		return uuid.Nil, fmt.Errorf("fixed ids exhausted after %d", len(g.ids))
	}
	id := g.ids[g.idx]
	g.idx++
	return id, nil
}
