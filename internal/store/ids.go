package store

import "github.com/google/uuid"

// IDGenerator produces values for fields generated as UUIDs.
type IDGenerator interface {
	NewID() (uuid.UUID, error)
}

// UUIDv7Generator generates time-sortable UUIDv7 values.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewID returns a fresh UUIDv7.
func (UUIDv7Generator) NewID() (uuid.UUID, error) {
	return uuid.NewV7()
}

// WithIDGenerator replaces the UUIDv7 generator, e.g. with a deterministic
// one in tests.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Store) { s.ids = g }
}
