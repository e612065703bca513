package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Sessions() SessionStore
}

// SessionStore is the append-only log of completed session lengths.
// Writers only append; readers only aggregate. Sessions shorter than
// one minute never reach the store (callers discard them first).
type SessionStore interface {
	// AppendSession inserts one completed session record. The write is
	// atomic: either the full record lands or nothing does.
	AppendSession(ctx context.Context, playerID string, lengthMinutes int64) error

	// TodayTotalFor sums the persisted minutes for one player on the
	// current calendar day. Returns 0 when the player has no records.
	TodayTotalFor(ctx context.Context, playerID string) (int64, error)

	// TodayTotalsAll returns the per-player persisted minute totals for
	// the current calendar day, keyed by player ID.
	TodayTotalsAll(ctx context.Context) (map[string]int64, error)
}
