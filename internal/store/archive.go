package store

import "context"

// Archive persists chat traffic and matchmaking results for offline
// analysis. Writes are best-effort: the hub logs and continues on failure.
type Archive interface {
	// SaveMessage appends one broadcast chat line.
	SaveMessage(ctx context.Context, nick, text string) error

	// SaveMatch records a matchmaking pairing under a unique id.
	SaveMatch(ctx context.Context, id, nickA, nickB string) error

	// Close closes the underlying database.
	Close() error
}
