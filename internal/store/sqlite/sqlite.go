// Package sqlite implements store.Archive on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	nick       TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS matches (
	id         TEXT PRIMARY KEY,
	nick_a     TEXT NOT NULL,
	nick_b     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Archive is the SQLite-backed implementation of store.Archive.
type Archive struct {
	db *sql.DB
}

// New opens (or creates) the archive database at dbPath and applies the
// schema.
func New(dbPath string) (*Archive, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Archive{db: db}, nil
}

// SaveMessage appends one broadcast chat line.
func (a *Archive) SaveMessage(ctx context.Context, nick, text string) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO messages (nick, body) VALUES (?, ?)`, nick, text)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// SaveMatch records a matchmaking pairing.
func (a *Archive) SaveMatch(ctx context.Context, id, nickA, nickB string) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO matches (id, nick_a, nick_b) VALUES (?, ?, ?)`, id, nickA, nickB)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}
