package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"lumber-tickets/internal/models"
)

// Open opens (creating if necessary) the SQLite database at path and returns
// a bun handle over it. The pool is capped at one connection: SQLite allows a
// single writer at a time and serializing all access through one connection
// keeps PRAGMA state consistent.
func Open(path string) (*bun.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	sqldb.SetMaxOpenConns(1)

	if _, err := sqldb.Exec("PRAGMA foreign_keys = ON"); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// OpenInMemory opens a private in-memory database, used by tests.
func OpenInMemory() (*bun.DB, error) {
	return Open(":memory:")
}

// InitSchema creates the tickets and ticket_items tables if they do not
// already exist. Deleting a ticket cascades to its items.
func InitSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*models.Ticket)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create tickets table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*models.TicketItem)(nil)).
		IfNotExists().
		ForeignKey(`("ticket_id") REFERENCES "tickets" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create ticket_items table: %w", err)
	}

	return nil
}
