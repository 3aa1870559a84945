package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteSchema is the authoritative ticket schema for the embedded store.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS tickets (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    ticket_id   TEXT NOT NULL UNIQUE,
    created_at  TEXT NOT NULL,
    user_query  TEXT NOT NULL DEFAULT '',
    category    TEXT NOT NULL DEFAULT 'Other',
    urgency     TEXT NOT NULL DEFAULT 'Low',
    solution    TEXT NOT NULL DEFAULT '',
    department  TEXT NOT NULL DEFAULT 'General Support',
    status      TEXT NOT NULL DEFAULT 'Resolved',
    resolved_by TEXT NOT NULL DEFAULT 'AI',
    confidence  REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_tickets_created_at ON tickets (created_at);
`

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema. ":memory:" is accepted for tests.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps writes serialized and keeps ":memory:" to one database.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, SQLiteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("opened sqlite ticket store", zap.String("path", path))
	return db, nil
}
