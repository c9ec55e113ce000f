package persistence

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // register sqlite driver
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
		thread_id    TEXT PRIMARY KEY,
		phone_number TEXT NOT NULL,
		contact_name TEXT NOT NULL DEFAULT '',
		last_message TEXT NOT NULL DEFAULT '',
		timestamp    INTEGER NOT NULL DEFAULT 0,
		unread       INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS messages (
		id        TEXT PRIMARY KEY,
		thread_id TEXT NOT NULL,
		body      TEXT NOT NULL DEFAULT '',
		address   TEXT NOT NULL DEFAULT '',
		date      INTEGER NOT NULL DEFAULT 0,
		direction INTEGER NOT NULL,
		is_read   INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_messages_thread_date ON messages(thread_id, date);`,
	`CREATE TABLE IF NOT EXISTS contacts (
		phone_number TEXT PRIMARY KEY,
		name         TEXT NOT NULL
	);`,
}

func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()

		return nil, err
	}

	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	return nil
}
