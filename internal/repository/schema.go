package repository

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS extract_run (
		id            TEXT PRIMARY KEY,
		source_path   TEXT NOT NULL,
		content_hash  TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL,
		pages         INTEGER NOT NULL DEFAULT 0,
		empty_pages   INTEGER NOT NULL DEFAULT 0,
		records       INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		started_at    TIMESTAMP NOT NULL,
		finished_at   TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS punch_record (
		run_id     TEXT NOT NULL REFERENCES extract_run(id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		punch_date TEXT NOT NULL,
		user_id    TEXT NOT NULL,
		name       TEXT NOT NULL,
		punch_time TEXT NOT NULL,
		direction  TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	)`,
	`CREATE INDEX IF NOT EXISTS punch_record_user_id_idx ON punch_record (user_id)`,
	`CREATE INDEX IF NOT EXISTS extract_run_started_at_idx ON extract_run (started_at)`,
}

// Migrate creates the run store tables if they do not exist.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.SQL.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	d.logger.Debug("database schema ready", "dialect", d.Dialect)
	return nil
}
