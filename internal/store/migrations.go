package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Migration struct {
	Version int
	UpSQL   string
	DownSQL string
}

var migrations = []Migration{
	{
		Version: 1,
		UpSQL: `
CREATE TABLE IF NOT EXISTS programs (
	program_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	repeat_count INTEGER NOT NULL DEFAULT 1 CHECK(repeat_count BETWEEN 1 AND 10),
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS intervals (
	program_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	interval_id TEXT NOT NULL,
	name TEXT NOT NULL,
	duration INTEGER NOT NULL CHECK(duration BETWEEN 30 AND 7200),
	incline REAL NOT NULL CHECK(incline BETWEEN 0 AND 15),
	speed REAL NOT NULL CHECK(speed BETWEEN 0.5 AND 20),
	PRIMARY KEY(program_id, position),
	FOREIGN KEY(program_id) REFERENCES programs(program_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS settings (
	settings_id INTEGER PRIMARY KEY CHECK(settings_id = 1),
	payload TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS history (
	record_id TEXT PRIMARY KEY,
	program_id TEXT NOT NULL,
	program_name TEXT NOT NULL,
	duration INTEGER NOT NULL CHECK(duration >= 0),
	calories INTEGER NOT NULL CHECK(calories >= 0),
	completed INTEGER NOT NULL DEFAULT 0,
	recorded_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS history_recorded_at
ON history(recorded_at);
`,
		DownSQL: `
DROP INDEX IF EXISTS history_recorded_at;
DROP TABLE IF EXISTS history;
DROP TABLE IF EXISTS settings;
DROP TABLE IF EXISTS intervals;
DROP TABLE IF EXISTS programs;
DELETE FROM schema_migrations WHERE version = 1;
`,
	},
}

func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations(version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ?`, m.Version).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("apply migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, applied_at) VALUES (?, datetime('now'))`, m.Version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

func RollbackAll(ctx context.Context, db *sql.DB) error {
	for i := len(migrations) - 1; i >= 0; i-- {
		m := migrations[i]
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin rollback tx %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.DownSQL); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("rollback migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit rollback %d: %w", m.Version, err)
		}
	}
	return nil
}
