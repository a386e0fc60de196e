// Package store persists programs, user settings and workout history in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lowaak/treadmill-timer/internal/config"
	"github.com/lowaak/treadmill-timer/internal/workout"
)

var ErrNotFound = errors.New("not found")

// HistoryRetention is how long workout records are kept
const HistoryRetention = 365 * 24 * time.Hour

type Store struct {
	db  *sql.DB
	now func() time.Time
}

// HistoryEntry is a saved workout record
type HistoryEntry struct {
	ID         string
	RecordedAt time.Time
	workout.Record
}

func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil && !errors.Is(err, os.ErrNotExist) {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("chmod db path: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// SetClock replaces the time source used for timestamps and retention
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// SeedDefaultPrograms fills an empty program table with the built-in programs.
// It reports whether anything was written.
func (s *Store) SeedDefaultPrograms(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM programs`).Scan(&count); err != nil {
		return false, fmt.Errorf("count programs: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	for _, p := range workout.DefaultPrograms() {
		if err := s.SaveProgram(ctx, p); err != nil {
			return false, fmt.Errorf("seed %s: %w", p.ID, err)
		}
	}
	return true, nil
}

// ListPrograms returns every program ordered by position
func (s *Store) ListPrograms(ctx context.Context) ([]workout.Program, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT program_id, name, position, repeat_count
FROM programs
ORDER BY position, program_id`)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	var programs []workout.Program
	for rows.Next() {
		var p workout.Program
		if err := rows.Scan(&p.ID, &p.Name, &p.Position, &p.RepeatCount); err != nil {
			rows.Close() //nolint:errcheck
			return nil, fmt.Errorf("scan program: %w", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close() //nolint:errcheck
		return nil, fmt.Errorf("iterate programs: %w", err)
	}
	rows.Close() //nolint:errcheck

	for i := range programs {
		intervals, err := s.listIntervals(ctx, programs[i].ID)
		if err != nil {
			return nil, err
		}
		programs[i].Intervals = intervals
	}
	return programs, nil
}

func (s *Store) LoadProgram(ctx context.Context, programID string) (workout.Program, error) {
	var p workout.Program
	err := s.db.QueryRowContext(ctx, `
SELECT program_id, name, position, repeat_count
FROM programs
WHERE program_id = ?`, programID).Scan(&p.ID, &p.Name, &p.Position, &p.RepeatCount)
	if errors.Is(err, sql.ErrNoRows) {
		return workout.Program{}, fmt.Errorf("program %s: %w", programID, ErrNotFound)
	}
	if err != nil {
		return workout.Program{}, fmt.Errorf("load program: %w", err)
	}
	intervals, err := s.listIntervals(ctx, programID)
	if err != nil {
		return workout.Program{}, err
	}
	p.Intervals = intervals
	return p, nil
}

func (s *Store) listIntervals(ctx context.Context, programID string) ([]workout.Interval, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT interval_id, name, duration, incline, speed
FROM intervals
WHERE program_id = ?
ORDER BY position`, programID)
	if err != nil {
		return nil, fmt.Errorf("list intervals: %w", err)
	}
	defer rows.Close()

	intervals := []workout.Interval{}
	for rows.Next() {
		var in workout.Interval
		if err := rows.Scan(&in.ID, &in.Name, &in.Duration, &in.Incline, &in.Speed); err != nil {
			return nil, fmt.Errorf("scan interval: %w", err)
		}
		intervals = append(intervals, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intervals: %w", err)
	}
	return intervals, nil
}

// SaveProgram validates p and replaces the stored copy, intervals included
func (s *Store) SaveProgram(ctx context.Context, p workout.Program) error {
	if err := p.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save program: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
INSERT INTO programs(program_id, name, position, repeat_count, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(program_id) DO UPDATE SET
	name=excluded.name,
	position=excluded.position,
	repeat_count=excluded.repeat_count,
	updated_at=excluded.updated_at`,
		p.ID, p.Name, p.Position, p.RepeatCount, ts(s.now()))
	if err != nil {
		return fmt.Errorf("upsert program: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM intervals WHERE program_id = ?`, p.ID); err != nil {
		return fmt.Errorf("clear intervals: %w", err)
	}
	for i, in := range p.Intervals {
		_, err := tx.ExecContext(ctx, `
INSERT INTO intervals(program_id, position, interval_id, name, duration, incline, speed)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, i, in.ID, in.Name, in.Duration, in.Incline, in.Speed)
		if err != nil {
			return fmt.Errorf("insert interval %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save program: %w", err)
	}
	return nil
}

func (s *Store) DeleteProgram(ctx context.Context, programID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM programs WHERE program_id = ?`, programID)
	if err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("program %s: %w", programID, ErrNotFound)
	}
	return nil
}

// LoadSettings returns the saved settings, or the defaults when none were saved
func (s *Store) LoadSettings(ctx context.Context) (config.Settings, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM settings WHERE settings_id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return config.DefaultSettings(), nil
	}
	if err != nil {
		return config.DefaultSettings(), fmt.Errorf("load settings: %w", err)
	}
	return config.DecodeSettings([]byte(payload))
}

func (s *Store) SaveSettings(ctx context.Context, settings config.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	payload, err := settings.Encode()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO settings(settings_id, payload, updated_at)
VALUES (1, ?, ?)
ON CONFLICT(settings_id) DO UPDATE SET
	payload=excluded.payload,
	updated_at=excluded.updated_at`,
		string(payload), ts(s.now()))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// AppendWorkoutRecord stores rec and drops records past the retention window
func (s *Store) AppendWorkoutRecord(ctx context.Context, rec workout.Record) error {
	now := s.now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append record: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
INSERT INTO history(record_id, program_id, program_name, duration, calories, completed, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), rec.ProgramID, rec.ProgramName, rec.Duration, rec.Calories, boolToInt(rec.Completed), ts(now))
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE recorded_at < ?`, ts(now.Add(-HistoryRetention))); err != nil {
		return fmt.Errorf("purge history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append record: %w", err)
	}
	return nil
}

// ListWorkoutRecords returns the newest records first; limit <= 0 means all
func (s *Store) ListWorkoutRecords(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT record_id, program_id, program_name, duration, calories, completed, recorded_at
FROM history
ORDER BY recorded_at DESC, record_id
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			e          HistoryEntry
			completed  int
			recordedAt string
		)
		if err := rows.Scan(&e.ID, &e.ProgramID, &e.ProgramName, &e.Duration, &e.Calories, &completed, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		e.Completed = completed != 0
		if e.RecordedAt, err = parseTS(recordedAt); err != nil {
			return nil, fmt.Errorf("parse recorded_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return entries, nil
}

// tsLayout keeps a fixed-width fraction so stored timestamps sort as text
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

func ts(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
