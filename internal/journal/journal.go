// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal keeps a SQLite history of decryption runs.
//
// The journal is write-only from the point of view of a run: it is never
// consulted to skip files, so every run still processes every candidate.
// Passwords and password file paths are never stored.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kmorita/pdf-decrypt/internal/decrypt"
	"github.com/kmorita/pdf-decrypt/pkg/types"
)

// Run is one recorded invocation.
type Run struct {
	ID         int64
	InputDir   string
	OutputDir  string
	StartedAt  time.Time
	FinishedAt time.Time
	Decrypted  int
	Failed     int
}

// Store manages the journal database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the journal at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			input_dir TEXT NOT NULL,
			output_dir TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			decrypted INTEGER NOT NULL,
			failed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			file TEXT NOT NULL,
			status TEXT NOT NULL,
			detail TEXT,
			mode_warning TEXT,
			duration_ms INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_run_id ON outcomes(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a finished run and its per-file outcomes in one transaction
// and returns the new run ID.
func (s *Store) Record(ctx context.Context, cfg types.RunConfig, result decrypt.BatchResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning journal transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (input_dir, output_dir, started_at, finished_at, decrypted, failed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cfg.InputDir, cfg.OutputDir,
		result.StartedAt.Format(time.RFC3339Nano), result.FinishedAt.Format(time.RFC3339Nano),
		result.Decrypted, result.Failed,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO outcomes (run_id, file, status, detail, mode_warning, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range result.Outcomes {
		if _, err := stmt.ExecContext(ctx, runID, o.File, string(o.Status),
			nullString(o.Detail), nullString(o.ModeWarning), o.Duration.Milliseconds()); err != nil {
			return 0, fmt.Errorf("inserting outcome for %s: %w", o.File, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing journal: %w", err)
	}
	return runID, nil
}

// Runs returns the most recent runs, newest first. A limit of zero or less
// returns all runs.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, input_dir, output_dir, started_at, finished_at, decrypted, failed
		FROM runs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.InputDir, &r.OutputDir, &started, &finished, &r.Decrypted, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("scanning run %d: %w", r.ID, err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("scanning run %d: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Outcomes returns the per-file outcomes of one run in the order they were
// processed.
func (s *Store) Outcomes(ctx context.Context, runID int64) ([]types.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file, status, detail, mode_warning, duration_ms
		 FROM outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []types.Outcome
	for rows.Next() {
		var o types.Outcome
		var status string
		var detail, modeWarning sql.NullString
		var ms int64
		if err := rows.Scan(&o.File, &status, &detail, &modeWarning, &ms); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		o.Status = types.DecryptionStatus(status)
		o.Detail = detail.String
		o.ModeWarning = modeWarning.String
		o.Duration = time.Duration(ms) * time.Millisecond
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
