// Package history keeps a local SQLite ledger of report runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nconklindev/jinreport/internal/types"

	_ "modernc.org/sqlite"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one recorded report generation.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	TemplatePath string
	OutputPath   string
	Templates    []string
	Status       Status
	Error        string
	Stats        types.Stats
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	started_at      INTEGER NOT NULL,
	finished_at     INTEGER NOT NULL,
	template_path   TEXT NOT NULL,
	output_path     TEXT NOT NULL DEFAULT '',
	templates       TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	error           TEXT NOT NULL DEFAULT '',
	product_rows    INTEGER NOT NULL DEFAULT 0,
	country_rows    INTEGER NOT NULL DEFAULT 0,
	matched_rows    INTEGER NOT NULL DEFAULT 0,
	zero_fallbacks  INTEGER NOT NULL DEFAULT 0,
	unresolved_refs INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at DESC);
`

// Store provides SQLite-backed persistence for run history.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Record inserts a finished run.
func (s *Store) Record(ctx context.Context, run Run) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	run.ID = strings.TrimSpace(run.ID)
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if run.Status != StatusSucceeded && run.Status != StatusFailed {
		return fmt.Errorf("invalid run status %q", run.Status)
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO runs (
			id, started_at, finished_at, template_path, output_path, templates, status, error,
			product_rows, country_rows, matched_rows, zero_fallbacks, unresolved_refs
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		timeToUnixMillis(run.StartedAt),
		timeToUnixMillis(run.FinishedAt),
		run.TemplatePath,
		run.OutputPath,
		strings.Join(run.Templates, ","),
		string(run.Status),
		run.Error,
		run.Stats.ProductRows,
		run.Stats.CountryRows,
		run.Stats.MatchedRows,
		run.Stats.ZeroFallbacks,
		run.Stats.UnresolvedRefs,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, started_at, finished_at, template_path, output_path, templates, status, error,
			product_rows, country_rows, matched_rows, zero_fallbacks, unresolved_refs
		 FROM runs
		 ORDER BY started_at DESC, id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt, finishedAt int64
		var templates, status string
		if err := rows.Scan(
			&run.ID,
			&startedAt,
			&finishedAt,
			&run.TemplatePath,
			&run.OutputPath,
			&templates,
			&status,
			&run.Error,
			&run.Stats.ProductRows,
			&run.Stats.CountryRows,
			&run.Stats.MatchedRows,
			&run.Stats.ZeroFallbacks,
			&run.Stats.UnresolvedRefs,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = unixMillisToTime(startedAt)
		run.FinishedAt = unixMillisToTime(finishedAt)
		run.Status = Status(status)
		if templates != "" {
			run.Templates = strings.Split(templates, ",")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func timeToUnixMillis(value time.Time) int64 {
	if value.IsZero() {
		return 0
	}
	return value.UTC().UnixMilli()
}

func unixMillisToTime(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}
