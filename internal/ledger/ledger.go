// Package ledger records generation runs in a SQLite database under
// the .weld work directory. The history is advisory: recording
// failures never fail a run, and WELD_NO_LEDGER disables it entirely.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/weldkit/weld/internal/config"
	"github.com/weldkit/weld/internal/ledger/migrations"
)

// Run outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Run is one recorded generation run.
type Run struct {
	ID           string
	ManifestPath string
	Fingerprint  string
	Outcome      string
	Diagnostics  int
	Files        int
	CreatedAt    time.Time
}

// Store persists run history in SQLite.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the ledger location for a manifest directory.
func DefaultPath(dir string) string {
	return filepath.Join(dir, config.WorkDirName, config.LedgerFileName)
}

// Open opens the ledger database, creating its directory and applying
// embedded migrations as needed.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping ledger db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts one run and returns its ID, generating one when the
// run carries none.
func (s *Store) Record(ctx context.Context, run Run) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == nil || s.db == nil {
		return "", fmt.Errorf("ledger is not configured")
	}
	id := strings.TrimSpace(run.ID)
	if id == "" {
		id = uuid.NewString()
	}
	outcome := run.Outcome
	if outcome == "" {
		outcome = OutcomeOK
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
		   id,
		   manifest_path,
		   fingerprint,
		   outcome,
		   diagnostics,
		   files,
		   created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		run.ManifestPath,
		run.Fingerprint,
		outcome,
		run.Diagnostics,
		run.Files,
		toMillis(createdAt),
	)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return id, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("ledger is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, manifest_path, fingerprint, outcome, diagnostics, files, created_at
		   FROM runs
		  ORDER BY created_at DESC, id ASC
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
		var createdAt int64
		if err := rows.Scan(
			&run.ID,
			&run.ManifestPath,
			&run.Fingerprint,
			&run.Outcome,
			&run.Diagnostics,
			&run.Files,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		run.CreatedAt = fromMillis(createdAt)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
