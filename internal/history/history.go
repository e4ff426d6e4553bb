// Package history persists one row per build so the development server can
// show recent build outcomes (/api/builds) across its lifetime.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/sitegen/internal/build"
)

// Row is one recorded build.
type Row struct {
	ID          int64     `json:"id"`
	BuildID     string    `json:"build_id"`
	Started     time.Time `json:"started"`
	DurationMS  int64     `json:"duration_ms"`
	Pages       int       `json:"pages"`
	Assets      int       `json:"assets"`
	Success     bool      `json:"success"`
	FailedStage string    `json:"failed_stage,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Store is a SQLite-backed build log.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the history database. An empty path keeps the log
// in memory, scoped to the server process.
func Open(path string) (*Store, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// One connection: every pool connection to ":memory:" would otherwise get
	// its own empty database, and file mode avoids SQLITE_BUSY under writes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		started INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		assets INTEGER NOT NULL,
		success INTEGER NOT NULL,
		failed_stage TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one build outcome. buildErr is nil for successful builds.
func (s *Store) Record(ctx context.Context, res *build.Result, buildErr error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	success := 0
	errMsg := ""
	if buildErr == nil {
		success = 1
	} else {
		errMsg = buildErr.Error()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (build_id, started, duration_ms, pages, assets, success, failed_stage, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		res.BuildID, res.Started.Unix(), res.Duration.Milliseconds(), res.Pages, res.Assets, success, res.FailedStage, errMsg,
	)
	if err != nil {
		return fmt.Errorf("insert build row: %w", err)
	}
	return nil
}

// Recent returns the newest builds first, at most limit rows.
func (s *Store) Recent(ctx context.Context, limit int) ([]Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, build_id, started, duration_ms, pages, assets, success, failed_stage, error FROM builds ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		var r Row
		var started int64
		var success int
		if err := rows.Scan(&r.ID, &r.BuildID, &started, &r.DurationMS, &r.Pages, &r.Assets, &success, &r.FailedStage, &r.Error); err != nil {
			return nil, fmt.Errorf("scan build row: %w", err)
		}
		r.Started = time.Unix(started, 0).UTC()
		r.Success = success == 1
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate build rows: %w", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
