// Package sqlite opens a file-backed warehouse sink on the pure Go sqlite
// driver. It is the default sink for local runs.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"fmcgsim/internal/sink"
)

var placeholderRe = regexp.MustCompile(`\$\d+`)

const defaultPath = "fmcgsim.db"

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Open creates or opens the sqlite warehouse at path and ensures the star
// schema exists.
func Open(ctx context.Context, path string) (*sink.DB, error) {
	if path == "" {
		path = defaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	openMu.Lock()
	db, err := sqlOpen("sqlite", path)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := sink.NewDB(db, sink.Dialect{
		Name:        "sqlite",
		TableExists: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = $1`,
		// The sqlite driver binds ? positionally; $N is rewritten on the way in.
		Rebind: func(q string) string { return placeholderRe.ReplaceAllString(q, "?") },
	})
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
