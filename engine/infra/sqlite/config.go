package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	memoryPath         = ":memory:"
	defaultBusyTimeout = 5 * time.Second
)

// Config captures the SQLite settings for the decision store.
type Config struct {
	// Path is the database file or ":memory:".
	Path string

	MaxOpenConns int

	// BusyTimeout configures PRAGMA busy_timeout.
	BusyTimeout time.Duration
}

func buildDSN(cfg *Config) (string, bool, error) {
	if cfg == nil || strings.TrimSpace(cfg.Path) == "" {
		return "", false, fmt.Errorf("sqlite: path is required")
	}
	if cfg.Path == memoryPath {
		return "file::memory:?cache=shared", true, nil
	}
	timeout := cfg.BusyTimeout
	if timeout <= 0 {
		timeout = defaultBusyTimeout
	}
	params := url.Values{}
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "foreign_keys(ON)")
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", timeout.Milliseconds()))
	return "file:" + cfg.Path + "?" + params.Encode(), false, nil
}

func applyBusyTimeout(ctx context.Context, db *sql.DB, cfg *Config) error {
	timeout := cfg.BusyTimeout
	if timeout <= 0 {
		timeout = defaultBusyTimeout
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", timeout.Milliseconds())); err != nil {
		return fmt.Errorf("sqlite: set busy timeout: %w", err)
	}
	return nil
}
