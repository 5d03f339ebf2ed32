package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

type Config struct {
	Path string // e.g. "./data/asamblea.db", or MemoryPath
	Env  string // "dev" | "prod"
}

// Open opens the SQLite database at cfg.Path and applies pending migrations.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Path == "" {
		cfg.Path = "./data/asamblea.db"
	}
	if cfg.Env == "" {
		cfg.Env = "dev"
	}

	if cfg.Path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", DSN(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	// One connection: writes are serialized by Worker anyway, and an
	// in-memory database only exists on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	if _, err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// DSN builds the modernc.org/sqlite DSN with the per-connection PRAGMAs the
// stores rely on. Cascading deletes need foreign_keys on.
func DSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		path,
	)
}
