// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sqlite provides the embedded credential store backend.

It opens a modernc.org/sqlite database (pure Go, no cgo), applies the
connection pragmas every handle needs, and runs the schema migrations that are
compiled into the binary.

Architecture:

  - Single writer: the pool is capped at one connection, so concurrent writes
    queue inside database/sql instead of failing with SQLITE_BUSY.
  - Self-migrating: [Open] leaves the schema at the latest version.

It backs DATABASE_DRIVER=sqlite deployments and every repository test.
*/
package sqlite

import (
	stdctx "context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/taibuivan/secrets/internal/platform/migration"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	driverName  = "sqlite"
	pingTimeout = 2 * time.Second
)

// pragmas are applied to every connection through the DSN.
var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

// Open creates (if needed), configures and migrates the database at dsn.
//
// # Parameters
//   - context: Context for the initial ping.
//   - dsn: A file path or a "file:" URI.
//   - logger: Structured logger for store events.
func Open(context stdctx.Context, dsn string, logger *slog.Logger) (*sql.DB, error) {
	if path := filePath(dsn); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating database directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, withPragmas(dsn))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := Ping(context, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migration.RunUpSQLite(db, migrations, "migrations", logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("sqlite store opened", slog.String("dsn", dsn))
	return db, nil
}

// Ping verifies that the database handle is usable.
func Ping(context stdctx.Context, db *sql.DB) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("sqlite: ping failed: %w", err)
	}
	return nil
}

// withPragmas appends the connection pragmas as _pragma query parameters.
func withPragmas(dsn string) string {
	var builder strings.Builder
	builder.WriteString(dsn)

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	for _, pragma := range pragmas {
		name := pragma[:strings.Index(pragma, "(")]
		if strings.Contains(dsn, "_pragma="+name) {
			continue
		}
		builder.WriteString(separator)
		builder.WriteString("_pragma=")
		builder.WriteString(pragma)
		separator = "&"
	}

	return builder.String()
}

// filePath returns the on-disk path of dsn, or "" for in-memory databases.
func filePath(dsn string) string {
	path := strings.TrimPrefix(dsn, "file:")
	if index := strings.Index(path, "?"); index >= 0 {
		path = path[:index]
	}
	if path == "" || path == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	return path
}
