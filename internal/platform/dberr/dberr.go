// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr classifies driver errors from both credential store backends
// into three outcomes: missing row, unique violation, or everything else.
package dberr

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Kind is the storage-independent class of a database error.
type Kind int

const (
	// KindNone means err was nil.
	KindNone Kind = iota
	// KindNotFound means the query matched no row.
	KindNotFound
	// KindUniqueViolation means a unique constraint rejected the write.
	KindUniqueViolation
	// KindUnavailable covers connectivity, timeouts and every unclassified failure.
	KindUnavailable
)

// Classify inspects a pgx or database/sql error and returns its [Kind].
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	// 1. Not Found mapping
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return KindNotFound
	}

	// 2. PostgreSQL SQLSTATE 23505
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return KindUniqueViolation
	}

	// 3. SQLite extended result code, with the message as a fallback for
	// errors that were re-wrapped as plain strings by database/sql.
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return KindUniqueViolation
		}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return KindUniqueViolation
	}

	return KindUnavailable
}
