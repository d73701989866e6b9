// Package store is the persistent relational index over Files and
// Sections: schema, FTS5 mirror, and the CRUD/search operations
// spec.md §4.8 names. Grounded on internal/storage/db.go's
// modernc.org/sqlite DSN pattern (WAL, busy_timeout, single-writer
// pool) and internal/memory/schema.go + index.go's FTS5 conventions.
package store

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/skill-split/skill-split/internal/store/migrations"
)

// DB wraps a *sql.DB configured for single-writer, multi-reader access
// over a skill-split index file.
type DB struct {
	*sql.DB
	path string
}

// Open creates the parent directory if needed, opens the database with
// WAL journaling and a generous busy timeout, and runs any pending
// migrations. It is idempotent: calling Open on an already-initialized
// path is safe.
func Open(path string) (*DB, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expand path: %w", err)
	}

	if dir := filepath.Dir(expanded); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", buildDSN(expanded))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows exactly one writer; keeping the pool small avoids
	// SQLITE_BUSY contention while WAL mode still lets readers proceed
	// concurrently with the single writer.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &DB{DB: db, path: expanded}, nil
}

func buildDSN(path string) string {
	v := url.Values{}
	v.Set("_pragma", "journal_mode=WAL")
	v.Add("_pragma", "foreign_keys=ON")
	v.Add("_pragma", "busy_timeout=30000")
	v.Add("_pragma", "synchronous=NORMAL")
	v.Add("_txlock", "immediate")
	return path + "?" + v.Encode()
}

func expandPath(path string) (string, error) {
	if path == "~" || (len(path) >= 2 && path[:2] == "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Path returns the filesystem path the store was opened with.
func (db *DB) Path() string { return db.path }

// Tx wraps a *sql.Tx so store methods can be called uniformly on both
// DB and Tx via the same receiver type where useful.
type Tx struct {
	*sql.Tx
}

// Begin starts a new transaction.
func (db *DB) Begin() (*Tx, error) {
	tx, err := db.DB.Begin()
	if err != nil {
		return nil, err
	}
	return &Tx{Tx: tx}, nil
}

// WithTx runs fn inside a transaction, committing on success and
// rolling back on any returned error, per spec.md §4.8's "on any error
// the transaction is rolled back" guarantee for store_file.
func (db *DB) WithTx(fn func(*Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
