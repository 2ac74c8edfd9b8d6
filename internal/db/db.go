// Package db is the SQLite backend for the cohort variant and coverage
// stores.
package db

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/cohort-tiering/internal/cohort"
)

type DB struct {
	*sqlx.DB
}

// pragmas are per-connection settings. They travel in the DSN so the
// driver applies them to every connection the pool opens.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
	"foreign_keys(ON)",
}

// dsn turns a path into a URI filename carrying the connection PRAGMAs.
func dsn(path string) string {
	// URI filenames have to begin with 'file:'.
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	q := url.Values{"_pragma": pragmas}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// Open connects to the SQLite database at path with the connection PRAGMAs
// applied. The schema is not touched; call MigrateUp for that.
func Open(path string) (*DB, error) {
	db, err := sqlx.Connect("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &DB{db}, nil
}

// OpenMigrated opens the database and brings its schema to the latest
// version.
func OpenMigrated(path string) (*DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// classify maps a driver failure onto the store error kinds.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, cohort.ErrStoreTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", op, cohort.ErrStoreUnavailable, err)
}
