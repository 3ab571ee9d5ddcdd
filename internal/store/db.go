// Package store persists the code graph: files, symbols, edges with
// provenance, and derived metrics. It is the single durable source of
// truth; everything else is reconstructable from it.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"strata/internal/logging"
)

// DB wraps the SQLite connection with transaction helpers
type DB struct {
	conn      *sql.DB
	logger    *logging.Logger
	dbPath    string
	chunkSize int
	retries   int
}

// Options tunes the store wrapper
type Options struct {
	ChunkSize     int // Max identifiers per bulk query (default 500)
	CommitRetries int // Retry budget when a write hits a locked database
}

// Open opens or creates the database at dbPath
func Open(dbPath string, opts Options, logger *logging.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	dbExists := fileExists(dbPath)

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-64000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 500
	}
	if opts.CommitRetries <= 0 {
		opts.CommitRetries = 5
	}

	db := &DB{
		conn:      conn,
		logger:    logger,
		dbPath:    dbPath,
		chunkSize: opts.ChunkSize,
		retries:   opts.CommitRetries,
	}

	if !dbExists {
		logger.Info("Creating new database", map[string]interface{}{"path": dbPath})
		if err := db.initializeSchema(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to initialize schema: %w", err)
		}
	} else {
		if err := db.runMigrations(); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.dbPath
}

// ChunkSize returns the bulk-query chunk threshold
func (db *DB) ChunkSize() int {
	return db.chunkSize
}

// WithTx executes fn inside a transaction. On error the transaction is
// rolled back whole; a locked database is retried with backoff up to the
// configured budget rather than waiting unboundedly.
func (db *DB) WithTx(fn func(*sql.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt <= db.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
		}

		tx, err := db.conn.Begin()
		if err != nil {
			if isBusy(err) {
				lastErr = err
				continue
			}
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				db.logger.Error("failed to rollback transaction", map[string]interface{}{
					"error":          err.Error(),
					"rollback_error": rbErr.Error(),
				})
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			if isBusy(err) {
				lastErr = err
				continue
			}
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil
	}
	return fmt.Errorf("transaction retry budget exhausted: %w", lastErr)
}

// Exec executes a statement without returning rows
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}

// chunks splits ids into slices of at most the configured chunk size.
// Every bulk lookup must go through this: a single query keyed by
// thousands of identifiers overflows SQLite's bound-variable limit.
func (db *DB) chunks(ids []string) [][]string {
	if len(ids) <= db.chunkSize {
		return [][]string{ids}
	}
	var out [][]string
	for start := 0; start < len(ids); start += db.chunkSize {
		end := start + db.chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}

// placeholders returns "?,?,...,?" for n bound variables
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
