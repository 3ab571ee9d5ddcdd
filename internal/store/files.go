package store

import (
	"database/sql"
	"fmt"
	"time"
)

// GetFile retrieves one file record, or nil when not tracked
func (db *DB) GetFile(path string) (*File, error) {
	row := db.QueryRow(`
		SELECT path, language, hash, mtime, role, line_count, indexed_at
		FROM files WHERE path = ?
	`, path)

	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return f, nil
}

// AllFiles retrieves every tracked file record
func (db *DB) AllFiles() ([]File, error) {
	rows, err := db.Query(`
		SELECT path, language, hash, mtime, role, line_count, indexed_at
		FROM files ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var files []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// FileCount returns the number of tracked files
func (db *DB) FileCount() int {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM files`).Scan(&count); err != nil {
		return 0
	}
	return count
}

// HasIndex reports whether anything has been indexed yet
func (db *DB) HasIndex() bool {
	return db.FileCount() > 0
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFile(r rowScanner) (*File, error) {
	var f File
	var indexedAt int64
	var role string
	if err := r.Scan(&f.Path, &f.Language, &f.Hash, &f.Mtime, &role, &f.LineCount, &indexedAt); err != nil {
		return nil, err
	}
	f.Role = FileRole(role)
	f.IndexedAt = time.Unix(indexedAt, 0)
	return &f, nil
}

func upsertFileTx(tx *sql.Tx, f *File) error {
	_, err := tx.Exec(`
		INSERT INTO files (path, language, hash, mtime, role, line_count, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			language = excluded.language,
			hash = excluded.hash,
			mtime = excluded.mtime,
			role = excluded.role,
			line_count = excluded.line_count,
			indexed_at = excluded.indexed_at
	`, f.Path, f.Language, f.Hash, f.Mtime, string(f.Role), f.LineCount, f.IndexedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert file %s: %w", f.Path, err)
	}
	return nil
}

func deleteFileTx(tx *sql.Tx, path string) error {
	// Symbol and edge rows follow via ON DELETE CASCADE; edges owned by
	// other files that targeted this file's symbols cascade away too,
	// which is what keeps the no-dangling-edges invariant.
	if _, err := tx.Exec(`DELETE FROM metrics WHERE owner_kind = 'file' AND owner_id = ?`, path); err != nil {
		return fmt.Errorf("failed to delete file metrics: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM metrics WHERE owner_kind = 'symbol' AND owner_id IN (SELECT id FROM symbols WHERE file_path = ?)`, path); err != nil {
		return fmt.Errorf("failed to delete symbol metrics: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}
	return nil
}
