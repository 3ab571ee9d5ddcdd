package store

import (
	"database/sql"
	"fmt"
)

// Schema evolution is additive only: the provenance column on edges is
// load-bearing for incremental correctness and must survive every migration.
const currentSchemaVersion = 1

func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}
		if err := createFilesTable(tx); err != nil {
			return err
		}
		if err := createSymbolsTable(tx); err != nil {
			return err
		}
		if err := createEdgesTable(tx); err != nil {
			return err
		}
		if err := createMetricsTable(tx); err != nil {
			return err
		}
		if err := createMetaTable(tx); err != nil {
			return err
		}
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})
		return nil
	})
}

func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}
	if version == currentSchemaVersion {
		return nil
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported %d", version, currentSchemaVersion)
	}

	db.logger.Info("Running database migrations", map[string]interface{}{
		"from_version": version,
		"to_version":   currentSchemaVersion,
	})

	// Migrations are added here as the schema evolves. Each must be
	// additive: new tables or new nullable columns only.
	return nil
}

func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

func createFilesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			language TEXT NOT NULL DEFAULT '',
			hash TEXT NOT NULL DEFAULT '',
			mtime INTEGER NOT NULL DEFAULT 0,
			role TEXT NOT NULL DEFAULT 'source',
			line_count INTEGER NOT NULL DEFAULT 0,
			indexed_at INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create files table: %w", err)
	}
	return nil
}

func createSymbolsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS symbols (
			id TEXT PRIMARY KEY,
			file_path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
			name TEXT NOT NULL,
			qualified_name TEXT NOT NULL,
			kind TEXT NOT NULL,
			signature TEXT NOT NULL DEFAULT '',
			line_start INTEGER NOT NULL DEFAULT 0,
			line_end INTEGER NOT NULL DEFAULT 0,
			visibility TEXT NOT NULL DEFAULT 'public'
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create symbols table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_path)",
		"CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)",
		"CREATE INDEX IF NOT EXISTS idx_symbols_qualified ON symbols(qualified_name)",
		"CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func createEdgesTable(tx *sql.Tx) error {
	// source/target cascade keeps the no-dangling-edges invariant when a
	// symbol disappears; provenance cascade removes a deleted file's own
	// edges. Unresolved references persist with a NULL target plus the
	// ambiguous candidate count.
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS edges (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_symbol_id TEXT REFERENCES symbols(id) ON DELETE CASCADE,
			source_file TEXT NOT NULL,
			target_symbol_id TEXT REFERENCES symbols(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			origin TEXT NOT NULL DEFAULT 'lexical',
			confidence REAL NOT NULL DEFAULT 1.0,
			candidates INTEGER NOT NULL DEFAULT 0,
			provenance TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
			line INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create edges table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_symbol_id)",
		"CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target_symbol_id)",
		"CREATE INDEX IF NOT EXISTS idx_edges_provenance ON edges(provenance)",
		"CREATE INDEX IF NOT EXISTS idx_edges_kind ON edges(kind)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func createMetricsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS metrics (
			owner_kind TEXT NOT NULL CHECK(owner_kind IN ('symbol', 'file')),
			owner_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			value REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (owner_kind, owner_id, kind)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create metrics table: %w", err)
	}

	if _, err := tx.Exec(
		"CREATE INDEX IF NOT EXISTS idx_metrics_kind_value ON metrics(kind, value DESC)",
	); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

func createMetaTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create meta table: %w", err)
	}
	return nil
}
