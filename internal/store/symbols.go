package store

import (
	"database/sql"
	"fmt"
)

const symbolColumns = "id, file_path, name, qualified_name, kind, signature, line_start, line_end, visibility"

// GetSymbol retrieves one symbol by ID, or nil when absent
func (db *DB) GetSymbol(id string) (*Symbol, error) {
	row := db.QueryRow(
		"SELECT "+symbolColumns+" FROM symbols WHERE id = ?", id)
	s, err := scanSymbol(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get symbol: %w", err)
	}
	return s, nil
}

// FindSymbolsByName finds symbols whose name or qualified name matches
// exactly. Results are ordered by qualified name for determinism.
func (db *DB) FindSymbolsByName(name string) ([]Symbol, error) {
	rows, err := db.Query(
		"SELECT "+symbolColumns+" FROM symbols WHERE name = ? OR qualified_name = ? ORDER BY qualified_name, file_path",
		name, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols by name: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	return collectSymbols(rows)
}

// SearchSymbols finds symbols by substring match, bounded by limit
func (db *DB) SearchSymbols(pattern string, limit int) ([]Symbol, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(
		"SELECT "+symbolColumns+" FROM symbols WHERE name LIKE ? OR qualified_name LIKE ? ORDER BY qualified_name LIMIT ?",
		"%"+pattern+"%", "%"+pattern+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search symbols: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	return collectSymbols(rows)
}

// SymbolsForFile returns a file's symbols ordered by position.
// This is the file skeleton shape consumed by the query layer.
func (db *DB) SymbolsForFile(path string) ([]Symbol, error) {
	rows, err := db.Query(
		"SELECT "+symbolColumns+" FROM symbols WHERE file_path = ? ORDER BY line_start, qualified_name",
		path)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols for file: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	return collectSymbols(rows)
}

// SymbolsByIDs bulk-loads symbols, chunking the ID list so no single
// query exceeds the bound-variable threshold.
func (db *DB) SymbolsByIDs(ids []string) (map[string]Symbol, error) {
	result := make(map[string]Symbol, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	for _, chunk := range db.chunks(ids) {
		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		rows, err := db.Query(
			"SELECT "+symbolColumns+" FROM symbols WHERE id IN ("+placeholders(len(chunk))+")",
			args...)
		if err != nil {
			return nil, fmt.Errorf("failed to bulk-load symbols: %w", err)
		}
		syms, err := collectSymbols(rows)
		rows.Close() //nolint:errcheck
		if err != nil {
			return nil, err
		}
		for _, s := range syms {
			result[s.ID] = s
		}
	}
	return result, nil
}

// AllSymbols loads every symbol. Used to build the resolver's symbol table.
func (db *DB) AllSymbols() ([]Symbol, error) {
	rows, err := db.Query("SELECT " + symbolColumns + " FROM symbols ORDER BY file_path, line_start")
	if err != nil {
		return nil, fmt.Errorf("failed to query all symbols: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	return collectSymbols(rows)
}

// SymbolCount returns the number of stored symbols
func (db *DB) SymbolCount() int {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM symbols`).Scan(&count); err != nil {
		return 0
	}
	return count
}

func scanSymbol(r rowScanner) (*Symbol, error) {
	var s Symbol
	if err := r.Scan(&s.ID, &s.FilePath, &s.Name, &s.QualifiedName, &s.Kind,
		&s.Signature, &s.LineStart, &s.LineEnd, &s.Visibility); err != nil {
		return nil, err
	}
	return &s, nil
}

func collectSymbols(rows *sql.Rows) ([]Symbol, error) {
	var symbols []Symbol
	for rows.Next() {
		s, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, *s)
	}
	return symbols, rows.Err()
}

func replaceSymbolsTx(tx *sql.Tx, path string, symbols []Symbol) error {
	// Surviving identities are updated in place and only vanished ones
	// deleted. Deleting a re-introduced ID would fire the edge cascade
	// and silently drop foreign edges that still point at it.
	incoming := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		incoming[s.ID] = true
	}

	rows, err := tx.Query(`SELECT id FROM symbols WHERE file_path = ?`, path)
	if err != nil {
		return fmt.Errorf("failed to list symbols for %s: %w", path, err)
	}
	var vanished []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close() //nolint:errcheck
			return fmt.Errorf("failed to scan symbol id: %w", err)
		}
		if !incoming[id] {
			vanished = append(vanished, id)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close() //nolint:errcheck
		return fmt.Errorf("failed to list symbols for %s: %w", path, err)
	}
	rows.Close() //nolint:errcheck

	for _, id := range vanished {
		if _, err := tx.Exec(`DELETE FROM metrics WHERE owner_kind = 'symbol' AND owner_id = ?`, id); err != nil {
			return fmt.Errorf("failed to clear symbol metrics for %s: %w", path, err)
		}
		if _, err := tx.Exec(`DELETE FROM symbols WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete vanished symbol: %w", err)
		}
	}

	if len(symbols) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`
		INSERT INTO symbols (id, file_path, name, qualified_name, kind, signature, line_start, line_end, visibility)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			file_path = excluded.file_path,
			name = excluded.name,
			qualified_name = excluded.qualified_name,
			kind = excluded.kind,
			signature = excluded.signature,
			line_start = excluded.line_start,
			line_end = excluded.line_end,
			visibility = excluded.visibility
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare symbol upsert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for _, s := range symbols {
		if _, err := stmt.Exec(s.ID, s.FilePath, s.Name, s.QualifiedName, s.Kind,
			s.Signature, s.LineStart, s.LineEnd, s.Visibility); err != nil {
			return fmt.Errorf("failed to upsert symbol %s: %w", s.QualifiedName, err)
		}
	}
	return nil
}
