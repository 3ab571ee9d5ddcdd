package store

import (
	"database/sql"
	"fmt"
)

const edgeColumns = "id, source_symbol_id, source_file, target_symbol_id, kind, origin, confidence, candidates, provenance, line"

// EdgesForSymbol returns the edges touching a symbol in one direction
func (db *DB) EdgesForSymbol(symbolID string, dir Direction) ([]Edge, error) {
	column := "source_symbol_id"
	if dir == DirIn {
		column = "target_symbol_id"
	}
	rows, err := db.Query(
		"SELECT "+edgeColumns+" FROM edges WHERE "+column+" = ? ORDER BY id",
		symbolID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges for symbol: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	return collectEdges(rows)
}

// EdgesByProvenance returns every edge a file's indexing produced
func (db *DB) EdgesByProvenance(path string) ([]Edge, error) {
	rows, err := db.Query(
		"SELECT "+edgeColumns+" FROM edges WHERE provenance = ? ORDER BY id",
		path)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges by provenance: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	return collectEdges(rows)
}

// AllEdges loads every edge. The graph engine materializes views from this.
func (db *DB) AllEdges() ([]Edge, error) {
	rows, err := db.Query("SELECT " + edgeColumns + " FROM edges ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query all edges: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	return collectEdges(rows)
}

// ResolvedEdges loads only edges with a concrete target
func (db *DB) ResolvedEdges() ([]Edge, error) {
	rows, err := db.Query(
		"SELECT " + edgeColumns + " FROM edges WHERE target_symbol_id IS NOT NULL AND target_symbol_id != '' ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query resolved edges: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	return collectEdges(rows)
}

// EdgeCount returns the number of stored edges
func (db *DB) EdgeCount() int {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM edges`).Scan(&count); err != nil {
		return 0
	}
	return count
}

// UnresolvedCount returns how many recorded references lack a target
func (db *DB) UnresolvedCount() int {
	var count int
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM edges WHERE target_symbol_id IS NULL OR target_symbol_id = ''`,
	).Scan(&count); err != nil {
		return 0
	}
	return count
}

func collectEdges(rows *sql.Rows) ([]Edge, error) {
	var edges []Edge
	for rows.Next() {
		var e Edge
		var source, target sql.NullString
		if err := rows.Scan(&e.ID, &source, &e.SourceFile, &target, &e.Kind,
			&e.Origin, &e.Confidence, &e.Candidates, &e.Provenance, &e.Line); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		e.SourceSymbolID = source.String
		e.TargetSymbolID = target.String
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

// replaceEdgesTx deletes the edges a file previously produced and inserts
// the fresh set. Scoping the delete by provenance is what makes partial
// re-indexing safe: edges produced by other files are never touched.
func replaceEdgesTx(tx *sql.Tx, provenance string, edges []Edge) error {
	if _, err := tx.Exec(`DELETE FROM edges WHERE provenance = ?`, provenance); err != nil {
		return fmt.Errorf("failed to clear edges for %s: %w", provenance, err)
	}

	if len(edges) == 0 {
		return nil
	}

	stmt, err := tx.Prepare(`
		INSERT INTO edges (source_symbol_id, source_file, target_symbol_id, kind, origin, confidence, candidates, provenance, line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer stmt.Close() //nolint:errcheck

	for _, e := range edges {
		if _, err := stmt.Exec(nullable(e.SourceSymbolID), e.SourceFile, nullable(e.TargetSymbolID),
			string(e.Kind), string(e.Origin), e.Confidence, e.Candidates, provenance, e.Line); err != nil {
			return fmt.Errorf("failed to insert edge from %s: %w", e.SourceFile, err)
		}
	}
	return nil
}

// nullable maps the empty string to NULL so foreign keys stay satisfied
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
