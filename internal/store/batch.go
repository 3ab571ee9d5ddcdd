package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	strataerrors "strata/internal/errors"
)

// FileUpdate carries one file's fresh extraction output
type FileUpdate struct {
	File    File
	Symbols []Symbol
	Edges   []Edge
}

// Batch is one atomic unit of index output. Either every update and
// deletion in it lands, or none do.
type Batch struct {
	Updates []FileUpdate
	Deleted []string // Paths to remove entirely
	RunID   string
	Partial bool // Partial re-index vs full
}

// ApplyBatch applies a batch inside a single transaction.
//
// Before touching anything it validates referential integrity: every
// resolved edge must point at a symbol that will exist after the batch
// commits. A batch that would leave a dangling edge is rejected whole
// with a STORE_INTEGRITY error rather than partially applied.
func (db *DB) ApplyBatch(batch *Batch) error {
	if err := db.validateBatch(batch); err != nil {
		return err
	}

	start := time.Now()
	err := db.WithTx(func(tx *sql.Tx) error {
		for _, path := range batch.Deleted {
			if err := deleteFileTx(tx, path); err != nil {
				return err
			}
		}

		// Symbols for every file land before any edges do, so edges may
		// target symbols introduced elsewhere in the same batch.
		for i := range batch.Updates {
			u := &batch.Updates[i]
			if err := upsertFileTx(tx, &u.File); err != nil {
				return err
			}
			if err := replaceSymbolsTx(tx, u.File.Path, u.Symbols); err != nil {
				return err
			}
		}
		for i := range batch.Updates {
			u := &batch.Updates[i]
			if err := replaceEdgesTx(tx, u.File.Path, u.Edges); err != nil {
				return err
			}
		}

		return writeBatchMetaTx(tx, batch)
	})
	if err != nil {
		return err
	}

	db.logger.Info("Applied index batch", map[string]interface{}{
		"files_updated": len(batch.Updates),
		"files_deleted": len(batch.Deleted),
		"duration_ms":   time.Since(start).Milliseconds(),
	})
	return nil
}

func writeBatchMetaTx(tx *sql.Tx, batch *Batch) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if batch.Partial {
		if err := setMetaTx(tx, MetaKeyIndexState, "partial"); err != nil {
			return err
		}
		if err := setMetaTx(tx, MetaKeyLastPartial, now); err != nil {
			return err
		}
	} else {
		if err := setMetaTx(tx, MetaKeyIndexState, "full"); err != nil {
			return err
		}
		if err := setMetaTx(tx, MetaKeyLastFull, now); err != nil {
			return err
		}
	}
	if batch.RunID != "" {
		if err := setMetaTx(tx, MetaKeyLastRunID, batch.RunID); err != nil {
			return err
		}
	}
	return nil
}

// validateBatch checks that every resolved edge target and every edge
// source will exist once the batch commits. Symbols belonging to files
// this batch replaces or deletes only count if the batch re-introduces
// them.
func (db *DB) validateBatch(batch *Batch) error {
	touched := make(map[string]bool, len(batch.Updates)+len(batch.Deleted))
	for _, u := range batch.Updates {
		touched[u.File.Path] = true
	}
	for _, p := range batch.Deleted {
		touched[p] = true
	}

	incoming := make(map[string]bool)
	for _, u := range batch.Updates {
		for _, s := range u.Symbols {
			incoming[s.ID] = true
		}
	}

	var unknown []string
	seen := make(map[string]bool)
	need := func(id string) {
		if id == "" || incoming[id] || seen[id] {
			return
		}
		seen[id] = true
		unknown = append(unknown, id)
	}
	for _, u := range batch.Updates {
		for _, e := range u.Edges {
			need(e.SourceSymbolID)
			need(e.TargetSymbolID)
		}
	}

	if len(unknown) == 0 {
		return nil
	}

	// Symbols already stored survive only if their owning file is not
	// replaced or deleted by this batch.
	surviving := make(map[string]bool, len(unknown))
	for _, chunk := range db.chunks(unknown) {
		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		rows, err := db.Query(
			"SELECT id, file_path FROM symbols WHERE id IN ("+placeholders(len(chunk))+")",
			args...)
		if err != nil {
			return fmt.Errorf("failed to validate batch: %w", err)
		}
		for rows.Next() {
			var id, path string
			if err := rows.Scan(&id, &path); err != nil {
				rows.Close() //nolint:errcheck
				return fmt.Errorf("failed to validate batch: %w", err)
			}
			if !touched[path] {
				surviving[id] = true
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close() //nolint:errcheck
			return fmt.Errorf("failed to validate batch: %w", err)
		}
		rows.Close() //nolint:errcheck
	}

	var missing []string
	for _, id := range unknown {
		if !surviving[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return strataerrors.Newf(strataerrors.StoreIntegrity,
			"batch references %d symbols that would not exist after commit", len(missing)).
			WithDetails(map[string]interface{}{
				"missing_count": len(missing),
				"sample":        sample(missing, 5),
			})
	}
	return nil
}

func sample(ids []string, n int) []string {
	if len(ids) <= n {
		return ids
	}
	return ids[:n]
}
