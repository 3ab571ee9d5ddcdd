package store

import (
	"database/sql"
	"fmt"
)

// PutMetrics upserts a batch of metric records in one transaction
func (db *DB) PutMetrics(metrics []Metric) error {
	if len(metrics) == 0 {
		return nil
	}
	return db.WithTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO metrics (owner_kind, owner_id, kind, value)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(owner_kind, owner_id, kind) DO UPDATE SET value = excluded.value
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare metric upsert: %w", err)
		}
		defer stmt.Close() //nolint:errcheck

		for _, m := range metrics {
			if _, err := stmt.Exec(string(m.Owner), m.OwnerID, string(m.Kind), m.Value); err != nil {
				return fmt.Errorf("failed to upsert metric %s/%s: %w", m.Kind, m.OwnerID, err)
			}
		}
		return nil
	})
}

// GetMetric reads one metric value; ok is false when it was never computed
func (db *DB) GetMetric(owner MetricOwner, ownerID string, kind MetricKind) (float64, bool, error) {
	var value float64
	err := db.QueryRow(
		`SELECT value FROM metrics WHERE owner_kind = ? AND owner_id = ? AND kind = ?`,
		string(owner), ownerID, string(kind)).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get metric: %w", err)
	}
	return value, true, nil
}

// MetricsForOwner returns all metrics recorded for one symbol or file
func (db *DB) MetricsForOwner(owner MetricOwner, ownerID string) (map[MetricKind]float64, error) {
	rows, err := db.Query(
		`SELECT kind, value FROM metrics WHERE owner_kind = ? AND owner_id = ?`,
		string(owner), ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	result := make(map[MetricKind]float64)
	for rows.Next() {
		var kind string
		var value float64
		if err := rows.Scan(&kind, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		result[MetricKind(kind)] = value
	}
	return result, rows.Err()
}

// TopByMetric returns the highest-valued owners of one metric kind
func (db *DB) TopByMetric(kind MetricKind, limit int) ([]Metric, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(
		`SELECT owner_kind, owner_id, kind, value FROM metrics WHERE kind = ? ORDER BY value DESC, owner_id LIMIT ?`,
		string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top metrics: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var metrics []Metric
	for rows.Next() {
		var m Metric
		var owner, mk string
		if err := rows.Scan(&owner, &m.OwnerID, &mk, &m.Value); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		m.Owner = MetricOwner(owner)
		m.Kind = MetricKind(mk)
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// AllMetricsOfKind loads a full metric column keyed by owner ID
func (db *DB) AllMetricsOfKind(owner MetricOwner, kind MetricKind) (map[string]float64, error) {
	rows, err := db.Query(
		`SELECT owner_id, value FROM metrics WHERE owner_kind = ? AND kind = ?`,
		string(owner), string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics of kind %s: %w", kind, err)
	}
	defer rows.Close() //nolint:errcheck

	result := make(map[string]float64)
	for rows.Next() {
		var id string
		var value float64
		if err := rows.Scan(&id, &value); err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		result[id] = value
	}
	return result, rows.Err()
}
