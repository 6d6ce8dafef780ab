package dashboard

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// SnapshotRepository persists msgpack-encoded dashboard summaries in the
// cache database. Everything here is regenerable from the ledger.
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("repo", "dashboard_snapshots").Logger(),
	}
}

// snapshotRow is a raw snapshot record before payload decoding
type snapshotRow struct {
	Date      string
	Payload   []byte
	CreatedAt string
}

// Save upserts the snapshot for one user and day
func (r *SnapshotRepository) Save(userID, date string, payload []byte) error {
	_, err := r.db.Exec(`
		INSERT INTO dashboard_snapshots (user_id, snapshot_date, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, snapshot_date) DO UPDATE SET
			payload = excluded.payload,
			created_at = datetime('now')`,
		userID, date, payload)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// ListSince returns snapshots on or after the given date, oldest first
func (r *SnapshotRepository) ListSince(userID, since string) ([]snapshotRow, error) {
	rows, err := r.db.Query(`
		SELECT snapshot_date, payload, created_at
		FROM dashboard_snapshots
		WHERE user_id = ? AND snapshot_date >= ?
		ORDER BY snapshot_date ASC`,
		userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []snapshotRow
	for rows.Next() {
		var row snapshotRow
		if err := rows.Scan(&row.Date, &row.Payload, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}

	return snapshots, nil
}

// DeleteBefore removes snapshots older than the given date and reports how
// many were removed
func (r *SnapshotRepository) DeleteBefore(cutoff string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM dashboard_snapshots WHERE snapshot_date < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete snapshots: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted snapshots: %w", err)
	}
	return deleted, nil
}
