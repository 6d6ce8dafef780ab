package recommendation

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/utils"
)

// ErrNotFound is returned when no recommendation exists
var ErrNotFound = errors.New("recommendation not found")

// Recommendation is a persisted allocation run
type Recommendation struct {
	ID        string           `json:"id"` // uuid
	UserID    string           `json:"user_id"`
	RiskLevel domain.RiskLevel `json:"risk_level"`
	Positions []Position       `json:"positions"`
	Fallback  bool             `json:"fallback"`
	CreatedAt time.Time        `json:"created_at"`
}

// Repository persists recommendations in the advisor database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new recommendation repository
func NewRepository(advisorDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  advisorDB,
		log: log.With().Str("repo", "recommendations").Logger(),
	}
}

// Insert stores a finished recommendation
func (r *Repository) Insert(rec *Recommendation) error {
	positionsJSON, err := json.Marshal(rec.Positions)
	if err != nil {
		return fmt.Errorf("failed to encode positions: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO recommendations (id, user_id, risk_level, positions, fallback)
		VALUES (?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.UserID,
		string(rec.RiskLevel),
		string(positionsJSON),
		boolToInt(rec.Fallback),
	)
	if err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}

	return nil
}

// Latest returns a user's most recent recommendation
func (r *Repository) Latest(userID string) (*Recommendation, error) {
	row := r.db.QueryRow(`
		SELECT id, user_id, risk_level, positions, fallback, created_at
		FROM recommendations
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, userID)

	rec, err := scanRecommendation(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest recommendation: %w", err)
	}

	return rec, nil
}

// History returns a user's recommendations, newest first
func (r *Repository) History(userID string, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, user_id, risk_level, positions, fallback, created_at
		FROM recommendations
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	var list []Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		list = append(list, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recommendations: %w", err)
	}

	return list, nil
}

// DeleteOlderThan removes recommendations created before the cutoff (SQLite
// datetime string), returning the number of rows removed
func (r *Repository) DeleteOlderThan(cutoff string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM recommendations WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune recommendations: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned recommendations: %w", err)
	}

	return affected, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecommendation(row rowScanner) (*Recommendation, error) {
	var rec Recommendation
	var riskLevel, positionsJSON, createdAt string
	var fallback int

	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&riskLevel,
		&positionsJSON,
		&fallback,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	rec.RiskLevel = domain.RiskLevel(riskLevel)
	rec.Fallback = fallback != 0
	rec.CreatedAt = utils.ParseSQLiteTime(createdAt)
	if err := json.Unmarshal([]byte(positionsJSON), &rec.Positions); err != nil {
		return nil, fmt.Errorf("failed to decode positions: %w", err)
	}

	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
