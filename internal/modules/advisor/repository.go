package advisor

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/utils"
)

// ErrNotFound is returned when an advice record does not exist
var ErrNotFound = errors.New("advice not found")

const adviceColumns = "id, user_id, kind, content, context, read, created_at"

// Repository persists generated advice in the advisor database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new advice repository
func NewRepository(advisorDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  advisorDB,
		log: log.With().Str("repo", "advice").Logger(),
	}
}

// Insert stores a new advice record
func (r *Repository) Insert(a *domain.Advice) error {
	ctxMap := a.Context
	if ctxMap == nil {
		ctxMap = map[string]string{}
	}
	contextJSON, err := json.Marshal(ctxMap)
	if err != nil {
		return fmt.Errorf("failed to encode advice context: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO advice (id, user_id, kind, content, context)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.UserID, string(a.Kind), a.Content, string(contextJSON))
	if err != nil {
		return fmt.Errorf("failed to insert advice: %w", err)
	}
	return nil
}

// Get returns one advice record by id
func (r *Repository) Get(id string) (*domain.Advice, error) {
	row := r.db.QueryRow(`SELECT `+adviceColumns+` FROM advice WHERE id = ?`, id)
	a, err := r.scanAdvice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get advice: %w", err)
	}
	return a, nil
}

// List returns a user's advice, newest first
func (r *Repository) List(userID string, limit int) ([]domain.Advice, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(`
		SELECT `+adviceColumns+`
		FROM advice
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list advice: %w", err)
	}
	defer rows.Close()

	var advice []domain.Advice
	for rows.Next() {
		a, err := r.scanAdvice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan advice: %w", err)
		}
		advice = append(advice, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate advice: %w", err)
	}

	return advice, nil
}

// MarkRead flags one advice record as read
func (r *Repository) MarkRead(id string) error {
	result, err := r.db.Exec(`UPDATE advice SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark advice read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOlderThan removes advice created before the cutoff and reports how
// many rows were removed
func (r *Repository) DeleteOlderThan(cutoff string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM advice WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old advice: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted advice: %w", err)
	}
	return deleted, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *Repository) scanAdvice(row rowScanner) (*domain.Advice, error) {
	var (
		a           domain.Advice
		kind        string
		contextJSON string
		read        int
		createdAt   string
	)

	if err := row.Scan(&a.ID, &a.UserID, &kind, &a.Content, &contextJSON, &read, &createdAt); err != nil {
		return nil, err
	}

	a.Kind = domain.AdviceKind(kind)
	a.Read = read != 0
	a.CreatedAt = utils.ParseSQLiteTime(createdAt)
	if contextJSON != "" && contextJSON != "{}" {
		if err := json.Unmarshal([]byte(contextJSON), &a.Context); err != nil {
			r.log.Warn().Err(err).Str("id", a.ID).Msg("Failed to decode advice context")
		}
	}

	return &a, nil
}
