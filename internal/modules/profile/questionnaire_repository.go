package profile

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// QuestionnaireRepository caches questionnaire definitions in the catalog
// database so deployments can override the embedded default.
type QuestionnaireRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewQuestionnaireRepository creates a new questionnaire repository
func NewQuestionnaireRepository(catalogDB *sql.DB, log zerolog.Logger) *QuestionnaireRepository {
	return &QuestionnaireRepository{
		db:  catalogDB,
		log: log.With().Str("repo", "questionnaires").Logger(),
	}
}

// Seed stores a questionnaire definition if none with the same name exists
func (r *QuestionnaireRepository) Seed(name string, definition []byte) error {
	_, err := r.db.Exec(`
		INSERT INTO questionnaires (name, definition)
		VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, string(definition))
	if err != nil {
		return fmt.Errorf("failed to seed questionnaire %q: %w", name, err)
	}

	return nil
}

// Get returns a stored questionnaire definition by name
func (r *QuestionnaireRepository) Get(name string) ([]byte, error) {
	var definition string
	err := r.db.QueryRow(`SELECT definition FROM questionnaires WHERE name = ?`, name).Scan(&definition)
	if err == sql.ErrNoRows {
		return nil, errors.New("questionnaire not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get questionnaire %q: %w", name, err)
	}

	return []byte(definition), nil
}
