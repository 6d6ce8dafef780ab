package goals

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/utils"
)

// ErrNotFound is returned when a goal does not exist
var ErrNotFound = errors.New("goal not found")

const goalColumns = `id, user_id, name, goal_type, target_amount, current_amount, target_date, completed, created_at, updated_at`

const contributionColumns = `id, goal_id, amount, note, contributed_at`

// Repository handles savings goal persistence in the ledger database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new goals repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "goals").Logger(),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGoal(row rowScanner) (*Goal, error) {
	var g Goal
	var targetDate sql.NullString
	var completed int
	var createdAt, updatedAt string

	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.Name,
		&g.Type,
		&g.TargetAmount,
		&g.CurrentAmount,
		&targetDate,
		&completed,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	g.TargetDate = targetDate.String
	g.Completed = completed != 0
	g.CreatedAt = utils.ParseSQLiteTime(createdAt)
	g.UpdatedAt = utils.ParseSQLiteTime(updatedAt)

	return &g, nil
}

// Insert stores a new goal and fills in its generated ID
func (r *Repository) Insert(g *Goal) error {
	var targetDate interface{}
	if g.TargetDate != "" {
		targetDate = g.TargetDate
	}

	result, err := r.db.Exec(`
		INSERT INTO savings_goals (user_id, name, goal_type, target_amount, current_amount, target_date, completed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		g.UserID,
		g.Name,
		g.Type,
		g.TargetAmount,
		g.CurrentAmount,
		targetDate,
		boolToInt(g.Completed),
	)
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get goal id: %w", err)
	}
	g.ID = id

	return nil
}

// Get returns one goal by id
func (r *Repository) Get(id int64) (*Goal, error) {
	row := r.db.QueryRow(`SELECT `+goalColumns+` FROM savings_goals WHERE id = ?`, id)

	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}

	return g, nil
}

// Update rewrites a goal's editable fields
func (r *Repository) Update(g *Goal) error {
	var targetDate interface{}
	if g.TargetDate != "" {
		targetDate = g.TargetDate
	}

	result, err := r.db.Exec(`
		UPDATE savings_goals
		SET name = ?, goal_type = ?, target_amount = ?, target_date = ?, completed = ?, updated_at = datetime('now')
		WHERE id = ?
	`,
		g.Name,
		g.Type,
		g.TargetAmount,
		targetDate,
		boolToInt(g.Completed),
		g.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
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

// Delete removes a goal and, via cascade, its contributions
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM savings_goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListByUser returns a user's goals, active ones first, newest first within
// each group
func (r *Repository) ListByUser(userID string) ([]Goal, error) {
	rows, err := r.db.Query(`
		SELECT `+goalColumns+`
		FROM savings_goals
		WHERE user_id = ?
		ORDER BY completed ASC, created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, *g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}

	return goals, nil
}

// ApplyContributionTx records a contribution and moves the goal's current
// amount in the same transaction
func (r *Repository) ApplyContributionTx(tx *sql.Tx, goalID int64, amount float64, note string, newAmount float64, completed bool) error {
	_, err := tx.Exec(`
		INSERT INTO goal_contributions (goal_id, amount, note)
		VALUES (?, ?, ?)
	`, goalID, amount, note)
	if err != nil {
		return fmt.Errorf("failed to insert contribution: %w", err)
	}

	result, err := tx.Exec(`
		UPDATE savings_goals
		SET current_amount = ?, completed = ?, updated_at = datetime('now')
		WHERE id = ?
	`, newAmount, boolToInt(completed), goalID)
	if err != nil {
		return fmt.Errorf("failed to update goal amount: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check goal update: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// ListContributions returns a goal's contributions, newest first
func (r *Repository) ListContributions(goalID int64, limit int) ([]Contribution, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT `+contributionColumns+`
		FROM goal_contributions
		WHERE goal_id = ?
		ORDER BY contributed_at DESC, id DESC
		LIMIT ?
	`, goalID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	defer rows.Close()

	var contributions []Contribution
	for rows.Next() {
		var c Contribution
		var contributedAt string
		if err := rows.Scan(&c.ID, &c.GoalID, &c.Amount, &c.Note, &contributedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		c.ContributedAt = utils.ParseSQLiteTime(contributedAt)
		contributions = append(contributions, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributions: %w", err)
	}

	return contributions, nil
}

// SumContributionsSince totals a user's contributions on or after the given
// datetime (SQLite format)
func (r *Repository) SumContributionsSince(userID, since string) (float64, error) {
	var total sql.NullFloat64
	err := r.db.QueryRow(`
		SELECT SUM(c.amount)
		FROM goal_contributions c
		JOIN savings_goals g ON g.id = c.goal_id
		WHERE g.user_id = ? AND c.contributed_at >= ?
	`, userID, since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum contributions: %w", err)
	}

	return total.Float64, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
