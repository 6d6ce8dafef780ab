// Package profile manages financial profiles and risk assessments.
package profile

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/utils"
)

// ErrNotFound is returned when a user has no stored profile
var ErrNotFound = errors.New("profile not found")

// Repository persists financial and risk profiles in the advisor database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new profile repository
func NewRepository(advisorDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  advisorDB,
		log: log.With().Str("repo", "profile").Logger(),
	}
}

// UpsertFinancialProfile stores or replaces a user's financial ratios
func (r *Repository) UpsertFinancialProfile(p *domain.FinancialProfile) error {
	_, err := r.db.Exec(`
		INSERT INTO financial_profiles (user_id, asset_liability_ratio, debt_income_ratio, surplus_ratio, liquidity_ratio, profile_type, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(user_id) DO UPDATE SET
			asset_liability_ratio = excluded.asset_liability_ratio,
			debt_income_ratio = excluded.debt_income_ratio,
			surplus_ratio = excluded.surplus_ratio,
			liquidity_ratio = excluded.liquidity_ratio,
			profile_type = excluded.profile_type,
			updated_at = datetime('now')
	`,
		p.UserID,
		p.AssetLiabilityRatio,
		p.DebtIncomeRatio,
		p.SurplusRatio,
		p.LiquidityRatio,
		p.Type,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert financial profile: %w", err)
	}

	return nil
}

// GetFinancialProfile returns a user's financial profile
func (r *Repository) GetFinancialProfile(userID string) (*domain.FinancialProfile, error) {
	var p domain.FinancialProfile
	var updatedAt string

	err := r.db.QueryRow(`
		SELECT user_id, asset_liability_ratio, debt_income_ratio, surplus_ratio, liquidity_ratio, profile_type, updated_at
		FROM financial_profiles
		WHERE user_id = ?
	`, userID).Scan(
		&p.UserID,
		&p.AssetLiabilityRatio,
		&p.DebtIncomeRatio,
		&p.SurplusRatio,
		&p.LiquidityRatio,
		&p.Type,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get financial profile: %w", err)
	}

	p.UpdatedAt = utils.ParseSQLiteTime(updatedAt)
	return &p, nil
}

// UpsertRiskProfile stores or replaces a user's risk assessment result
func (r *Repository) UpsertRiskProfile(p *domain.RiskProfile) error {
	answersJSON, err := json.Marshal(p.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO risk_profiles (user_id, risk_level, tolerance_score, raw_score, answers, assessed_at)
		VALUES (?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(user_id) DO UPDATE SET
			risk_level = excluded.risk_level,
			tolerance_score = excluded.tolerance_score,
			raw_score = excluded.raw_score,
			answers = excluded.answers,
			assessed_at = datetime('now')
	`,
		p.UserID,
		string(p.Level),
		p.ToleranceScore,
		p.RawScore,
		string(answersJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert risk profile: %w", err)
	}

	return nil
}

// GetRiskProfile returns a user's latest risk assessment
func (r *Repository) GetRiskProfile(userID string) (*domain.RiskProfile, error) {
	var p domain.RiskProfile
	var level, answersJSON, assessedAt string

	err := r.db.QueryRow(`
		SELECT user_id, risk_level, tolerance_score, raw_score, answers, assessed_at
		FROM risk_profiles
		WHERE user_id = ?
	`, userID).Scan(
		&p.UserID,
		&level,
		&p.ToleranceScore,
		&p.RawScore,
		&answersJSON,
		&assessedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get risk profile: %w", err)
	}

	p.Level = domain.RiskLevel(level)
	p.AssessedAt = utils.ParseSQLiteTime(assessedAt)
	if answersJSON != "" {
		if err := json.Unmarshal([]byte(answersJSON), &p.Answers); err != nil {
			r.log.Warn().Err(err).Str("user_id", userID).Msg("Failed to decode stored answers")
		}
	}

	return &p, nil
}
