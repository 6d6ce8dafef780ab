package profile

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/domain"
)

// Service loads questionnaires and manages profile assessments
type Service struct {
	repo           *Repository
	questionnaires *QuestionnaireRepository
	log            zerolog.Logger
}

// NewService creates a new profile service
func NewService(repo *Repository, questionnaires *QuestionnaireRepository, log zerolog.Logger) *Service {
	return &Service{
		repo:           repo,
		questionnaires: questionnaires,
		log:            log.With().Str("service", "profile").Logger(),
	}
}

// Questionnaire returns the active risk questionnaire. The stored definition
// wins over the embedded default so deployments can adjust wording; the
// embedded copy is seeded on first use.
func (s *Service) Questionnaire() (*Questionnaire, error) {
	embedded, err := DefaultQuestionnaire()
	if err != nil {
		return nil, err
	}

	if s.questionnaires != nil {
		if err := s.questionnaires.Seed(embedded.Name, defaultQuestionnaireYAML); err != nil {
			s.log.Warn().Err(err).Msg("Failed to seed questionnaire, using embedded copy")
			return embedded, nil
		}
		if stored, err := s.questionnaires.Get(embedded.Name); err == nil {
			if parsed, err := ParseQuestionnaire(stored); err == nil {
				return parsed, nil
			}
			s.log.Warn().Msg("Stored questionnaire is invalid, using embedded copy")
		}
	}

	return embedded, nil
}

// SubmitRiskAssessment scores the answers and persists the resulting risk
// profile
func (s *Service) SubmitRiskAssessment(userID string, answers map[string]int) (*domain.RiskProfile, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}

	questionnaire, err := s.Questionnaire()
	if err != nil {
		return nil, err
	}

	level, tolerance, raw, err := questionnaire.Score(answers)
	if err != nil {
		return nil, err
	}

	profile := &domain.RiskProfile{
		UserID:         userID,
		Level:          level,
		ToleranceScore: tolerance,
		RawScore:       raw,
		Answers:        answers,
	}

	if err := s.repo.UpsertRiskProfile(profile); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("level", string(level)).
		Float64("tolerance", tolerance).
		Msg("Risk assessment stored")

	return s.repo.GetRiskProfile(userID)
}

// GetRiskProfile returns a user's stored risk profile, ErrNotFound when the
// questionnaire was never submitted
func (s *Service) GetRiskProfile(userID string) (*domain.RiskProfile, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	return s.repo.GetRiskProfile(userID)
}

// UpsertFinancialProfile validates and stores a user's financial ratios. An
// empty type label is filled in from the ratios.
func (s *Service) UpsertFinancialProfile(p domain.FinancialProfile) (*domain.FinancialProfile, error) {
	if p.UserID == "" {
		p.UserID = domain.DefaultUserID
	}
	if err := validateRatios(&p); err != nil {
		return nil, err
	}
	if p.Type == "" {
		p.Type = Classify(p)
	}

	if err := s.repo.UpsertFinancialProfile(&p); err != nil {
		return nil, err
	}

	return s.repo.GetFinancialProfile(p.UserID)
}

// GetFinancialProfile returns a user's stored financial profile
func (s *Service) GetFinancialProfile(userID string) (*domain.FinancialProfile, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	return s.repo.GetFinancialProfile(userID)
}

// Classify suggests a profile label from the ratios. Stress markers win over
// strength markers.
func Classify(p domain.FinancialProfile) string {
	switch {
	case p.DebtIncomeRatio > 0.5:
		return "over_leveraged"
	case p.SurplusRatio < 0.1:
		return "tight_budget"
	case p.LiquidityRatio < 3:
		return "thin_buffer"
	case p.SurplusRatio >= 0.3 && p.LiquidityRatio >= 6:
		return "strong_saver"
	default:
		return "steady"
	}
}

func validateRatios(p *domain.FinancialProfile) error {
	if p.AssetLiabilityRatio < 0 {
		return fmt.Errorf("asset liability ratio cannot be negative, got %v", p.AssetLiabilityRatio)
	}
	if p.DebtIncomeRatio < 0 {
		return fmt.Errorf("debt income ratio cannot be negative, got %v", p.DebtIncomeRatio)
	}
	if p.SurplusRatio < -1 || p.SurplusRatio > 1 {
		return fmt.Errorf("surplus ratio must be within [-1, 1], got %v", p.SurplusRatio)
	}
	if p.LiquidityRatio < 0 {
		return fmt.Errorf("liquidity ratio cannot be negative, got %v", p.LiquidityRatio)
	}
	return nil
}
