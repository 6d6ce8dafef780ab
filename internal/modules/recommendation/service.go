package recommendation

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/modules/profile"
)

// ProfileSource provides the stored risk assessment for a user
type ProfileSource interface {
	GetRiskProfile(userID string) (*domain.RiskProfile, error)
}

// ProductSource provides the investable catalog
type ProductSource interface {
	ListActive() ([]domain.Product, error)
}

// Service runs the allocation engine against live profiles and catalog data
// and persists the outcome
type Service struct {
	profiles ProfileSource
	products ProductSource
	repo     *Repository
	cfg      Config
	log      zerolog.Logger
}

// NewService creates a new recommendation service
func NewService(profiles ProfileSource, products ProductSource, repo *Repository, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		profiles: profiles,
		products: products,
		repo:     repo,
		cfg:      cfg,
		log:      log.With().Str("service", "recommendation").Logger(),
	}
}

// RecommendForUser loads the user's risk profile and the active catalog, runs
// the engine and stores the result. A user without a stored assessment gets
// the balanced defaults.
func (s *Service) RecommendForUser(userID string) (*Recommendation, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}

	prof, err := s.profiles.GetRiskProfile(userID)
	if errors.Is(err, profile.ErrNotFound) {
		s.log.Warn().Str("user_id", userID).Msg("No risk assessment on file, assuming balanced profile")
		prof = &domain.RiskProfile{
			UserID:         userID,
			Level:          domain.RiskLevelMedium,
			ToleranceScore: 50,
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load risk profile: %w", err)
	}

	list, err := s.products.ListActive()
	if err != nil {
		return nil, fmt.Errorf("failed to load product catalog: %w", err)
	}

	candidates := make([]Candidate, len(list))
	for i, p := range list {
		candidates[i] = Candidate{
			ID:             strconv.FormatInt(p.ID, 10),
			ExpectedReturn: p.ExpectedReturn,
			RiskScore:      p.RiskScore,
		}
	}

	result, err := Recommend(*prof, candidates, s.cfg)
	if err != nil {
		return nil, err
	}

	if result.Fallback {
		s.log.Warn().
			Str("user_id", userID).
			Str("level", string(prof.Level)).
			Msg("Risk band excluded all products, holding the lowest-risk one")
	}

	rec := &Recommendation{
		ID:        uuid.NewString(),
		UserID:    userID,
		RiskLevel: prof.Level,
		Positions: result.Positions,
		Fallback:  result.Fallback,
	}
	if err := s.repo.Insert(rec); err != nil {
		return nil, err
	}

	stored, err := s.repo.Latest(userID)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("level", string(prof.Level)).
		Int("positions", len(stored.Positions)).
		Bool("fallback", stored.Fallback).
		Msg("Recommendation stored")

	return stored, nil
}

// Latest returns a user's most recent stored recommendation
func (s *Service) Latest(userID string) (*Recommendation, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	return s.repo.Latest(userID)
}

// History returns a user's stored recommendations, newest first
func (s *Service) History(userID string, limit int) ([]Recommendation, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	return s.repo.History(userID, limit)
}
