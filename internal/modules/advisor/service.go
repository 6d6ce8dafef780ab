package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/clients/aiadvisor"
	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/modules/dashboard"
	"github.com/finsight/finsight/internal/modules/frontier"
	"github.com/finsight/finsight/internal/modules/profile"
	"github.com/finsight/finsight/internal/utils"
)

const (
	// DefaultStreamTimeout bounds one advice stream end to end
	DefaultStreamTimeout = 120 * time.Second

	// defaultPlanAmount sizes a plan when the user has no positive balance
	defaultPlanAmount = 10000

	chunkBuffer = 16
)

// ErrAssessmentRequired is returned by operations that cannot proceed
// without a stored risk assessment
var ErrAssessmentRequired = errors.New("risk assessment required")

// ChatClient is the slice of the AI chat upstream the advisor uses
type ChatClient interface {
	Enabled() bool
	Complete(ctx context.Context, req aiadvisor.ChatRequest) (string, error)
	StreamChat(ctx context.Context, req aiadvisor.ChatRequest, onChunk func(string) error) error
}

// DashboardSource provides the month summary prompts are grounded on
type DashboardSource interface {
	Summary(userID string, now time.Time) (*dashboard.Summary, error)
}

// ProfileSource provides stored user profiles. A missing profile is reported
// with profile.ErrNotFound
type ProfileSource interface {
	GetFinancialProfile(userID string) (*domain.FinancialProfile, error)
	GetRiskProfile(userID string) (*domain.RiskProfile, error)
}

// CatalogSource provides products matched to a risk level
type CatalogSource interface {
	RecommendedForLevel(level domain.RiskLevel) ([]domain.Product, error)
}

// PlanSource solves allocation plans for a risk tolerance
type PlanSource interface {
	PlanForTolerance(tolerance, amount float64) (*frontier.Plan, error)
}

// Config carries the advisor tunables
type Config struct {
	// StreamTimeout bounds one advice stream; zero means DefaultStreamTimeout
	StreamTimeout time.Duration
}

// Service generates advice text from live user data through the AI upstream
// and keeps the generated history
type Service struct {
	chat     ChatClient
	dash     DashboardSource
	profiles ProfileSource
	catalog  CatalogSource
	plans    PlanSource
	repo     *Repository
	timeout  time.Duration
	log      zerolog.Logger
}

// NewService creates a new advisor service
func NewService(chat ChatClient, dash DashboardSource, profiles ProfileSource, catalog CatalogSource, plans PlanSource, repo *Repository, cfg Config, log zerolog.Logger) *Service {
	timeout := cfg.StreamTimeout
	if timeout <= 0 {
		timeout = DefaultStreamTimeout
	}
	return &Service{
		chat:     chat,
		dash:     dash,
		profiles: profiles,
		catalog:  catalog,
		plans:    plans,
		repo:     repo,
		timeout:  timeout,
		log:      log.With().Str("service", "advisor").Logger(),
	}
}

// StreamAdvice builds the prompt for the given kind from the user's current
// data and starts forwarding the upstream completion chunk by chunk. Data
// loading and validation errors are returned synchronously; everything after
// that is reported through the stream's terminal state.
func (s *Service) StreamAdvice(ctx context.Context, userID string, kind domain.AdviceKind) (*AdviceStream, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown advice kind %q", kind)
	}

	in, err := s.loadInputs(userID, kind)
	if err != nil {
		return nil, err
	}

	st := newAdviceStream(chunkBuffer)

	// A required assessment is missing: stream the notice instead of advice
	// and keep it out of the history.
	if in.riskProfile == nil && kind != domain.AdviceKindFinancial {
		go func() {
			defer close(st.chunks)
			st.chunks <- assessmentRequiredNotice
			st.finish(StateCompleted, nil)
		}()
		return st, nil
	}

	req, promptCtx := buildPrompt(kind, in)

	if !s.chat.Enabled() {
		s.log.Warn().Str("kind", string(kind)).Msg("AI upstream not configured, serving rule-based advice")
		text := fallbackAdvice(kind, in)
		promptCtx["fallback"] = "true"
		go func() {
			defer close(st.chunks)
			st.chunks <- text
			s.persist(userID, kind, text, promptCtx)
			st.finish(StateCompleted, nil)
		}()
		return st, nil
	}

	go s.run(ctx, st, userID, kind, req, promptCtx)
	return st, nil
}

// Explain produces a non-streaming plain-text explanation of the allocation
// plan matching the user's risk tolerance. When the AI upstream is missing or
// fails, the deterministic template is served instead. Pass amount <= 0 to
// size the plan from the current balance.
func (s *Service) Explain(ctx context.Context, userID string, amount float64) (*domain.Advice, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}

	risk, err := s.profiles.GetRiskProfile(userID)
	if errors.Is(err, profile.ErrNotFound) {
		return nil, ErrAssessmentRequired
	} else if err != nil {
		return nil, fmt.Errorf("failed to load risk profile: %w", err)
	}

	if amount <= 0 {
		summary, err := s.dash.Summary(userID, time.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to load dashboard summary: %w", err)
		}
		amount = planAmount(summary.Balance)
	}

	plan, err := s.plans.PlanForTolerance(risk.ToleranceScore, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to solve allocation plan: %w", err)
	}

	req, promptCtx := buildPortfolioPrompt(promptInputs{riskProfile: risk, plan: plan})

	var content string
	if s.chat.Enabled() {
		text, cerr := s.chat.Complete(ctx, req)
		if cerr != nil {
			s.log.Warn().Err(cerr).Msg("AI explanation failed, serving the deterministic template")
		} else {
			content = StripMarkdown(text)
		}
	}
	if content == "" {
		content = fallbackExplanation(plan, risk)
		promptCtx["fallback"] = "true"
	}

	return s.persist(userID, domain.AdviceKindPortfolio, content, promptCtx), nil
}

// History returns the newest saved advice for a user
func (s *Service) History(userID string, limit int) ([]domain.Advice, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	return s.repo.List(userID, limit)
}

// Get returns one saved advice by id
func (s *Service) Get(id string) (*domain.Advice, error) {
	return s.repo.Get(id)
}

// MarkRead flags a saved advice as read
func (s *Service) MarkRead(id string) error {
	return s.repo.MarkRead(id)
}

// PruneAdvice deletes advice saved before the retention window
func (s *Service) PruneAdvice(retentionDays int, now time.Time) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := now.UTC().AddDate(0, 0, -retentionDays).Format("2006-01-02 15:04:05")
	deleted, err := s.repo.DeleteOlderThan(cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Str("cutoff", cutoff).Msg("Pruned advice history")
	}
	return deleted, nil
}

// loadInputs gathers the live data the prompt for a kind needs. A missing
// risk profile is not an error here, callers decide what absence means for
// their kind.
func (s *Service) loadInputs(userID string, kind domain.AdviceKind) (promptInputs, error) {
	var in promptInputs

	summary, err := s.dash.Summary(userID, time.Now())
	if err != nil {
		return in, fmt.Errorf("failed to load dashboard summary: %w", err)
	}
	in.summary = summary

	risk, err := s.profiles.GetRiskProfile(userID)
	if err == nil {
		in.riskProfile = risk
	} else if !errors.Is(err, profile.ErrNotFound) {
		return in, fmt.Errorf("failed to load risk profile: %w", err)
	}

	switch kind {
	case domain.AdviceKindFinancial:
		fin, err := s.profiles.GetFinancialProfile(userID)
		if err == nil {
			in.finProfile = fin
		} else if !errors.Is(err, profile.ErrNotFound) {
			return in, fmt.Errorf("failed to load financial profile: %w", err)
		}
	case domain.AdviceKindInvestment:
		if in.riskProfile == nil {
			return in, nil
		}
		products, err := s.catalog.RecommendedForLevel(in.riskProfile.Level)
		if err != nil {
			return in, fmt.Errorf("failed to load recommended products: %w", err)
		}
		in.products = products
	case domain.AdviceKindPortfolio:
		if in.riskProfile == nil {
			return in, nil
		}
		plan, err := s.plans.PlanForTolerance(in.riskProfile.ToleranceScore, planAmount(summary.Balance))
		if err != nil {
			return in, fmt.Errorf("failed to solve allocation plan: %w", err)
		}
		in.plan = plan
	}
	return in, nil
}

// run forwards the upstream stream into st under the configured timeout and
// records the outcome
func (s *Service) run(ctx context.Context, st *AdviceStream, userID string, kind domain.AdviceKind, req aiadvisor.ChatRequest, promptCtx map[string]string) {
	defer close(st.chunks)

	streamCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	var full strings.Builder
	err := s.chat.StreamChat(streamCtx, req, func(chunk string) error {
		full.WriteString(chunk)
		select {
		case st.chunks <- chunk:
			return nil
		case <-streamCtx.Done():
			return streamCtx.Err()
		}
	})
	if err != nil {
		s.finishErr(st, kind, err)
		return
	}

	if content := full.String(); content != "" {
		s.persist(userID, kind, content, promptCtx)
	}
	s.log.Info().
		Str("user_id", userID).
		Str("kind", string(kind)).
		Dur("elapsed", time.Since(started)).
		Int("bytes", full.Len()).
		Msg("Advice stream completed")
	st.finish(StateCompleted, nil)
}

func (s *Service) finishErr(st *AdviceStream, kind domain.AdviceKind, err error) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		s.log.Warn().Str("kind", string(kind)).Dur("timeout", s.timeout).Msg("Advice stream timed out")
		st.finish(StateTimedOut, fmt.Errorf("%w after %s", ErrUpstreamTimeout, s.timeout))
	case errors.Is(err, context.Canceled):
		s.log.Debug().Str("kind", string(kind)).Msg("Advice stream canceled")
		st.finish(StateFailed, err)
	default:
		s.log.Error().Err(err).Str("kind", string(kind)).Msg("Advice stream failed")
		st.finish(StateFailed, fmt.Errorf("%w: %v", ErrUpstreamStream, err))
	}
}

// persist saves generated advice, a save failure is logged and does not
// surface to the stream consumer
func (s *Service) persist(userID string, kind domain.AdviceKind, content string, promptCtx map[string]string) *domain.Advice {
	a := &domain.Advice{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Content:   content,
		Context:   promptCtx,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Insert(a); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Str("kind", string(kind)).Msg("Failed to save advice")
	}
	s.log.Debug().
		Str("kind", string(kind)).
		Str("preview", utils.Truncate(content, 80)).
		Msg("Advice saved")
	return a
}

func buildPrompt(kind domain.AdviceKind, in promptInputs) (aiadvisor.ChatRequest, map[string]string) {
	switch kind {
	case domain.AdviceKindInvestment:
		return buildInvestmentPrompt(in)
	case domain.AdviceKindPortfolio:
		return buildPortfolioPrompt(in)
	default:
		return buildFinancialPrompt(in)
	}
}

// planAmount sizes a plan from this month's balance, falling back to a
// nominal amount when nothing positive is available
func planAmount(balance float64) float64 {
	if balance > 0 {
		return balance
	}
	return defaultPlanAmount
}
