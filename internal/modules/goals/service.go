package goals

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/database"
	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/utils"
)

// Service provides validated goal operations
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new goals service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "goals").Logger(),
	}
}

// Create validates and stores a new goal
func (s *Service) Create(g Goal) (*Goal, error) {
	if g.UserID == "" {
		g.UserID = domain.DefaultUserID
	}
	if g.Type == "" {
		g.Type = "other"
	}
	if err := validateGoal(&g); err != nil {
		return nil, err
	}

	g.CurrentAmount = utils.RoundTo(g.CurrentAmount, 2)
	g.Completed = g.CurrentAmount >= g.TargetAmount

	if err := s.repo.Insert(&g); err != nil {
		return nil, err
	}

	s.log.Debug().Int64("id", g.ID).Str("name", g.Name).Msg("Goal created")
	return &g, nil
}

// Update validates and rewrites a goal's editable fields. Completion is
// recomputed against the possibly changed target.
func (s *Service) Update(g Goal) (*Goal, error) {
	if g.ID == 0 {
		return nil, fmt.Errorf("goal id is required")
	}
	if err := validateGoal(&g); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(g.ID)
	if err != nil {
		return nil, err
	}

	g.CurrentAmount = existing.CurrentAmount
	g.Completed = existing.CurrentAmount >= g.TargetAmount

	if err := s.repo.Update(&g); err != nil {
		return nil, err
	}

	return s.repo.Get(g.ID)
}

// Delete removes a goal and its contributions
func (s *Service) Delete(id int64) error {
	return s.repo.Delete(id)
}

// Get returns a goal by id
func (s *Service) Get(id int64) (*Goal, error) {
	return s.repo.Get(id)
}

// List returns a user's goals, active first
func (s *Service) List(userID string) ([]Goal, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	return s.repo.ListByUser(userID)
}

// Contribute records a payment towards a goal. The stored amount is capped so
// the goal never exceeds its target; the applied portion is returned. Reaching
// the target marks the goal completed. The contribution row and the balance
// update commit together.
func (s *Service) Contribute(goalID int64, amount float64, note string) (*Goal, float64, error) {
	if amount <= 0 {
		return nil, 0, fmt.Errorf("contribution amount must be positive, got %v", amount)
	}

	goal, err := s.repo.Get(goalID)
	if err != nil {
		return nil, 0, err
	}
	if goal.Completed {
		return nil, 0, fmt.Errorf("goal %q is already completed", goal.Name)
	}

	applied := utils.RoundTo(amount, 2)
	newAmount := utils.RoundTo(goal.CurrentAmount+applied, 2)
	completed := false
	if newAmount >= goal.TargetAmount {
		applied = utils.RoundTo(goal.TargetAmount-goal.CurrentAmount, 2)
		newAmount = goal.TargetAmount
		completed = true
	}

	err = database.WithTransaction(s.repo.db, func(tx *sql.Tx) error {
		return s.repo.ApplyContributionTx(tx, goalID, applied, note, newAmount, completed)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to record contribution: %w", err)
	}

	if completed {
		s.log.Info().Int64("id", goalID).Str("name", goal.Name).Msg("Goal completed")
	}

	updated, err := s.repo.Get(goalID)
	if err != nil {
		return nil, 0, err
	}

	return updated, applied, nil
}

// Contributions returns a goal's contribution history, newest first
func (s *Service) Contributions(goalID int64, limit int) ([]Contribution, error) {
	if _, err := s.repo.Get(goalID); err != nil {
		return nil, err
	}
	return s.repo.ListContributions(goalID, limit)
}

// Progress reports completion state for one goal
func (s *Service) Progress(goalID int64) (*Progress, error) {
	goal, err := s.repo.Get(goalID)
	if err != nil {
		return nil, err
	}

	remaining := goal.TargetAmount - goal.CurrentAmount
	if remaining < 0 {
		remaining = 0
	}

	p := &Progress{
		Goal:      *goal,
		Percent:   utils.RoundTo(utils.Percent(goal.CurrentAmount, goal.TargetAmount), 2),
		Remaining: utils.RoundTo(remaining, 2),
	}

	if goal.TargetDate != "" {
		if target, err := time.Parse("2006-01-02", goal.TargetDate); err == nil {
			p.DaysLeft = int(time.Until(target).Hours() / 24)
		}
	}

	return p, nil
}

// Stats aggregates a user's goals and recent saving activity
func (s *Service) Stats(userID string) (*Stats, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}

	list, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{TotalGoals: len(list)}
	for _, g := range list {
		if g.Completed {
			stats.CompletedGoals++
		} else {
			stats.ActiveGoals++
		}
		stats.TotalTarget += g.TargetAmount
		stats.TotalSaved += g.CurrentAmount
	}
	stats.TotalTarget = utils.RoundTo(stats.TotalTarget, 2)
	stats.TotalSaved = utils.RoundTo(stats.TotalSaved, 2)
	stats.OverallPercent = utils.RoundTo(utils.Percent(stats.TotalSaved, stats.TotalTarget), 2)

	since := time.Now().UTC().AddDate(0, 0, -30).Format("2006-01-02 15:04:05")
	recent, err := s.repo.SumContributionsSince(userID, since)
	if err != nil {
		return nil, err
	}
	stats.SavedLast30Days = utils.RoundTo(recent, 2)

	return stats, nil
}

func validateGoal(g *Goal) error {
	if g.Name == "" {
		return fmt.Errorf("goal name is required")
	}
	if !domain.ValidGoalType(g.Type) {
		return fmt.Errorf("unknown goal type %q", g.Type)
	}
	if g.TargetAmount <= 0 {
		return fmt.Errorf("target amount must be positive, got %v", g.TargetAmount)
	}
	if g.CurrentAmount < 0 {
		return fmt.Errorf("current amount cannot be negative, got %v", g.CurrentAmount)
	}
	if g.TargetDate != "" {
		if _, err := time.Parse("2006-01-02", g.TargetDate); err != nil {
			return fmt.Errorf("invalid target date %q: %w", g.TargetDate, err)
		}
	}
	return nil
}
