package ledger

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/utils"
)

// Service provides validated bill operations and derived aggregates
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new ledger service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "ledger").Logger(),
	}
}

// Add validates and stores a new bill
func (s *Service) Add(b Bill) (*Bill, error) {
	if err := validateBill(&b); err != nil {
		return nil, err
	}

	if err := s.repo.Insert(&b); err != nil {
		return nil, err
	}

	s.log.Debug().
		Int64("id", b.ID).
		Str("type", string(b.Type)).
		Str("category", b.Category).
		Float64("amount", b.Amount).
		Msg("Bill recorded")

	return &b, nil
}

// Update validates and rewrites an existing bill
func (s *Service) Update(b Bill) (*Bill, error) {
	if b.ID == 0 {
		return nil, fmt.Errorf("bill id is required")
	}
	if err := validateBill(&b); err != nil {
		return nil, err
	}

	if err := s.repo.Update(&b); err != nil {
		return nil, err
	}

	return &b, nil
}

// Delete removes a bill
func (s *Service) Delete(id int64) error {
	return s.repo.Delete(id)
}

// Get returns a bill by id
func (s *Service) Get(id int64) (*Bill, error) {
	return s.repo.Get(id)
}

// List returns bills for a user, newest first
func (s *Service) List(userID string, filter ListFilter) ([]Bill, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("unknown bill type %q", filter.Type)
	}
	return s.repo.List(userID, filter)
}

// MonthTotals summarizes one calendar month
func (s *Service) MonthTotals(userID string, year, month int) (*MonthTotals, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("month out of range: %d", month)
	}
	return s.repo.MonthTotals(userID, year, month)
}

// CategoryBreakdown returns per-category totals with percentage shares
func (s *Service) CategoryBreakdown(userID string, billType domain.BillType, from, to string) ([]CategoryTotal, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	if !billType.Valid() {
		return nil, fmt.Errorf("unknown bill type %q", billType)
	}
	if _, err := time.Parse("2006-01-02", from); err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", from, err)
	}
	if _, err := time.Parse("2006-01-02", to); err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", to, err)
	}

	totals, err := s.repo.CategoryTotals(userID, billType, from, to)
	if err != nil {
		return nil, err
	}

	var sum float64
	for _, ct := range totals {
		sum += ct.Total
	}
	for i := range totals {
		totals[i].Share = utils.RoundTo(utils.Percent(totals[i].Total, sum), 2)
	}

	return totals, nil
}

// SeriesDaily returns a contiguous per-day series between from and to,
// with zero-filled gaps so downstream smoothing sees evenly spaced points.
func (s *Service) SeriesDaily(userID, from, to string) ([]SeriesPoint, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}

	start, err := time.Parse("2006-01-02", from)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", from, err)
	}
	end, err := time.Parse("2006-01-02", to)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", to, err)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("date range ends before it starts: %s..%s", from, to)
	}

	points, err := s.repo.DailyTotals(userID, from, to)
	if err != nil {
		return nil, err
	}

	var series []SeriesPoint
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		if p, ok := points[key]; ok {
			series = append(series, p)
		} else {
			series = append(series, SeriesPoint{Period: key})
		}
	}

	return series, nil
}

// SeriesMonthly returns the twelve months of one year, zero-filled
func (s *Service) SeriesMonthly(userID string, year int) ([]SeriesPoint, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}

	points, err := s.repo.MonthlyTotals(userID, year)
	if err != nil {
		return nil, err
	}

	series := make([]SeriesPoint, 0, 12)
	for month := 1; month <= 12; month++ {
		key := fmt.Sprintf("%04d-%02d", year, month)
		if p, ok := points[key]; ok {
			series = append(series, p)
		} else {
			series = append(series, SeriesPoint{Period: key})
		}
	}

	return series, nil
}

func validateBill(b *Bill) error {
	if !b.Type.Valid() {
		return fmt.Errorf("unknown bill type %q", b.Type)
	}
	if !domain.ValidBillCategory(b.Type, b.Category) {
		return fmt.Errorf("category %q is not valid for %s bills", b.Category, b.Type)
	}
	if b.Amount <= 0 {
		return fmt.Errorf("amount must be positive, got %v", b.Amount)
	}
	if _, err := time.Parse("2006-01-02", b.Date); err != nil {
		return fmt.Errorf("invalid bill date %q: %w", b.Date, err)
	}
	return nil
}
