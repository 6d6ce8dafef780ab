package dashboard

import (
	"fmt"
	"time"

	"github.com/markcheno/go-talib"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/modules/goals"
	"github.com/finsight/finsight/internal/modules/ledger"
	"github.com/finsight/finsight/internal/utils"
)

const (
	dateLayout = "2006-01-02"

	// trendDailyDays is the trailing window of the daily trend
	trendDailyDays = 30

	// smoothing windows per trend period
	dailySmoothingWindow   = 7
	monthlySmoothingWindow = 3
)

// Service aggregates ledger and goal data into dashboard views
type Service struct {
	ledger    *ledger.Service
	goals     *goals.Service
	snapshots *SnapshotRepository
	log       zerolog.Logger
}

// NewService creates a new dashboard service
func NewService(ledgerSvc *ledger.Service, goalsSvc *goals.Service, snapshots *SnapshotRepository, log zerolog.Logger) *Service {
	return &Service{
		ledger:    ledgerSvc,
		goals:     goalsSvc,
		snapshots: snapshots,
		log:       log.With().Str("service", "dashboard").Logger(),
	}
}

// Summary returns the current-month totals with the derived health score
func (s *Service) Summary(userID string, now time.Time) (*Summary, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}

	totals, err := s.ledger.MonthTotals(userID, now.Year(), int(now.Month()))
	if err != nil {
		return nil, fmt.Errorf("failed to load month totals: %w", err)
	}

	return &Summary{
		Month:        now.Format("2006-01"),
		TotalIncome:  totals.Income,
		TotalExpense: totals.Expense,
		Balance:      totals.Balance,
		HealthScore:  healthScore(totals.Income, totals.Expense, totals.Balance),
	}, nil
}

// healthScore rates a month of cash flow on a 0-100 scale. A month without
// income scores zero.
func healthScore(income, expense, balance float64) int {
	if income == 0 {
		return 0
	}

	score := 50

	savingsRate := balance / income * 100
	switch {
	case savingsRate > 20:
		score += 30
	case savingsRate > 10:
		score += 20
	case savingsRate > 5:
		score += 10
	}

	expenseRatio := expense / income
	switch {
	case expenseRatio > 0.9:
		score -= 20
	case expenseRatio > 0.8:
		score -= 10
	}

	return int(utils.Clamp(float64(score), 0, 100))
}

// Trend returns a bucketed income/expense series. Daily covers the trailing
// 30 days, monthly the current calendar year. The net line is additionally
// smoothed with SMA and EMA when the series is long enough.
func (s *Service) Trend(userID string, period TrendPeriod, now time.Time) (*Trend, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}

	var (
		points []ledger.SeriesPoint
		window int
		err    error
	)

	switch period {
	case TrendDaily:
		from := now.AddDate(0, 0, -(trendDailyDays - 1)).Format(dateLayout)
		to := now.Format(dateLayout)
		points, err = s.ledger.SeriesDaily(userID, from, to)
		window = dailySmoothingWindow
	case TrendMonthly:
		points, err = s.ledger.SeriesMonthly(userID, now.Year())
		window = monthlySmoothingWindow
	default:
		return nil, fmt.Errorf("unknown trend period %q", period)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trend series: %w", err)
	}

	trend := &Trend{Period: period, Points: points}
	if len(points) >= window {
		nets := make([]float64, len(points))
		for i, p := range points {
			nets[i] = p.Net
		}
		trend.SmoothedNet = talib.Sma(nets, window)
		trend.EMANet = talib.Ema(nets, window)
	}

	return trend, nil
}

// ExpenseBreakdown returns the current month's expenses grouped by category
func (s *Service) ExpenseBreakdown(userID string, now time.Time) ([]ledger.CategoryTotal, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}

	from, to := monthRange(now)
	return s.ledger.CategoryBreakdown(userID, domain.BillTypeExpense, from, to)
}

// SavingsOverview returns the aggregate goal statistics
func (s *Service) SavingsOverview(userID string) (*goals.Stats, error) {
	return s.goals.Stats(userID)
}

// Snapshot computes the summary for the given day and persists it
// msgpack-encoded, replacing any snapshot already stored for that day.
func (s *Service) Snapshot(userID string, now time.Time) (*Summary, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}

	summary, err := s.Summary(userID, now)
	if err != nil {
		return nil, err
	}

	payload, err := msgpack.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	date := now.Format(dateLayout)
	if err := s.snapshots.Save(userID, date, payload); err != nil {
		return nil, err
	}

	s.log.Info().Str("date", date).Int("health_score", summary.HealthScore).Msg("Dashboard snapshot stored")
	return summary, nil
}

// History returns the stored snapshots of the trailing N days, oldest first.
// Snapshots that no longer decode are skipped, the cache is regenerable.
func (s *Service) History(userID string, days int, now time.Time) ([]Snapshot, error) {
	if userID == "" {
		userID = domain.DefaultUserID
	}
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}

	since := now.AddDate(0, 0, -(days - 1)).Format(dateLayout)
	rows, err := s.snapshots.ListSince(userID, since)
	if err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, 0, len(rows))
	for _, row := range rows {
		var summary Summary
		if err := msgpack.Unmarshal(row.Payload, &summary); err != nil {
			s.log.Warn().Err(err).Str("date", row.Date).Msg("Skipping undecodable snapshot")
			continue
		}
		snapshots = append(snapshots, Snapshot{
			Date:      row.Date,
			Summary:   summary,
			CreatedAt: utils.ParseSQLiteTime(row.CreatedAt),
		})
	}

	return snapshots, nil
}

// PruneSnapshots removes snapshots older than the retention window
func (s *Service) PruneSnapshots(retentionDays int, now time.Time) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	cutoff := now.AddDate(0, 0, -retentionDays).Format(dateLayout)
	deleted, err := s.snapshots.DeleteBefore(cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted", deleted).Str("cutoff", cutoff).Msg("Old snapshots pruned")
	}
	return deleted, nil
}

// monthRange returns the first and last day of the month containing t
func monthRange(t time.Time) (string, string) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1)
	return first.Format(dateLayout), last.Format(dateLayout)
}
