package dashboard

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/modules/goals"
	"github.com/finsight/finsight/internal/modules/ledger"
	testingpkg "github.com/finsight/finsight/internal/testing"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	ledgerDB, cleanupLedger := testingpkg.NewTestDB(t, "ledger")
	t.Cleanup(cleanupLedger)
	cacheDB, cleanupCache := testingpkg.NewTestDB(t, "cache")
	t.Cleanup(cleanupCache)

	ledgerSvc := ledger.NewService(ledger.NewRepository(ledgerDB.Conn(), zerolog.Nop()), zerolog.Nop())
	goalsSvc := goals.NewService(goals.NewRepository(ledgerDB.Conn(), zerolog.Nop()), zerolog.Nop())
	snapshots := NewSnapshotRepository(cacheDB.Conn(), zerolog.Nop())

	return NewService(ledgerSvc, goalsSvc, snapshots, zerolog.Nop())
}

func addBill(t *testing.T, s *Service, billType domain.BillType, category string, amount float64, date string) {
	t.Helper()
	_, err := s.ledger.Add(ledger.Bill{
		UserID:   domain.DefaultUserID,
		Type:     billType,
		Category: category,
		Amount:   amount,
		Date:     date,
	})
	require.NoError(t, err)
}

func TestSummary(t *testing.T) {
	s := newTestService(t)
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

	addBill(t, s, domain.BillTypeIncome, "salary", 10000, "2025-07-01")
	addBill(t, s, domain.BillTypeExpense, "food", 4000, "2025-07-10")
	addBill(t, s, domain.BillTypeExpense, "housing", 2000, "2025-07-12")
	// Outside the month, must not count
	addBill(t, s, domain.BillTypeExpense, "food", 9999, "2025-06-30")

	summary, err := s.Summary("", now)
	require.NoError(t, err)

	assert.Equal(t, "2025-07", summary.Month)
	assert.InDelta(t, 10000.0, summary.TotalIncome, 1e-9)
	assert.InDelta(t, 6000.0, summary.TotalExpense, 1e-9)
	assert.InDelta(t, 4000.0, summary.Balance, 1e-9)
	// 40% savings rate, 0.6 expense ratio
	assert.Equal(t, 80, summary.HealthScore)
}

func TestSummaryWithoutIncome(t *testing.T) {
	s := newTestService(t)
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

	summary, err := s.Summary("", now)
	require.NoError(t, err)

	assert.Zero(t, summary.TotalIncome)
	assert.Equal(t, 0, summary.HealthScore)
}

func TestHealthScore(t *testing.T) {
	tests := []struct {
		name    string
		income  float64
		expense float64
		want    int
	}{
		{"no income", 0, 0, 0},
		{"strong saver", 10000, 6000, 80},
		{"decent saver heavy spender", 10000, 8500, 60},
		{"break even", 10000, 9500, 30},
		{"thin margin", 10000, 9400, 40},
		{"moderate saver", 10000, 9200, 40},
		{"income only", 10000, 0, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := healthScore(tt.income, tt.expense, tt.income-tt.expense)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrendDaily(t *testing.T) {
	s := newTestService(t)
	now := time.Date(2025, 7, 30, 12, 0, 0, 0, time.UTC)

	// Window starts 2025-07-01
	addBill(t, s, domain.BillTypeIncome, "salary", 700, "2025-07-01")
	addBill(t, s, domain.BillTypeExpense, "food", 50, "2025-07-30")
	// Outside the 30-day window
	addBill(t, s, domain.BillTypeIncome, "bonus", 9999, "2025-06-29")

	trend, err := s.Trend("", TrendDaily, now)
	require.NoError(t, err)

	require.Len(t, trend.Points, 30)
	assert.Equal(t, "2025-07-01", trend.Points[0].Period)
	assert.Equal(t, "2025-07-30", trend.Points[29].Period)
	assert.InDelta(t, 700.0, trend.Points[0].Net, 1e-9)
	assert.InDelta(t, -50.0, trend.Points[29].Net, 1e-9)

	require.Len(t, trend.SmoothedNet, 30)
	require.Len(t, trend.EMANet, 30)
	// First full 7-day window averages the lone 700 income
	assert.InDelta(t, 100.0, trend.SmoothedNet[6], 1e-9)
	assert.InDelta(t, 0.0, trend.SmoothedNet[7], 1e-9)
}

func TestTrendMonthly(t *testing.T) {
	s := newTestService(t)
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

	addBill(t, s, domain.BillTypeIncome, "salary", 5000, "2025-03-05")
	addBill(t, s, domain.BillTypeExpense, "housing", 1500, "2025-03-20")

	trend, err := s.Trend("", TrendMonthly, now)
	require.NoError(t, err)

	require.Len(t, trend.Points, 12)
	assert.Equal(t, "2025-03", trend.Points[2].Period)
	assert.InDelta(t, 3500.0, trend.Points[2].Net, 1e-9)
	assert.Len(t, trend.SmoothedNet, 12)
}

func TestTrendUnknownPeriod(t *testing.T) {
	s := newTestService(t)

	_, err := s.Trend("", "weekly", time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown trend period")
}

func TestExpenseBreakdown(t *testing.T) {
	s := newTestService(t)
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

	addBill(t, s, domain.BillTypeExpense, "food", 300, "2025-07-02")
	addBill(t, s, domain.BillTypeExpense, "food", 150, "2025-07-20")
	addBill(t, s, domain.BillTypeExpense, "transport", 150, "2025-07-05")
	addBill(t, s, domain.BillTypeExpense, "food", 999, "2025-08-01")

	breakdown, err := s.ExpenseBreakdown("", now)
	require.NoError(t, err)

	require.Len(t, breakdown, 2)
	assert.Equal(t, "food", breakdown[0].Category)
	assert.InDelta(t, 450.0, breakdown[0].Total, 1e-9)
	assert.InDelta(t, 75.0, breakdown[0].Share, 1e-9)
	assert.Equal(t, "transport", breakdown[1].Category)
	assert.InDelta(t, 25.0, breakdown[1].Share, 1e-9)
}

func TestSavingsOverview(t *testing.T) {
	s := newTestService(t)

	_, err := s.goals.Create(goals.Goal{Name: "Emergency fund", Type: "emergency", TargetAmount: 10000, CurrentAmount: 2500})
	require.NoError(t, err)

	overview, err := s.SavingsOverview("")
	require.NoError(t, err)

	assert.Equal(t, 1, overview.TotalGoals)
	assert.InDelta(t, 2500.0, overview.TotalSaved, 1e-9)
}

func TestSnapshotAndHistory(t *testing.T) {
	s := newTestService(t)
	day1 := time.Date(2025, 7, 15, 23, 55, 0, 0, time.UTC)
	day2 := time.Date(2025, 7, 16, 23, 55, 0, 0, time.UTC)

	addBill(t, s, domain.BillTypeIncome, "salary", 8000, "2025-07-01")

	first, err := s.Snapshot("", day1)
	require.NoError(t, err)

	// Same-day snapshot replaces, not duplicates
	_, err = s.Snapshot("", day1)
	require.NoError(t, err)

	addBill(t, s, domain.BillTypeExpense, "food", 1000, "2025-07-16")
	second, err := s.Snapshot("", day2)
	require.NoError(t, err)
	assert.InDelta(t, 8000.0, first.Balance, 1e-9)
	assert.InDelta(t, 7000.0, second.Balance, 1e-9)

	history, err := s.History("", 30, day2)
	require.NoError(t, err)

	require.Len(t, history, 2)
	assert.Equal(t, "2025-07-15", history[0].Date)
	assert.Equal(t, "2025-07-16", history[1].Date)
	assert.InDelta(t, 8000.0, history[0].Summary.TotalIncome, 1e-9)
	assert.InDelta(t, 7000.0, history[1].Summary.Balance, 1e-9)
	assert.Equal(t, second.HealthScore, history[1].Summary.HealthScore)

	// Single-day lookback only sees the latest
	recent, err := s.History("", 1, day2)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "2025-07-16", recent[0].Date)
}

func TestHistoryRejectsNonPositiveDays(t *testing.T) {
	s := newTestService(t)

	_, err := s.History("", 0, time.Now())
	assert.Error(t, err)
}

func TestPruneSnapshots(t *testing.T) {
	s := newTestService(t)
	now := time.Date(2025, 7, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.snapshots.Save(domain.DefaultUserID, "2025-01-01", []byte{0x81}))
	require.NoError(t, s.snapshots.Save(domain.DefaultUserID, "2025-07-10", []byte{0x81}))

	deleted, err := s.PruneSnapshots(30, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = s.PruneSnapshots(0, now)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
