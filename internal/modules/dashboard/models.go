// Package dashboard aggregates ledger and goal data into the summary,
// trend and breakdown views the frontend renders, and snapshots summaries
// into the cache database for history-over-time charts.
package dashboard

import (
	"time"

	"github.com/finsight/finsight/internal/modules/ledger"
)

// TrendPeriod selects the bucketing of a trend series
type TrendPeriod string

const (
	// TrendDaily covers the trailing 30 days, one point per day
	TrendDaily TrendPeriod = "daily"
	// TrendMonthly covers the current calendar year, one point per month
	TrendMonthly TrendPeriod = "monthly"
)

// Summary is the headline view of the current month
type Summary struct {
	Month        string  `json:"month" msgpack:"month"` // YYYY-MM
	TotalIncome  float64 `json:"total_income" msgpack:"total_income"`
	TotalExpense float64 `json:"total_expense" msgpack:"total_expense"`
	Balance      float64 `json:"balance" msgpack:"balance"`
	HealthScore  int     `json:"health_score" msgpack:"health_score"`
}

// Trend is a bucketed income/expense series with smoothed net lines.
// SmoothedNet and EMANet are aligned with Points and empty when the series
// is too short for the smoothing window.
type Trend struct {
	Period      TrendPeriod          `json:"period"`
	Points      []ledger.SeriesPoint `json:"points"`
	SmoothedNet []float64            `json:"smoothed_net,omitempty"`
	EMANet      []float64            `json:"ema_net,omitempty"`
}

// Snapshot is one persisted dashboard summary
type Snapshot struct {
	Date      string    `json:"date"` // YYYY-MM-DD
	Summary   Summary   `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}
