// Package ledger manages the authoritative record of money movements.
package ledger

import (
	"time"

	"github.com/finsight/finsight/internal/domain"
)

// Bill is a single money movement (income or expense)
type Bill struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	Type        domain.BillType `json:"type"`
	Category    string          `json:"category"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description,omitempty"`
	Date        string          `json:"date"` // YYYY-MM-DD
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// MonthTotals summarizes a calendar month
type MonthTotals struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

// CategoryTotal is one slice of a per-category breakdown
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Share    float64 `json:"share"` // percent of the breakdown total
	Count    int     `json:"count"`
}

// SeriesPoint is one bucket of an income/expense time series
type SeriesPoint struct {
	Period  string  `json:"period"` // YYYY-MM-DD for daily, YYYY-MM for monthly
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

// ListFilter narrows List queries. Zero values mean "no constraint".
type ListFilter struct {
	Type     domain.BillType
	Category string
	From     string // inclusive YYYY-MM-DD
	To       string // inclusive YYYY-MM-DD
	Limit    int
}
