package domain

import "time"

// Product is an investable product from the catalog
type Product struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	Type           ProductType `json:"type"`
	RiskLevel      RiskLevel   `json:"risk_level"`
	RiskScore      float64     `json:"risk_score"`      // 0..1, higher = riskier
	ExpectedReturn float64     `json:"expected_return"` // fractional per annum, e.g. 0.085
	MinInvestment  float64     `json:"min_investment"`
	Period         string      `json:"period,omitempty"` // free-form holding period hint
	Features       []string    `json:"features,omitempty"`
	Tags           []string    `json:"tags,omitempty"`
	Active         bool        `json:"active"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// FinancialProfile holds the user-supplied balance-sheet ratios
type FinancialProfile struct {
	UserID              string    `json:"user_id"`
	AssetLiabilityRatio float64   `json:"asset_liability_ratio"`
	DebtIncomeRatio     float64   `json:"debt_income_ratio"`
	SurplusRatio        float64   `json:"surplus_ratio"`
	LiquidityRatio      float64   `json:"liquidity_ratio"`
	Type                string    `json:"type"` // free-form label, e.g. "steady"
	UpdatedAt           time.Time `json:"updated_at"`
}

// RiskProfile is the outcome of a risk tolerance assessment
type RiskProfile struct {
	UserID         string         `json:"user_id"`
	Level          RiskLevel      `json:"level"`
	ToleranceScore float64        `json:"tolerance_score"` // 0..100
	RawScore       int            `json:"raw_score"`       // questionnaire point sum
	Answers        map[string]int `json:"answers,omitempty"`
	AssessedAt     time.Time      `json:"assessed_at"`
}

// Advice is a persisted piece of generated guidance
type Advice struct {
	ID        string            `json:"id"` // uuid
	UserID    string            `json:"user_id"`
	Kind      AdviceKind        `json:"kind"`
	Content   string            `json:"content"`
	Context   map[string]string `json:"context,omitempty"` // prompt inputs kept for traceability
	Read      bool              `json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}
