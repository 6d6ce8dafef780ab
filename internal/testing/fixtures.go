package testing

import (
	"time"

	"github.com/finsight/finsight/internal/domain"
)

// NewProductFixtures returns a set of catalog products covering every risk
// level, for use in recommendation and catalog tests.
func NewProductFixtures() []domain.Product {
	now := time.Now()
	return []domain.Product{
		{
			ID:             1,
			Name:           "Money Market Fund",
			Description:    "Cash-like fund with daily liquidity",
			Type:           domain.ProductTypeFund,
			RiskLevel:      domain.RiskLevelLow,
			RiskScore:      0.05,
			ExpectedReturn: 0.025,
			MinInvestment:  1,
			Period:         "none",
			Features:       []string{"daily liquidity", "capital stable"},
			Tags:           []string{"cash", "stable"},
			Active:         true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             2,
			Name:           "Treasury Bond Fund",
			Description:    "Government bond fund",
			Type:           domain.ProductTypeBond,
			RiskLevel:      domain.RiskLevelLow,
			RiskScore:      0.15,
			ExpectedReturn: 0.038,
			MinInvestment:  100,
			Period:         "1y+",
			Features:       []string{"government backed"},
			Tags:           []string{"bond", "stable"},
			Active:         true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             3,
			Name:           "Balanced Hybrid Fund",
			Description:    "Mixed equity and bond exposure",
			Type:           domain.ProductTypeFund,
			RiskLevel:      domain.RiskLevelMedium,
			RiskScore:      0.45,
			ExpectedReturn: 0.085,
			MinInvestment:  500,
			Period:         "3y+",
			Features:       []string{"diversified"},
			Tags:           []string{"balanced"},
			Active:         true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             4,
			Name:           "Blue-Chip Stock Portfolio",
			Description:    "Large-cap equity basket",
			Type:           domain.ProductTypeStock,
			RiskLevel:      domain.RiskLevelHigh,
			RiskScore:      0.80,
			ExpectedReturn: 0.15,
			MinInvestment:  1000,
			Period:         "5y+",
			Features:       []string{"growth"},
			Tags:           []string{"equity", "growth"},
			Active:         true,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
}

// NewRiskProfileFixture returns a stored risk assessment for the given level
func NewRiskProfileFixture(level domain.RiskLevel) domain.RiskProfile {
	score := 50.0
	raw := 20
	switch level {
	case domain.RiskLevelLow:
		score = 16.7
		raw = 12
	case domain.RiskLevelHigh:
		score = 83.3
		raw = 28
	}
	return domain.RiskProfile{
		UserID:         domain.DefaultUserID,
		Level:          level,
		ToleranceScore: score,
		RawScore:       raw,
		Answers:        map[string]int{"age": 2, "horizon": 3},
		AssessedAt:     time.Now(),
	}
}

// NewFinancialProfileFixture returns a healthy-looking financial profile
func NewFinancialProfileFixture() domain.FinancialProfile {
	return domain.FinancialProfile{
		UserID:              domain.DefaultUserID,
		AssetLiabilityRatio: 2.5,
		DebtIncomeRatio:     0.2,
		SurplusRatio:        0.3,
		LiquidityRatio:      6,
		Type:                "steady",
		UpdatedAt:           time.Now(),
	}
}
