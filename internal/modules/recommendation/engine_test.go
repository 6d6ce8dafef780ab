package recommendation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finsight/internal/domain"
)

func mediumProfile() domain.RiskProfile {
	return domain.RiskProfile{UserID: "u", Level: domain.RiskLevelMedium, ToleranceScore: 50}
}

func lowProfile() domain.RiskProfile {
	return domain.RiskProfile{UserID: "u", Level: domain.RiskLevelLow, ToleranceScore: 20}
}

func highProfile() domain.RiskProfile {
	return domain.RiskProfile{UserID: "u", Level: domain.RiskLevelHigh, ToleranceScore: 85}
}

func sumWeights(positions []Position) float64 {
	total := 0.0
	for _, p := range positions {
		total += p.Weight
	}
	return total
}

func TestRecommendInvalidInput(t *testing.T) {
	candidates := []Candidate{{ID: "A", ExpectedReturn: 0.05, RiskScore: 0.2}}

	tests := []struct {
		name       string
		profile    domain.RiskProfile
		candidates []Candidate
		cfg        Config
	}{
		{
			name:       "tolerance below range",
			profile:    domain.RiskProfile{Level: domain.RiskLevelLow, ToleranceScore: -1},
			candidates: candidates,
		},
		{
			name:       "tolerance above range",
			profile:    domain.RiskProfile{Level: domain.RiskLevelLow, ToleranceScore: 100.5},
			candidates: candidates,
		},
		{
			name:       "unknown risk level",
			profile:    domain.RiskProfile{Level: "reckless", ToleranceScore: 50},
			candidates: candidates,
		},
		{
			name:       "negative max positions",
			profile:    mediumProfile(),
			candidates: candidates,
			cfg:        Config{MaxPositions: -1},
		},
		{
			name:       "risk score above one",
			profile:    mediumProfile(),
			candidates: []Candidate{{ID: "A", ExpectedReturn: 0.05, RiskScore: 1.2}},
		},
		{
			name:       "risk score below zero",
			profile:    mediumProfile(),
			candidates: []Candidate{{ID: "A", ExpectedReturn: 0.05, RiskScore: -0.1}},
		},
		{
			name:       "empty candidate id",
			profile:    mediumProfile(),
			candidates: []Candidate{{ID: "", ExpectedReturn: 0.05, RiskScore: 0.2}},
		},
		{
			name:       "curve without the level",
			profile:    mediumProfile(),
			candidates: candidates,
			cfg:        Config{RiskAversionCurve: map[domain.RiskLevel]float64{domain.RiskLevelLow: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Recommend(tt.profile, tt.candidates, tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestRecommendEmptyCandidates(t *testing.T) {
	_, err := Recommend(mediumProfile(), nil, Config{})
	assert.ErrorIs(t, err, ErrInsufficientCandidates)

	_, err = Recommend(mediumProfile(), []Candidate{}, Config{})
	assert.ErrorIs(t, err, ErrInsufficientCandidates)
}

func TestRecommendRiskBandFiltersHighRisk(t *testing.T) {
	// The 0.6 risk candidate sits above the low band's 0.3 ceiling
	result, err := Recommend(lowProfile(), []Candidate{
		{ID: "A", ExpectedReturn: 0.03, RiskScore: 0.1},
		{ID: "B", ExpectedReturn: 0.12, RiskScore: 0.6},
	}, Config{})
	require.NoError(t, err)

	require.Len(t, result.Positions, 1)
	assert.Equal(t, "A", result.Positions[0].ProductID)
	assert.Equal(t, 1.0, result.Positions[0].Weight)
	assert.False(t, result.Fallback)
}

func TestRecommendSingleCandidate(t *testing.T) {
	for _, profile := range []domain.RiskProfile{lowProfile(), mediumProfile(), highProfile()} {
		result, err := Recommend(profile, []Candidate{
			{ID: "X", ExpectedReturn: 0.04, RiskScore: 0.2},
		}, Config{})
		require.NoError(t, err)

		require.Len(t, result.Positions, 1, "level %s", profile.Level)
		assert.Equal(t, "X", result.Positions[0].ProductID)
		assert.Equal(t, 1.0, result.Positions[0].Weight)
	}
}

func TestRecommendTieBreakPrefersLexicalID(t *testing.T) {
	result, err := Recommend(mediumProfile(), []Candidate{
		{ID: "B", ExpectedReturn: 0.05, RiskScore: 0.2},
		{ID: "A", ExpectedReturn: 0.05, RiskScore: 0.2},
	}, Config{})
	require.NoError(t, err)

	require.Len(t, result.Positions, 2)
	assert.Equal(t, "A", result.Positions[0].ProductID)
	assert.Equal(t, "B", result.Positions[1].ProductID)
}

func TestRecommendTieBreakPrefersLowerRisk(t *testing.T) {
	// Both utilities are exactly zero under the high curve (lambda 0.5):
	// A: 0.25 - 0.5*0.5, B: 0.125 - 0.5*0.25. Lexical order alone would put
	// A first; the lower risk score must win.
	result, err := Recommend(highProfile(), []Candidate{
		{ID: "A", ExpectedReturn: 0.25, RiskScore: 0.5},
		{ID: "B", ExpectedReturn: 0.125, RiskScore: 0.25},
	}, Config{})
	require.NoError(t, err)

	require.Len(t, result.Positions, 2)
	assert.Equal(t, "B", result.Positions[0].ProductID)
}

func TestRecommendEqualUtilitiesGetEqualWeights(t *testing.T) {
	result, err := Recommend(mediumProfile(), []Candidate{
		{ID: "A", ExpectedReturn: 0.05, RiskScore: 0.2},
		{ID: "B", ExpectedReturn: 0.05, RiskScore: 0.2},
		{ID: "C", ExpectedReturn: 0.05, RiskScore: 0.2},
		{ID: "D", ExpectedReturn: 0.05, RiskScore: 0.2},
	}, Config{})
	require.NoError(t, err)
	require.Len(t, result.Positions, 4)

	assert.InDelta(t, 1.0, sumWeights(result.Positions), 1e-6)
	for _, p := range result.Positions {
		assert.InDelta(t, 0.25, p.Weight, 0.0002)
	}
}

func TestRecommendFallbackToLowestRisk(t *testing.T) {
	// Everything sits above the low band's ceiling
	result, err := Recommend(lowProfile(), []Candidate{
		{ID: "B", ExpectedReturn: 0.15, RiskScore: 0.8},
		{ID: "A", ExpectedReturn: 0.09, RiskScore: 0.5},
		{ID: "C", ExpectedReturn: 0.12, RiskScore: 0.5},
	}, Config{})
	require.NoError(t, err)

	assert.True(t, result.Fallback)
	require.Len(t, result.Positions, 1)
	// Lowest risk wins, equal risk broken by id
	assert.Equal(t, "A", result.Positions[0].ProductID)
	assert.Equal(t, 1.0, result.Positions[0].Weight)
}

func TestRecommendHonorsMaxPositions(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 9; i++ {
		candidates = append(candidates, Candidate{
			ID:             fmt.Sprintf("P%d", i),
			ExpectedReturn: 0.02 + float64(i)*0.01,
			RiskScore:      0.1 + float64(i)*0.05,
		})
	}

	t.Run("default caps at five", func(t *testing.T) {
		result, err := Recommend(highProfile(), candidates, Config{})
		require.NoError(t, err)
		assert.Len(t, result.Positions, DefaultMaxPositions)
		assert.InDelta(t, 1.0, sumWeights(result.Positions), 1e-6)
	})

	t.Run("explicit cap", func(t *testing.T) {
		result, err := Recommend(highProfile(), candidates, Config{MaxPositions: 3})
		require.NoError(t, err)
		assert.Len(t, result.Positions, 3)
		assert.InDelta(t, 1.0, sumWeights(result.Positions), 1e-6)
	})

	t.Run("cap above set size returns everything viable", func(t *testing.T) {
		result, err := Recommend(highProfile(), candidates, Config{MaxPositions: 50})
		require.NoError(t, err)
		assert.Len(t, result.Positions, 9)
		assert.InDelta(t, 1.0, sumWeights(result.Positions), 1e-6)
	})
}

func TestRecommendWeightsSumToExactlyOne(t *testing.T) {
	candidateSets := [][]Candidate{
		{
			{ID: "A", ExpectedReturn: 0.022, RiskScore: 0.05},
			{ID: "B", ExpectedReturn: 0.038, RiskScore: 0.15},
			{ID: "C", ExpectedReturn: 0.085, RiskScore: 0.45},
		},
		{
			{ID: "A", ExpectedReturn: 0.01, RiskScore: 0.0},
			{ID: "B", ExpectedReturn: 0.02, RiskScore: 0.1},
			{ID: "C", ExpectedReturn: 0.03, RiskScore: 0.2},
			{ID: "D", ExpectedReturn: 0.05, RiskScore: 0.3},
			{ID: "E", ExpectedReturn: 0.08, RiskScore: 0.4},
		},
		{
			{ID: "A", ExpectedReturn: -0.01, RiskScore: 0.2},
			{ID: "B", ExpectedReturn: -0.02, RiskScore: 0.3},
		},
	}

	for i, candidates := range candidateSets {
		for _, profile := range []domain.RiskProfile{lowProfile(), mediumProfile(), highProfile()} {
			result, err := Recommend(profile, candidates, Config{})
			require.NoError(t, err, "set %d level %s", i, profile.Level)

			total := sumWeights(result.Positions)
			assert.InDelta(t, 1.0, total, 1e-6, "set %d level %s", i, profile.Level)

			for _, p := range result.Positions {
				assert.GreaterOrEqual(t, p.Weight, 0.0)
				assert.LessOrEqual(t, p.Weight, 1.0)
			}
		}
	}
}

func TestRecommendNoFabricatedProducts(t *testing.T) {
	candidates := []Candidate{
		{ID: "A", ExpectedReturn: 0.02, RiskScore: 0.1},
		{ID: "B", ExpectedReturn: 0.04, RiskScore: 0.2},
		{ID: "C", ExpectedReturn: 0.09, RiskScore: 0.5},
	}
	known := map[string]bool{"A": true, "B": true, "C": true}

	result, err := Recommend(mediumProfile(), candidates, Config{})
	require.NoError(t, err)

	for _, p := range result.Positions {
		assert.True(t, known[p.ProductID], "unexpected product %s", p.ProductID)
	}
}

func TestRecommendDeterminism(t *testing.T) {
	candidates := []Candidate{
		{ID: "A", ExpectedReturn: 0.022, RiskScore: 0.05},
		{ID: "B", ExpectedReturn: 0.038, RiskScore: 0.15},
		{ID: "C", ExpectedReturn: 0.085, RiskScore: 0.45},
		{ID: "D", ExpectedReturn: 0.15, RiskScore: 0.8},
	}

	first, err := Recommend(highProfile(), candidates, Config{})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		again, err := Recommend(highProfile(), candidates, Config{})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRecommendReturnMonotonicity(t *testing.T) {
	base := []Candidate{
		{ID: "A", ExpectedReturn: 0.02, RiskScore: 0.1},
		{ID: "B", ExpectedReturn: 0.04, RiskScore: 0.2},
		{ID: "C", ExpectedReturn: 0.06, RiskScore: 0.3},
	}

	weightOf := func(positions []Position, id string) float64 {
		for _, p := range positions {
			if p.ProductID == id {
				return p.Weight
			}
		}
		return 0
	}

	before, err := Recommend(mediumProfile(), base, Config{})
	require.NoError(t, err)

	// Raising B's expected return must never lower B's weight
	for _, bump := range []float64{0.005, 0.01, 0.03, 0.10} {
		raised := make([]Candidate, len(base))
		copy(raised, base)
		raised[1].ExpectedReturn = base[1].ExpectedReturn + bump

		after, err := Recommend(mediumProfile(), raised, Config{})
		require.NoError(t, err)

		assert.GreaterOrEqual(t,
			weightOf(after.Positions, "B")+1e-9,
			weightOf(before.Positions, "B"),
			"bump %v", bump)
	}
}

func TestRecommendLambdaOrdersRiskAppetite(t *testing.T) {
	candidates := []Candidate{
		{ID: "safe", ExpectedReturn: 0.03, RiskScore: 0.05},
		{ID: "growth", ExpectedReturn: 0.09, RiskScore: 0.35},
		{ID: "dud", ExpectedReturn: 0.01, RiskScore: 0.3},
	}

	cautious, err := Recommend(mediumProfile(), candidates, Config{})
	require.NoError(t, err)
	bold, err := Recommend(highProfile(), candidates, Config{})
	require.NoError(t, err)

	weightOf := func(positions []Position, id string) float64 {
		for _, p := range positions {
			if p.ProductID == id {
				return p.Weight
			}
		}
		return 0
	}

	// A higher risk appetite shifts weight towards the growth product
	assert.Greater(t,
		weightOf(bold.Positions, "growth"),
		weightOf(cautious.Positions, "growth"))
}

func TestRecommendCustomCurve(t *testing.T) {
	candidates := []Candidate{
		{ID: "A", ExpectedReturn: 0.03, RiskScore: 0.1},
		{ID: "B", ExpectedReturn: 0.08, RiskScore: 0.4},
	}

	// A curve that ignores risk entirely ranks purely by return
	curve := map[domain.RiskLevel]float64{domain.RiskLevelMedium: 0}
	result, err := Recommend(mediumProfile(), candidates, Config{RiskAversionCurve: curve})
	require.NoError(t, err)

	require.Len(t, result.Positions, 2)
	assert.Equal(t, "B", result.Positions[0].ProductID)
}
