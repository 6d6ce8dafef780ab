// Package recommendation computes product allocations from a user's risk
// profile. The engine is a pure function over its inputs; persistence and
// data loading live in the surrounding service.
package recommendation

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/utils"
)

var (
	// ErrInvalidInput marks a malformed profile, config or candidate set.
	// Not retryable, surfaced to the caller as a client error.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientCandidates means no product satisfies the constraints
	// even after the lowest-risk fallback.
	ErrInsufficientCandidates = errors.New("insufficient candidates")
)

const (
	// DefaultMaxPositions caps the allocation size when the config leaves it
	// unset
	DefaultMaxPositions = 5

	weightDecimals = 4

	// utilityOffsetEpsilon keeps shifted utilities strictly positive before
	// normalization
	utilityOffsetEpsilon = 1e-6
)

// DefaultRiskAversionCurve maps each risk level to the aversion coefficient
// lambda used in the utility score. Lower tolerance means a higher penalty on
// risk.
var DefaultRiskAversionCurve = map[domain.RiskLevel]float64{
	domain.RiskLevelLow:    3.0,
	domain.RiskLevelMedium: 1.5,
	domain.RiskLevelHigh:   0.5,
}

// riskBandCeilings is the highest per-product risk score a profile level may
// hold
var riskBandCeilings = map[domain.RiskLevel]float64{
	domain.RiskLevelLow:    0.30,
	domain.RiskLevelMedium: 0.60,
	domain.RiskLevelHigh:   1.00,
}

// Candidate is one investable option offered to the engine
type Candidate struct {
	ID             string
	ExpectedReturn float64 // fractional per annum
	RiskScore      float64 // 0..1, higher = riskier
}

// Position is one line of the resulting allocation. Weights are decimal
// fractions rounded to 4 places and sum to exactly 1.
type Position struct {
	ProductID string  `json:"product_id"`
	Weight    float64 `json:"weight"`
}

// Config tunes the engine. Zero values select the defaults.
type Config struct {
	MaxPositions      int
	RiskAversionCurve map[domain.RiskLevel]float64
}

// Result is an ordered allocation, best-ranked position first. Fallback is
// set when the risk band excluded every candidate and the engine held the
// single lowest-risk one instead.
type Result struct {
	Positions []Position `json:"positions"`
	Fallback  bool       `json:"fallback"`
}

type scoredCandidate struct {
	Candidate
	utility float64
}

// Recommend computes an allocation for the profile over the candidate set.
//
// Each candidate gets a utility of expectedReturn - lambda*riskScore, with
// lambda taken from the risk aversion curve. Candidates above the profile's
// risk-band ceiling are dropped; survivors are ranked by utility (ties:
// lower risk score, then id) and the top MaxPositions receive weights
// proportional to their shifted utilities, rounded to 4 decimals with the
// rounding residual assigned to the top position.
//
// Pure and deterministic: identical inputs produce identical output, no I/O,
// safe for concurrent use.
func Recommend(profile domain.RiskProfile, candidates []Candidate, cfg Config) (*Result, error) {
	if profile.ToleranceScore < 0 || profile.ToleranceScore > 100 {
		return nil, fmt.Errorf("%w: tolerance score %v outside [0, 100]", ErrInvalidInput, profile.ToleranceScore)
	}
	if !profile.Level.Valid() {
		return nil, fmt.Errorf("%w: unknown risk level %q", ErrInvalidInput, profile.Level)
	}
	if cfg.MaxPositions < 0 {
		return nil, fmt.Errorf("%w: max positions cannot be negative, got %d", ErrInvalidInput, cfg.MaxPositions)
	}
	maxPositions := cfg.MaxPositions
	if maxPositions == 0 {
		maxPositions = DefaultMaxPositions
	}

	curve := cfg.RiskAversionCurve
	if curve == nil {
		curve = DefaultRiskAversionCurve
	}
	lambda, ok := curve[profile.Level]
	if !ok {
		return nil, fmt.Errorf("%w: risk aversion curve has no coefficient for level %q", ErrInvalidInput, profile.Level)
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: empty candidate set", ErrInsufficientCandidates)
	}
	for _, c := range candidates {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: candidate with empty id", ErrInvalidInput)
		}
		if c.RiskScore < 0 || c.RiskScore > 1 {
			return nil, fmt.Errorf("%w: candidate %s risk score %v outside [0, 1]", ErrInvalidInput, c.ID, c.RiskScore)
		}
		if math.IsNaN(c.ExpectedReturn) || math.IsInf(c.ExpectedReturn, 0) {
			return nil, fmt.Errorf("%w: candidate %s has a non-finite expected return", ErrInvalidInput, c.ID)
		}
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, scoredCandidate{
			Candidate: c,
			utility:   c.ExpectedReturn - lambda*c.RiskScore,
		})
	}

	ceiling := riskBandCeilings[profile.Level]
	viable := make([]scoredCandidate, 0, len(scored))
	for _, sc := range scored {
		if sc.RiskScore <= ceiling {
			viable = append(viable, sc)
		}
	}

	// Documented fallback: when the ceiling excludes every candidate, hold
	// the single lowest-risk one at full weight instead of failing.
	if len(viable) == 0 {
		best := scored[0]
		for _, sc := range scored[1:] {
			if sc.RiskScore < best.RiskScore ||
				(sc.RiskScore == best.RiskScore && sc.ID < best.ID) {
				best = sc
			}
		}
		return &Result{
			Positions: []Position{{ProductID: best.ID, Weight: 1.0}},
			Fallback:  true,
		}, nil
	}

	rankCandidates(viable)
	if len(viable) > maxPositions {
		viable = viable[:maxPositions]
	}

	return &Result{Positions: weigh(viable)}, nil
}

// rankCandidates orders by utility descending. Ties prefer the lower risk
// score, then the lexically smaller id, so equal inputs always rank the same
// way.
func rankCandidates(list []scoredCandidate) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].utility != list[j].utility {
			return list[i].utility > list[j].utility
		}
		if list[i].RiskScore != list[j].RiskScore {
			return list[i].RiskScore < list[j].RiskScore
		}
		return list[i].ID < list[j].ID
	})
}

// weigh converts ranked utilities into weights. Utilities are shifted by
// |min|+epsilon so they are strictly positive, then normalized and rounded
// to 4 decimals; the rounding residual goes to the top-ranked position so
// the weights sum to exactly 1.0000.
func weigh(ranked []scoredCandidate) []Position {
	minUtility := ranked[0].utility
	for _, sc := range ranked[1:] {
		if sc.utility < minUtility {
			minUtility = sc.utility
		}
	}
	offset := math.Abs(minUtility) + utilityOffsetEpsilon

	total := 0.0
	shifted := make([]float64, len(ranked))
	for i, sc := range ranked {
		shifted[i] = sc.utility + offset
		total += shifted[i]
	}

	positions := make([]Position, len(ranked))
	roundedSum := 0.0
	for i, sc := range ranked {
		w := utils.RoundTo(shifted[i]/total, weightDecimals)
		positions[i] = Position{ProductID: sc.ID, Weight: w}
		roundedSum += w
	}

	residual := 1.0 - roundedSum
	if residual != 0 {
		positions[0].Weight = utils.RoundTo(positions[0].Weight+residual, weightDecimals)
	}

	return positions
}
