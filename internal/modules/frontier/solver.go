// Package frontier solves mean-variance portfolio allocations over a fixed
// model universe of ten funds and maps risk scores onto the efficient
// frontier.
package frontier

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/finsight/finsight/internal/utils"
)

const (
	// penaltyWeight scales the quadratic penalties standing in for the
	// equality constraints
	penaltyWeight = 1000.0

	// drawdownVolMultiple estimates max drawdown from volatility. An
	// empirical shortcut, real drawdowns need price history.
	drawdownVolMultiple = 2.5

	// minPlanWeight drops dust positions from formatted plans and risk
	// mapped portfolios
	minPlanWeight = 0.001

	// DefaultFrontierPoints is the frontier resolution when the caller
	// passes 0
	DefaultFrontierPoints = 100
)

// Portfolio is a weight vector over the fund universe with its derived
// metrics
type Portfolio struct {
	Weights        []float64 `json:"weights"`
	ExpectedReturn float64   `json:"expected_return"`
	Volatility     float64   `json:"volatility"`
	MaxDrawdown    float64   `json:"max_drawdown"`
}

// FrontierPoint is one optimized portfolio along the efficient frontier
type FrontierPoint struct {
	TargetReturn float64 `json:"target_return"`
	Portfolio
}

// PlanItem is one fund line of a formatted investment plan
type PlanItem struct {
	FundName      string  `json:"fund_name"`
	Weight        float64 `json:"weight"`
	WeightPercent float64 `json:"weight_percent"`
	Amount        float64 `json:"amount"`
}

// Plan is a human-presentable allocation of a concrete investment amount
type Plan struct {
	Items          []PlanItem `json:"items"`
	ExpectedReturn float64    `json:"expected_return"`
	Volatility     float64    `json:"volatility"`
	MaxDrawdown    float64    `json:"max_drawdown"`
}

// Solver performs mean-variance optimization over the model universe
type Solver struct {
	mu    []float64
	sigma *mat.Dense
	n     int
	log   zerolog.Logger
}

// NewSolver creates a solver over the built-in ten-fund universe
func NewSolver(log zerolog.Logger) *Solver {
	n := len(fundNames)
	sigma := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sigma.Set(i, j, covariance[i][j])
		}
	}

	return &Solver{
		mu:    expectedReturns,
		sigma: sigma,
		n:     n,
		log:   log.With().Str("service", "frontier").Logger(),
	}
}

// Metrics computes expected return, volatility and the drawdown estimate for
// a weight vector
func (s *Solver) Metrics(weights []float64) (float64, float64, float64) {
	var ret float64
	for i := 0; i < s.n && i < len(weights); i++ {
		ret += weights[i] * s.mu[i]
	}

	var variance float64
	for i := 0; i < s.n && i < len(weights); i++ {
		for j := 0; j < s.n && j < len(weights); j++ {
			variance += weights[i] * weights[j] * s.sigma.At(i, j)
		}
	}

	vol := math.Sqrt(math.Max(variance, 0))
	return ret, vol, vol * drawdownVolMultiple
}

// MinVariance finds the lowest-volatility fully-invested portfolio
func (s *Solver) MinVariance() (*Portfolio, error) {
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xProj := projectToBounds(x)
			obj := s.variance(xProj)
			obj += sumPenalty(xProj)
			return obj
		},
		Grad: func(grad, x []float64) {
			xProj := projectToBounds(x)
			s.varianceGrad(grad, xProj)
			addSumPenaltyGrad(grad, xProj)
		},
	}

	weights, err := s.solve(problem)
	if err != nil {
		return nil, fmt.Errorf("min variance optimization failed: %w", err)
	}

	return s.portfolioFor(weights), nil
}

// ForTargetReturn finds the lowest-volatility portfolio achieving the target
// expected return
func (s *Solver) ForTargetReturn(target float64) (*Portfolio, error) {
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xProj := projectToBounds(x)
			obj := s.variance(xProj)
			obj += sumPenalty(xProj)
			diff := s.expectedReturn(xProj) - target
			obj += penaltyWeight * diff * diff
			return obj
		},
		Grad: func(grad, x []float64) {
			xProj := projectToBounds(x)
			s.varianceGrad(grad, xProj)
			addSumPenaltyGrad(grad, xProj)
			diff := s.expectedReturn(xProj) - target
			for i := 0; i < s.n; i++ {
				grad[i] += 2 * penaltyWeight * diff * s.mu[i]
			}
		},
	}

	weights, err := s.solve(problem)
	if err != nil {
		return nil, fmt.Errorf("target return %.4f optimization failed: %w", target, err)
	}

	return s.portfolioFor(weights), nil
}

// ForTargetRisk finds the highest-return portfolio at the target volatility
func (s *Solver) ForTargetRisk(target float64) (*Portfolio, error) {
	if target <= 0 {
		return nil, fmt.Errorf("target volatility must be positive, got %v", target)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xProj := projectToBounds(x)
			obj := -s.expectedReturn(xProj)
			obj += sumPenalty(xProj)
			vol := math.Sqrt(math.Max(s.variance(xProj), 0))
			diff := vol - target
			obj += penaltyWeight * diff * diff
			return obj
		},
		Grad: func(grad, x []float64) {
			xProj := projectToBounds(x)
			for i := 0; i < s.n; i++ {
				grad[i] = -s.mu[i]
			}
			addSumPenaltyGrad(grad, xProj)

			vol := math.Sqrt(math.Max(s.variance(xProj), 1e-12))
			diff := vol - target
			// d vol / d w_i = (Sigma w)_i / vol
			for i := 0; i < s.n; i++ {
				var sigmaRow float64
				for j := 0; j < s.n; j++ {
					sigmaRow += s.sigma.At(i, j) * xProj[j]
				}
				grad[i] += 2 * penaltyWeight * diff * sigmaRow / vol
			}
		},
	}

	weights, err := s.solve(problem)
	if err != nil {
		return nil, fmt.Errorf("target risk %.4f optimization failed: %w", target, err)
	}

	return s.portfolioFor(weights), nil
}

// EfficientFrontier sweeps target returns from the min-variance return up to
// 90% of the best single-fund return and solves each point. Points that fail
// to converge are skipped.
func (s *Solver) EfficientFrontier(points int) ([]FrontierPoint, error) {
	if points <= 0 {
		points = DefaultFrontierPoints
	}
	defer utils.OperationTimer("efficient_frontier", s.log)()

	minVar, err := s.MinVariance()
	if err != nil {
		return nil, err
	}

	maxReturn := s.mu[0]
	for _, r := range s.mu[1:] {
		if r > maxReturn {
			maxReturn = r
		}
	}

	start := minVar.ExpectedReturn
	end := maxReturn * 0.9
	if end <= start {
		return []FrontierPoint{{TargetReturn: start, Portfolio: *minVar}}, nil
	}

	step := (end - start) / float64(points-1)
	frontier := make([]FrontierPoint, 0, points)
	skipped := 0
	for i := 0; i < points; i++ {
		target := start + float64(i)*step
		p, err := s.ForTargetReturn(target)
		if err != nil {
			skipped++
			continue
		}
		frontier = append(frontier, FrontierPoint{TargetReturn: target, Portfolio: *p})
	}

	if skipped > 0 {
		s.log.Warn().Int("skipped", skipped).Int("points", points).Msg("Some frontier points did not converge")
	}
	if len(frontier) == 0 {
		return nil, fmt.Errorf("no frontier point converged")
	}

	s.log.Debug().Int("points", len(frontier)).Msg("Efficient frontier computed")
	return frontier, nil
}

// PortfolioForRiskScore maps a 1-10 risk score onto the frontier: the score
// picks a percentile along the curve, dust weights below 0.1% are dropped and
// the rest renormalized. An empty frontier falls back to equal weights.
func (s *Solver) PortfolioForRiskScore(score float64, frontier []FrontierPoint) (*Portfolio, error) {
	if score < 1 || score > 10 {
		return nil, fmt.Errorf("risk score must be within [1, 10], got %v", score)
	}

	if len(frontier) == 0 {
		s.log.Warn().Msg("Empty frontier, falling back to equal weights")
		weights := make([]float64, s.n)
		for i := range weights {
			weights[i] = 1.0 / float64(s.n)
		}
		return s.portfolioFor(weights), nil
	}

	normalized := (score - 1) / 9
	index := int(normalized * float64(len(frontier)-1))
	selected := frontier[index]

	weights := make([]float64, len(selected.Weights))
	copy(weights, selected.Weights)
	total := 0.0
	for i, w := range weights {
		if w < minPlanWeight {
			weights[i] = 0
		}
		total += weights[i]
	}
	if total > 0 {
		for i := range weights {
			weights[i] /= total
		}
	}

	return s.portfolioFor(weights), nil
}

// RiskScoreFromTolerance converts a 0-100 tolerance score to the solver's
// 1-10 scale
func RiskScoreFromTolerance(tolerance float64) float64 {
	score := 1 + utils.Clamp(tolerance, 0, 100)/100*9
	return utils.RoundTo(score, 2)
}

// PlanForTolerance runs the full pipeline for one user: tolerance to risk
// score, frontier sweep, percentile selection, formatted plan over the
// given amount.
func (s *Solver) PlanForTolerance(tolerance, amount float64) (*Plan, error) {
	score := RiskScoreFromTolerance(tolerance)

	frontier, err := s.EfficientFrontier(DefaultFrontierPoints)
	if err != nil {
		return nil, err
	}

	p, err := s.PortfolioForRiskScore(score, frontier)
	if err != nil {
		return nil, err
	}

	return s.FormatPlan(p, amount), nil
}

// FormatPlan turns a portfolio into fund lines for a concrete amount,
// largest position first, dust below 0.1% omitted
func (s *Solver) FormatPlan(p *Portfolio, amount float64) *Plan {
	items := make([]PlanItem, 0, len(p.Weights))
	for i, w := range p.Weights {
		if i >= len(fundNames) || w <= minPlanWeight {
			continue
		}
		items = append(items, PlanItem{
			FundName:      fundNames[i],
			Weight:        utils.RoundTo(w, 4),
			WeightPercent: utils.RoundTo(w*100, 2),
			Amount:        utils.RoundTo(w*amount, 2),
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Weight > items[j].Weight
	})

	return &Plan{
		Items:          items,
		ExpectedReturn: p.ExpectedReturn,
		Volatility:     p.Volatility,
		MaxDrawdown:    p.MaxDrawdown,
	}
}

// solve runs the minimization from an equal-weight start, retrying with BFGS
// when Nelder-Mead does not converge, and returns the projected, normalized
// weight vector.
func (s *Solver) solve(problem optimize.Problem) ([]float64, error) {
	initial := make([]float64, s.n)
	for i := range initial {
		initial[i] = 1.0 / float64(s.n)
	}

	successStatuses := map[optimize.Status]bool{
		optimize.Success:             true,
		optimize.GradientThreshold:   true,
		optimize.FunctionConvergence: true,
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
	if err != nil || !successStatuses[result.Status] {
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
		if err != nil {
			return nil, fmt.Errorf("optimization failed: %w", err)
		}
		if !successStatuses[result.Status] {
			return nil, fmt.Errorf("optimization did not converge: status=%v", result.Status)
		}
	}

	weights := projectToBounds(result.X)
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("optimization produced a degenerate weight vector")
	}
	for i := range weights {
		weights[i] /= total
	}

	return weights, nil
}

func (s *Solver) portfolioFor(weights []float64) *Portfolio {
	ret, vol, drawdown := s.Metrics(weights)
	return &Portfolio{
		Weights:        weights,
		ExpectedReturn: ret,
		Volatility:     vol,
		MaxDrawdown:    drawdown,
	}
}

func (s *Solver) expectedReturn(w []float64) float64 {
	var ret float64
	for i := 0; i < s.n; i++ {
		ret += s.mu[i] * w[i]
	}
	return ret
}

func (s *Solver) variance(w []float64) float64 {
	var variance float64
	for i := 0; i < s.n; i++ {
		for j := 0; j < s.n; j++ {
			variance += w[i] * w[j] * s.sigma.At(i, j)
		}
	}
	return variance
}

func (s *Solver) varianceGrad(grad, w []float64) {
	for i := 0; i < s.n; i++ {
		grad[i] = 0
		for j := 0; j < s.n; j++ {
			grad[i] += 2 * s.sigma.At(i, j) * w[j]
		}
	}
}

func projectToBounds(x []float64) []float64 {
	projected := make([]float64, len(x))
	for i, v := range x {
		projected[i] = utils.Clamp(v, 0, 1)
	}
	return projected
}

func sumPenalty(w []float64) float64 {
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	return penaltyWeight * (sum - 1.0) * (sum - 1.0)
}

func addSumPenaltyGrad(grad, w []float64) {
	sum := 0.0
	for _, v := range w {
		sum += v
	}
	for i := range grad {
		grad[i] += 2 * penaltyWeight * (sum - 1.0)
	}
}
