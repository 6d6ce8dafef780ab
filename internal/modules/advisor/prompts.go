package advisor

import (
	"fmt"
	"strings"

	"github.com/finsight/finsight/internal/clients/aiadvisor"
	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/modules/dashboard"
	"github.com/finsight/finsight/internal/modules/frontier"
)

const (
	notAssessed = "not assessed"

	// plainTextInstruction keeps upstream output renderable as-is. The
	// frontend shows advice verbatim, markdown markers would leak through.
	plainTextInstruction = "Output plain text only. Do not use markdown formatting of any kind: " +
		"no heading markers, no bold or italic asterisks, no inline code backticks, no list markers. " +
		"Separate sections with blank lines."
)

// promptInputs is the live data a prompt is built from. Optional parts are
// nil when the user has not supplied them.
type promptInputs struct {
	summary     *dashboard.Summary
	finProfile  *domain.FinancialProfile
	riskProfile *domain.RiskProfile
	products    []domain.Product
	plan        *frontier.Plan
}

// investmentStyle labels a risk level the way product copy does
func investmentStyle(level domain.RiskLevel) string {
	switch level {
	case domain.RiskLevelLow:
		return "conservative and stability-focused"
	case domain.RiskLevelMedium:
		return "balanced"
	case domain.RiskLevelHigh:
		return "growth-oriented"
	}
	return "balanced"
}

func percentStr(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*100)
}

func moneyStr(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// buildFinancialPrompt asks for budgeting and savings guidance from the
// current month's numbers
func buildFinancialPrompt(in promptInputs) (aiadvisor.ChatRequest, map[string]string) {
	profileType := notAssessed
	if in.finProfile != nil && in.finProfile.Type != "" {
		profileType = in.finProfile.Type
	}
	riskLevel := notAssessed
	if in.riskProfile != nil {
		riskLevel = string(in.riskProfile.Level)
	}

	var b strings.Builder
	b.WriteString("Based on the following user information, provide personalized financial advice.\n\n")
	b.WriteString("Current financial situation:\n")
	fmt.Fprintf(&b, "- Income this month: %s\n", moneyStr(in.summary.TotalIncome))
	fmt.Fprintf(&b, "- Expenses this month: %s\n", moneyStr(in.summary.TotalExpense))
	fmt.Fprintf(&b, "- Balance this month: %s\n", moneyStr(in.summary.Balance))
	fmt.Fprintf(&b, "- Financial health score: %d out of 100\n\n", in.summary.HealthScore)
	b.WriteString("User profile:\n")
	fmt.Fprintf(&b, "- Financial type: %s\n", profileType)
	fmt.Fprintf(&b, "- Risk level: %s\n\n", riskLevel)
	b.WriteString("Please cover:\n")
	b.WriteString("1. Financial management advice\n")
	b.WriteString("2. Savings advice\n")
	b.WriteString("3. Investment advice\n")
	b.WriteString("4. Areas that need improvement\n\n")
	b.WriteString("Answer clearly and practically, in language an ordinary user understands.")

	req := aiadvisor.ChatRequest{
		Messages: []aiadvisor.ChatMessage{
			{Role: "system", Content: "You are a professional personal-finance advisor. Give practical, " +
				"safety-conscious guidance ordinary users can act on. " + plainTextInstruction},
			{Role: "user", Content: b.String()},
		},
		MaxTokens:   1000,
		Temperature: 0.7,
	}

	promptCtx := map[string]string{
		"month":         in.summary.Month,
		"total_income":  moneyStr(in.summary.TotalIncome),
		"total_expense": moneyStr(in.summary.TotalExpense),
		"balance":       moneyStr(in.summary.Balance),
		"health_score":  fmt.Sprintf("%d", in.summary.HealthScore),
		"profile_type":  profileType,
		"risk_level":    riskLevel,
	}
	return req, promptCtx
}

// buildInvestmentPrompt asks for product selection guidance matched to the
// user's assessed risk level
func buildInvestmentPrompt(in promptInputs) (aiadvisor.ChatRequest, map[string]string) {
	style := investmentStyle(in.riskProfile.Level)

	var names []string
	var b strings.Builder
	b.WriteString("Generate investment advice for this user.\n\n")
	fmt.Fprintf(&b, "Risk level: %s\n", in.riskProfile.Level)
	fmt.Fprintf(&b, "Investment style: %s\n\n", style)
	b.WriteString("Products suitable for this risk level:\n")
	for _, p := range in.products {
		names = append(names, p.Name)
		fmt.Fprintf(&b, "- %s (%s, %s risk, expected return %s)\n",
			p.Name, p.Type, p.RiskLevel, percentStr(p.ExpectedReturn))
	}
	b.WriteString("\nCurrent financial situation:\n")
	fmt.Fprintf(&b, "- Income this month: %s\n", moneyStr(in.summary.TotalIncome))
	fmt.Fprintf(&b, "- Balance this month: %s\n\n", moneyStr(in.summary.Balance))
	b.WriteString("Please cover:\n")
	b.WriteString("1. Asset allocation advice\n")
	b.WriteString("2. Specific product recommendations\n")
	b.WriteString("3. Investment timing\n")
	b.WriteString("4. Risk control measures\n")
	b.WriteString("5. How much to invest\n\n")
	fmt.Fprintf(&b, "The advice should be concrete, practical, and suit a %s investor.", style)

	req := aiadvisor.ChatRequest{
		Messages: []aiadvisor.ChatMessage{
			{Role: "system", Content: "You are a professional investment advisor. Tailor every suggestion " +
				"to the user's assessed risk tolerance. " + plainTextInstruction},
			{Role: "user", Content: b.String()},
		},
		MaxTokens:   1200,
		Temperature: 0.6,
	}

	promptCtx := map[string]string{
		"risk_level":   string(in.riskProfile.Level),
		"style":        style,
		"products":     strings.Join(names, ", "),
		"total_income": moneyStr(in.summary.TotalIncome),
		"balance":      moneyStr(in.summary.Balance),
	}
	return req, promptCtx
}

// buildPortfolioPrompt asks for a professional explanation of a solved
// allocation plan
func buildPortfolioPrompt(in promptInputs) (aiadvisor.ChatRequest, map[string]string) {
	score := frontier.RiskScoreFromTolerance(in.riskProfile.ToleranceScore)

	var b strings.Builder
	b.WriteString("Using the user profile and portfolio below, write a professional explanation of the recommended allocation.\n\n")
	b.WriteString("Address the user directly as \"you\", never in the third person.\n\n")
	fmt.Fprintf(&b, "Risk preference score: %.1f out of 10 (%s)\n", score, investmentStyle(in.riskProfile.Level))
	b.WriteString("\nPortfolio allocation:\n")
	for i, item := range in.plan.Items {
		fmt.Fprintf(&b, "%d. %s: %.1f%%, about %s\n", i+1, item.FundName, item.WeightPercent, moneyStr(item.Amount))
	}
	b.WriteString("\nPortfolio metrics:\n")
	fmt.Fprintf(&b, "- Expected annual return: %s\n", percentStr(in.plan.ExpectedReturn))
	fmt.Fprintf(&b, "- Expected annual volatility: %s\n", percentStr(in.plan.Volatility))
	fmt.Fprintf(&b, "- Estimated maximum drawdown: %s\n\n", percentStr(in.plan.MaxDrawdown))
	b.WriteString("Structure the explanation as plain-text sections:\n\n")
	b.WriteString("Portfolio overview\n")
	b.WriteString("Summarize the portfolio's character and who it suits.\n\n")
	b.WriteString("Theoretical basis\n")
	b.WriteString("State that the recommendation uses the mean-variance model of modern portfolio theory ")
	b.WriteString("and explain the efficient frontier and how the optimal point was chosen.\n\n")
	b.WriteString("Personal fit\n")
	b.WriteString("Relate the allocation to the user's risk score.\n\n")
	b.WriteString("Allocation rationale\n")
	b.WriteString("Explain the role of the lower-risk funds, the balanced funds and the higher-risk funds, ")
	b.WriteString("and how diversification across them reduces risk.\n\n")
	b.WriteString("Risk disclosure\n")
	b.WriteString("Explain what the expected return, volatility and drawdown figures mean, and that actual ")
	b.WriteString("results can deviate.\n\n")
	b.WriteString("Next steps\n")
	b.WriteString("Suggest how to maintain and adjust the portfolio over time.\n\n")
	b.WriteString("Use professional but accessible language and explain any technical term briefly.")

	req := aiadvisor.ChatRequest{
		Messages: []aiadvisor.ChatMessage{
			{Role: "system", Content: "You are a professional financial advisor versed in modern portfolio " +
				"theory. Explain allocations in professional, accessible language. " + plainTextInstruction},
			{Role: "user", Content: b.String()},
		},
		MaxTokens:   1000,
		Temperature: 0.7,
	}

	promptCtx := map[string]string{
		"risk_level":      string(in.riskProfile.Level),
		"tolerance_score": fmt.Sprintf("%.2f", in.riskProfile.ToleranceScore),
		"risk_score":      fmt.Sprintf("%.2f", score),
		"expected_return": percentStr(in.plan.ExpectedReturn),
		"volatility":      percentStr(in.plan.Volatility),
		"max_drawdown":    percentStr(in.plan.MaxDrawdown),
		"positions":       fmt.Sprintf("%d", len(in.plan.Items)),
	}
	return req, promptCtx
}

// assessmentRequiredNotice is streamed instead of advice when a risk
// assessment is required but missing
const assessmentRequiredNotice = "Please complete the risk assessment questionnaire first, " +
	"so the advice can match your risk tolerance."

// fallbackAdvice renders a deterministic rule-based text for a kind when the
// AI upstream is not configured
func fallbackAdvice(kind domain.AdviceKind, in promptInputs) string {
	switch kind {
	case domain.AdviceKindInvestment:
		return fallbackInvestment(in)
	case domain.AdviceKindPortfolio:
		return fallbackExplanation(in.plan, in.riskProfile)
	default:
		return fallbackFinancial(in)
	}
}

func fallbackFinancial(in promptInputs) string {
	s := in.summary

	var b strings.Builder
	fmt.Fprintf(&b, "Financial review for %s\n\n", s.Month)
	fmt.Fprintf(&b, "Income this month was %s and expenses were %s, leaving a balance of %s. ",
		moneyStr(s.TotalIncome), moneyStr(s.TotalExpense), moneyStr(s.Balance))
	fmt.Fprintf(&b, "Your financial health score is %d out of 100.\n\n", s.HealthScore)

	switch {
	case s.TotalIncome == 0:
		b.WriteString("No income was recorded this month. Start by logging all money movements so the numbers reflect your real situation.\n")
	case s.Balance < 0:
		b.WriteString("You spent more than you earned this month. Review the largest expense categories and set a monthly budget before considering investments.\n")
	case s.Balance/s.TotalIncome < 0.1:
		b.WriteString("Your savings rate is below 10%. Try to set aside a fixed share of income at the start of each month and keep discretionary spending within a budget.\n")
	default:
		b.WriteString("You are saving a healthy share of your income. Keep an emergency fund of three to six months of expenses in liquid products, and invest the surplus according to your risk tolerance.\n")
	}

	b.WriteString("\nThe AI advisor is not configured, so this is a rule-based summary of your data.")
	return b.String()
}

func fallbackInvestment(in promptInputs) string {
	style := investmentStyle(in.riskProfile.Level)

	var b strings.Builder
	fmt.Fprintf(&b, "Investment guidance for a %s investor\n\n", style)
	b.WriteString("Products matched to your assessed risk level:\n")
	for _, p := range in.products {
		fmt.Fprintf(&b, "%s: %s risk, expected return %s\n", p.Name, p.RiskLevel, percentStr(p.ExpectedReturn))
	}
	b.WriteString("\nSpread new investments across several of these products rather than concentrating in one, ")
	b.WriteString("keep an emergency reserve outside investments, and review the mix when your situation changes.\n\n")
	b.WriteString("The AI advisor is not configured, so this is a rule-based summary of your data.")
	return b.String()
}

// fallbackExplanation renders the deterministic plan explanation used when
// the AI upstream is unavailable
func fallbackExplanation(plan *frontier.Plan, riskProfile *domain.RiskProfile) string {
	score := frontier.RiskScoreFromTolerance(riskProfile.ToleranceScore)

	var b strings.Builder
	b.WriteString("Portfolio explanation\n\n")
	b.WriteString("Theoretical basis\n")
	b.WriteString("This portfolio was constructed with the mean-variance model of modern portfolio theory. ")
	b.WriteString("The model finds, for each level of risk, the combination of funds with the highest expected ")
	b.WriteString("return, the efficient frontier, and picks the point on it that matches your risk tolerance.\n\n")
	b.WriteString("Personal fit\n")
	fmt.Fprintf(&b, "Your risk preference score of %.1f out of 10 selects a %d-fund allocation:\n", score, len(plan.Items))
	for _, item := range plan.Items {
		fmt.Fprintf(&b, "%s: %.1f%%\n", item.FundName, item.WeightPercent)
	}
	b.WriteString("\nPortfolio characteristics\n")
	fmt.Fprintf(&b, "Expected annual return: %s\n", percentStr(plan.ExpectedReturn))
	fmt.Fprintf(&b, "Expected annual volatility: %s\n", percentStr(plan.Volatility))
	fmt.Fprintf(&b, "Estimated maximum drawdown: %s\n\n", percentStr(plan.MaxDrawdown))
	b.WriteString("Risk disclosure\n")
	b.WriteString("Investing involves risk. Past performance does not guarantee future results and actual ")
	b.WriteString("returns can deviate from expectations. Review the portfolio periodically and adjust it ")
	b.WriteString("as markets and your circumstances change.\n\n")
	b.WriteString("This explanation is for reference only and is not an offer to invest.")
	return b.String()
}
