// Package domain holds types shared across modules.
package domain

// DefaultUserID identifies the single local user. All user-scoped APIs
// accept an explicit userID so multi-user support stays possible.
const DefaultUserID = "default_user"

// BillType distinguishes money in from money out
type BillType string

const (
	BillTypeIncome  BillType = "income"
	BillTypeExpense BillType = "expense"
)

// Valid reports whether the bill type is a known value
func (t BillType) Valid() bool {
	return t == BillTypeIncome || t == BillTypeExpense
}

// RiskLevel is the coarse risk classification used by profiles and products
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

// Valid reports whether the risk level is a known value
func (l RiskLevel) Valid() bool {
	return l == RiskLevelLow || l == RiskLevelMedium || l == RiskLevelHigh
}

// ProductType classifies catalog products
type ProductType string

const (
	ProductTypeFund      ProductType = "fund"
	ProductTypeInsurance ProductType = "insurance"
	ProductTypeDeposit   ProductType = "deposit"
	ProductTypeBond      ProductType = "bond"
	ProductTypeStock     ProductType = "stock"
)

// Valid reports whether the product type is a known value
func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeFund, ProductTypeInsurance, ProductTypeDeposit, ProductTypeBond, ProductTypeStock:
		return true
	}
	return false
}

// AdviceKind selects which prompt an advice request uses
type AdviceKind string

const (
	AdviceKindFinancial  AdviceKind = "financial"  // budgeting and savings guidance
	AdviceKindInvestment AdviceKind = "investment" // product selection guidance
	AdviceKindPortfolio  AdviceKind = "portfolio"  // allocation plan explanation
)

// Valid reports whether the advice kind is a known value
func (k AdviceKind) Valid() bool {
	return k == AdviceKindFinancial || k == AdviceKindInvestment || k == AdviceKindPortfolio
}

// IncomeCategories lists the accepted categories for income bills
var IncomeCategories = []string{"salary", "bonus", "investment", "part_time", "other"}

// ExpenseCategories lists the accepted categories for expense bills
var ExpenseCategories = []string{
	"food", "transport", "shopping", "entertainment", "health",
	"education", "housing", "utilities", "communication", "insurance", "other",
}

// GoalTypes lists the accepted savings goal types
var GoalTypes = []string{
	"emergency", "vacation", "house", "car", "education",
	"retirement", "investment", "other",
}

// ValidBillCategory reports whether category is accepted for the given bill type
func ValidBillCategory(t BillType, category string) bool {
	var categories []string
	switch t {
	case BillTypeIncome:
		categories = IncomeCategories
	case BillTypeExpense:
		categories = ExpenseCategories
	default:
		return false
	}
	for _, c := range categories {
		if c == category {
			return true
		}
	}
	return false
}

// ValidGoalType reports whether goalType is a known savings goal type
func ValidGoalType(goalType string) bool {
	for _, g := range GoalTypes {
		if g == goalType {
			return true
		}
	}
	return false
}
