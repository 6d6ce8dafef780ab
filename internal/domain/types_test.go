package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBillTypeValid(t *testing.T) {
	assert.True(t, BillTypeIncome.Valid())
	assert.True(t, BillTypeExpense.Valid())
	assert.False(t, BillType("transfer").Valid())
}

func TestRiskLevelValid(t *testing.T) {
	assert.True(t, RiskLevelLow.Valid())
	assert.True(t, RiskLevelMedium.Valid())
	assert.True(t, RiskLevelHigh.Valid())
	assert.False(t, RiskLevel("extreme").Valid())
	assert.False(t, RiskLevel("").Valid())
}

func TestProductTypeValid(t *testing.T) {
	for _, pt := range []ProductType{ProductTypeFund, ProductTypeInsurance, ProductTypeDeposit, ProductTypeBond, ProductTypeStock} {
		assert.True(t, pt.Valid(), string(pt))
	}
	assert.False(t, ProductType("crypto").Valid())
}

func TestValidBillCategory(t *testing.T) {
	assert.True(t, ValidBillCategory(BillTypeIncome, "salary"))
	assert.True(t, ValidBillCategory(BillTypeExpense, "food"))
	assert.False(t, ValidBillCategory(BillTypeIncome, "food"), "expense category on income bill")
	assert.False(t, ValidBillCategory(BillTypeExpense, "salary"), "income category on expense bill")
	assert.False(t, ValidBillCategory(BillType("unknown"), "other"))
}

func TestValidGoalType(t *testing.T) {
	assert.True(t, ValidGoalType("emergency"))
	assert.True(t, ValidGoalType("retirement"))
	assert.False(t, ValidGoalType("yacht"))
}
