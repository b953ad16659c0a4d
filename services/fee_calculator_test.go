package services

import (
	"testing"

	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApplicationFeeBreakdown(t *testing.T) {
	fee := ApplicationFeeBreakdown(decimal.NewFromInt(1000), decimal.NewFromInt(500))

	assert.Equal(t, "11600", fee.Total.String())
	labels := make([]string, len(fee.Components))
	for i, c := range fee.Components {
		labels[i] = c.Label
	}
	assert.Equal(t, []string{"First month rent", "Stall rights fee", "Application fee", "Security bond"}, labels)
}

func TestApplicationFeeBreakdown_RoundsCentavos(t *testing.T) {
	fee := ApplicationFeeBreakdown(decimal.RequireFromString("1250.555"), decimal.RequireFromString("0.004"))
	assert.Equal(t, "11350.56", fee.Total.String())
}

func TestInstallmentBreakdown(t *testing.T) {
	installments := []Installment{
		{Period: "2025-01", Amount: decimal.NewFromInt(500)},
		{Period: "2025-02", Amount: decimal.NewFromInt(520), Surcharge: decimal.NewFromInt(20)},
	}

	all := InstallmentBreakdown("Rent", installments)
	assert.Equal(t, "1040", all.Total.String())
	assert.Len(t, all.Components, 3)
	assert.Equal(t, "Surcharge 2025-02", all.Components[2].Label)

	single := InstallmentBreakdown("Rent", installments[1:])
	assert.Equal(t, "540", single.Total.String())

	empty := InstallmentBreakdown("Tax", nil)
	assert.True(t, empty.Total.IsZero())
}

func TestAssessmentTotal(t *testing.T) {
	fees := []models.AssessmentItem{
		{FeeName: "Mayor's permit", Amount: decimal.NewFromInt(500)},
		{FeeName: "Sanitary fee", Amount: decimal.RequireFromString("150.50")},
	}

	total := AssessmentTotal(decimal.NewFromInt(3000), fees, decimal.NewFromInt(100), decimal.NewFromInt(250))
	assert.Equal(t, "3500.5", total.String())

	// discounts never push the total below zero
	total = AssessmentTotal(decimal.NewFromInt(100), nil, decimal.Zero, decimal.NewFromInt(1000))
	assert.True(t, total.IsZero())
}
