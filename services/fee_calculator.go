package services

import (
	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/fadhlanhapp/egov-portal/utils"
	"github.com/shopspring/decimal"
)

// Fixed charges collected with every stall application
var (
	ApplicationFee = decimal.NewFromInt(100)
	SecurityBond   = decimal.NewFromInt(10000)
)

// FeeBreakdown is a labelled amount due
type FeeBreakdown struct {
	Components []models.FeeComponent
	Total      decimal.Decimal
}

// Installment is one scheduled rent month or tax quarter
type Installment struct {
	Period    string
	Amount    decimal.Decimal
	Surcharge decimal.Decimal // late fee or penalty
}

// ApplicationFeeBreakdown computes stall rent + rights fee + application fee + security bond
func ApplicationFeeBreakdown(monthlyRent, rightsFee decimal.Decimal) FeeBreakdown {
	components := []models.FeeComponent{
		{Label: "First month rent", Amount: utils.Round(monthlyRent)},
		{Label: "Stall rights fee", Amount: utils.Round(rightsFee)},
		{Label: "Application fee", Amount: ApplicationFee},
		{Label: "Security bond", Amount: SecurityBond},
	}
	return FeeBreakdown{Components: components, Total: totalOf(components)}
}

// InstallmentBreakdown sums amount plus surcharge over every installment
func InstallmentBreakdown(label string, installments []Installment) FeeBreakdown {
	components := make([]models.FeeComponent, 0, len(installments)*2)
	for _, in := range installments {
		components = append(components, models.FeeComponent{Label: label + " " + in.Period, Amount: utils.Round(in.Amount)})
		if in.Surcharge.IsPositive() {
			components = append(components, models.FeeComponent{Label: "Surcharge " + in.Period, Amount: utils.Round(in.Surcharge)})
		}
	}
	return FeeBreakdown{Components: components, Total: totalOf(components)}
}

// AssessmentTotal computes tax + fees + penalties - discounts, never below zero
func AssessmentTotal(taxAmount decimal.Decimal, fees []models.AssessmentItem, penalties, discounts decimal.Decimal) decimal.Decimal {
	total := taxAmount.Add(penalties).Sub(discounts)
	for _, f := range fees {
		total = total.Add(f.Amount)
	}
	return utils.NonNegative(utils.Round(total))
}

func totalOf(components []models.FeeComponent) decimal.Decimal {
	amounts := make([]decimal.Decimal, len(components))
	for i, c := range components {
		amounts[i] = c.Amount
	}
	return utils.Sum(amounts...)
}
