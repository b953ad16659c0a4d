package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LandTax is a land_assessment_tax row reachable from a citizen's RPT application
type LandTax struct {
	ID        int64           `json:"id"`
	LandID    int64           `json:"land_id"`
	UserID    int64           `json:"user_id"`
	TDNumber  string          `json:"td_number"`
	Location  string          `json:"location"`
	TaxYear   int             `json:"tax_year"`
	AnnualTax decimal.Decimal `json:"annual_tax"`
	Status    string          `json:"status"`
}

// QuarterlyPayment is one scheduled real-property tax installment
type QuarterlyPayment struct {
	ID              int64           `json:"id"`
	LandTaxID       int64           `json:"land_tax_id"`
	Quarter         string          `json:"quarter"` // Q1..Q4
	DueDate         time.Time       `json:"due_date"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Penalty         decimal.Decimal `json:"penalty"`
	Status          string          `json:"status"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
}
