package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Assessment statuses
const (
	AssessmentDraft    = "draft"
	AssessmentAssessed = "assessed"
	AssessmentPaid     = "paid"
)

// Business is a registered business owned by a citizen
type Business struct {
	ID           int64  `json:"id"`
	OwnerUserID  int64  `json:"owner_user_id"`
	BusinessName string `json:"business_name"`
}

// Assessment is a yearly business tax assessment
type Assessment struct {
	ID          int64            `json:"id"`
	BusinessID  int64            `json:"business_id"`
	Year        int              `json:"year"`
	GrossSales  decimal.Decimal  `json:"gross_sales"`
	TaxAmount   decimal.Decimal  `json:"tax_amount"`
	Discounts   decimal.Decimal  `json:"discounts"`
	Penalties   decimal.Decimal  `json:"penalties"`
	TotalDue    decimal.Decimal  `json:"total_due"`
	Status      string           `json:"status"`
	AssessorID  int64            `json:"assessor_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Items       []AssessmentItem `json:"items"`
	PaymentInfo *PaymentInfo     `json:"payment_info,omitempty"`
}

// AssessmentItem is one regulatory fee line on an assessment
type AssessmentItem struct {
	ID           int64           `json:"id"`
	AssessmentID int64           `json:"assessment_id"`
	FeeName      string          `json:"fee_name" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
}

// PaymentInfo summarises what has been collected on an assessment
type PaymentInfo struct {
	TotalPaid     decimal.Decimal `json:"total_paid"`
	Balance       decimal.Decimal `json:"balance"`
	PaymentCount  int             `json:"payment_count"`
	LastORNumber  string          `json:"last_or_number,omitempty"`
	LastPaymentAt *time.Time      `json:"last_payment_at,omitempty"`
}

// BusinessPayment is an official-receipt payment against an assessment
type BusinessPayment struct {
	ID            int64           `json:"id"`
	AssessmentID  int64           `json:"assessment_id"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	ORNumber      string          `json:"or_number"`
	PaymentMethod string          `json:"payment_method"`
	Notes         string          `json:"notes,omitempty"`
	ReceivedBy    int64           `json:"received_by"`
	PaidAt        time.Time       `json:"paid_at"`
}

// SaveAssessmentRequest represents the body of save_assessment
type SaveAssessmentRequest struct {
	BusinessID int64            `json:"business_id" binding:"required,gt=0"`
	Year       int              `json:"year" binding:"required,gte=2000,lte=2100"`
	GrossSales decimal.Decimal  `json:"gross_sales"`
	TaxAmount  decimal.Decimal  `json:"tax_amount"`
	Fees       []AssessmentItem `json:"fees" binding:"dive"`
	Discounts  decimal.Decimal  `json:"discounts"`
	Penalties  decimal.Decimal  `json:"penalties"`
	AssessorID int64            `json:"assessor_id"`
}

// MarkPaidRequest represents the body of mark_paid
type MarkPaidRequest struct {
	AssessmentID  int64           `json:"assessment_id" binding:"required,gt=0"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	ORNumber      string          `json:"or_number" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"required,oneof=cash check bank_transfer gcash maya"`
	Notes         string          `json:"notes"`
}

// AssessmentFilter narrows the assessment listing
type AssessmentFilter struct {
	BusinessID int64  `form:"business_id"`
	Year       int    `form:"year"`
	Status     string `form:"status"`
	Page       int    `form:"page"`
	PerPage    int    `form:"per_page"`
}

// AssessmentPage is one page of the assessment listing
type AssessmentPage struct {
	Assessments []Assessment `json:"assessments"`
	Page        int          `json:"page"`
	PerPage     int          `json:"per_page"`
	Total       int          `json:"total"`
	TotalPages  int          `json:"total_pages"`
}
