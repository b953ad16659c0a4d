package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SubjectKind identifies what a payment settles
type SubjectKind string

const (
	SubjectApplicationFee SubjectKind = "application_fee"
	SubjectMonthlyRent    SubjectKind = "monthly_rent"
	SubjectQuarterlyTax   SubjectKind = "quarterly_tax"
)

// Valid reports whether k is a known subject kind
func (k SubjectKind) Valid() bool {
	switch k {
	case SubjectApplicationFee, SubjectMonthlyRent, SubjectQuarterlyTax:
		return true
	}
	return false
}

// PeriodAll selects every open installment of a rent or tax subject
const PeriodAll = "all"

// SubjectRef points at the thing being paid for
type SubjectRef struct {
	Kind   SubjectKind `json:"kind"`
	ID     int64       `json:"id"`
	Period string      `json:"period,omitempty"`
}

// Key returns the stable key pending verifications and payment records are filed under
func (r SubjectRef) Key() string {
	if r.Period == "" {
		return fmt.Sprintf("%s:%d", r.Kind, r.ID)
	}
	return fmt.Sprintf("%s:%d:%s", r.Kind, r.ID, r.Period)
}

// PaymentMethod is the wallet or channel the payer picked
type PaymentMethod string

const (
	MethodMaya           PaymentMethod = "maya"
	MethodGCash          PaymentMethod = "gcash"
	MethodBankTransfer   PaymentMethod = "bank_transfer"
	MethodOverTheCounter PaymentMethod = "over_the_counter"
)

var methodPrefixes = map[PaymentMethod]string{
	MethodMaya:           "MAYA",
	MethodGCash:          "GCASH",
	MethodBankTransfer:   "BANK",
	MethodOverTheCounter: "OTC",
}

// Valid reports whether m is a supported payment method
func (m PaymentMethod) Valid() bool {
	_, ok := methodPrefixes[m]
	return ok
}

// ReferencePrefix returns the prefix used in reference numbers for m
func (m PaymentMethod) ReferencePrefix() string {
	if p, ok := methodPrefixes[m]; ok {
		return p
	}
	return "PAY"
}

// FeeComponent is one labelled line of an amount due
type FeeComponent struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// PaymentSubject is derived on every request from the owning aggregate; it is never stored
type PaymentSubject struct {
	Ref         SubjectRef      `json:"ref"`
	OwnerID     int64           `json:"owner_id"`
	AmountDue   decimal.Decimal `json:"amount_due"`
	Components  []FeeComponent  `json:"components"`
	Periods     []string        `json:"periods,omitempty"`
	Description string          `json:"description"`
	Status      string          `json:"status"`

	// adapter context
	ApplicationID int64 `json:"application_id,omitempty"`
	StallID       int64 `json:"stall_id,omitempty"`
	RenterID      int64 `json:"renter_id,omitempty"`
	LandTaxID     int64 `json:"land_tax_id,omitempty"`
}

// PendingVerification is an issued one-time code awaiting confirmation
type PendingVerification struct {
	ID         int64           `json:"id"`
	SubjectKey string          `json:"subject_key"`
	UserID     int64           `json:"user_id"`
	CodeHash   string          `json:"-"`
	AmountDue  decimal.Decimal `json:"amount_due"`
	Method     PaymentMethod   `json:"payment_method"`
	Phone      string          `json:"phone"`
	Email      string          `json:"email"`
	Attempts   int             `json:"attempts"`
	ExpiresAt  time.Time       `json:"expires_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Expired reports whether the code can no longer be accepted at now
func (v *PendingVerification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

// PaymentRecord is the immutable ledger entry written once per successful verification
type PaymentRecord struct {
	ID              int64           `json:"id"`
	ReferenceNumber string          `json:"reference_number"`
	SubjectKind     SubjectKind     `json:"subject_kind"`
	SubjectKey      string          `json:"subject_key"`
	UserID          int64           `json:"user_id"`
	Amount          decimal.Decimal `json:"amount"`
	Method          PaymentMethod   `json:"payment_method"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
	Periods         []string        `json:"periods,omitempty"`
	Description     string          `json:"description"`
	PaidAt          time.Time       `json:"paid_at"`
}

// VerificationState describes where a subject is in the code flow
type VerificationState string

const (
	VerificationNone      VerificationState = "none"
	VerificationIssued    VerificationState = "issued"
	VerificationExpired   VerificationState = "expired"
	VerificationExhausted VerificationState = "exhausted"
)

// IssueCodeRequest represents the body of a code request
type IssueCodeRequest struct {
	Method PaymentMethod `json:"payment_method" binding:"required"`
	Phone  string        `json:"phone" binding:"required"`
	Email  string        `json:"email" binding:"required"`
	Period string        `json:"period"`
}

// IssueCodeResponse confirms a code was sent
type IssueCodeResponse struct {
	SubjectKey string          `json:"subject_key"`
	AmountDue  decimal.Decimal `json:"amount_due"`
	Method     PaymentMethod   `json:"payment_method"`
	SentTo     string          `json:"sent_to"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

// VerifyCodeRequest represents the body of a code confirmation
type VerifyCodeRequest struct {
	Code   string           `json:"verification_code" binding:"required"`
	Period string           `json:"period"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// PaymentSummary is what the payer sees before requesting a code
type PaymentSummary struct {
	Subject      *PaymentSubject   `json:"subject"`
	Verification VerificationState `json:"verification"`
	ExpiresAt    *time.Time        `json:"expires_at,omitempty"`
	AttemptsLeft int               `json:"attempts_left,omitempty"`
}

// Receipt is returned after a successful payment and by the receipt lookup
type Receipt struct {
	Record     *PaymentRecord `json:"payment"`
	Components []FeeComponent `json:"components,omitempty"`
}
