package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Application statuses
const (
	ApplicationPending            = "pending"
	ApplicationApproved           = "approved"
	ApplicationPaymentPhase       = "payment_phase"
	ApplicationPaid               = "paid"
	ApplicationDocumentsSubmitted = "documents_submitted"
	ApplicationRejected           = "rejected"
	ApplicationCancelled          = "cancelled"
	ApplicationExpired            = "expired"
)

// Installment statuses shared by monthly rent and quarterly tax rows
const (
	InstallmentPending = "pending"
	InstallmentPaid    = "paid"
	InstallmentOverdue = "overdue"
)

// Application is a citizen's request to rent a market stall
type Application struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	StallID      int64     `json:"stall_id"`
	BusinessName string    `json:"business_name"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// ApplicationFeeSubject is an application joined with the stall it targets
type ApplicationFeeSubject struct {
	Application
	StallNumber string          `json:"stall_number"`
	StallClass  string          `json:"stall_class"`
	MonthlyRent decimal.Decimal `json:"monthly_rent"`
	RightsFee   decimal.Decimal `json:"rights_fee"`
}

// ApplicationFee stores the breakdown that was collected for an application
type ApplicationFee struct {
	ID              int64           `json:"id"`
	ApplicationID   int64           `json:"application_id"`
	ReferenceNumber string          `json:"reference_number"`
	MonthlyRent     decimal.Decimal `json:"monthly_rent"`
	RightsFee       decimal.Decimal `json:"rights_fee"`
	ApplicationFee  decimal.Decimal `json:"application_fee"`
	SecurityBond    decimal.Decimal `json:"security_bond"`
	Total           decimal.Decimal `json:"total"`
	PaidAt          time.Time       `json:"paid_at"`
}

// Renter is created once an application fee has been collected
type Renter struct {
	ID            int64     `json:"id"`
	RenterCode    string    `json:"renter_code"`
	ApplicationID int64     `json:"application_id"`
	UserID        int64     `json:"user_id"`
	StallID       int64     `json:"stall_id"`
	BusinessName  string    `json:"business_name"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// LeaseContract covers the one-year stall lease
type LeaseContract struct {
	ID             int64           `json:"id"`
	ContractNumber string          `json:"contract_number"`
	RenterID       int64           `json:"renter_id"`
	ApplicationID  int64           `json:"application_id"`
	StallID        int64           `json:"stall_id"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	MonthlyRent    decimal.Decimal `json:"monthly_rent"`
	Status         string          `json:"status"`
}

// StallRightsCertificate is issued together with the lease
type StallRightsCertificate struct {
	ID                int64           `json:"id"`
	CertificateNumber string          `json:"certificate_number"`
	RenterID          int64           `json:"renter_id"`
	ApplicationID     int64           `json:"application_id"`
	StallClass        string          `json:"stall_class"`
	RightsFee         decimal.Decimal `json:"rights_fee"`
	IssuedAt          time.Time       `json:"issued_at"`
	ExpiresAt         time.Time       `json:"expires_at"`
}

// MonthlyPayment is one scheduled rent obligation
type MonthlyPayment struct {
	ID              int64           `json:"id"`
	RenterID        int64           `json:"renter_id"`
	Month           string          `json:"month"` // YYYY-MM
	DueDate         time.Time       `json:"due_date"`
	Amount          decimal.Decimal `json:"amount"`
	LateFee         decimal.Decimal `json:"late_fee"`
	Status          string          `json:"status"`
	ReferenceNumber string          `json:"reference_number,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
}

// Document kinds accepted once an application is paid
const (
	DocumentLeaseContract  = "lease_contract"
	DocumentBusinessPermit = "business_permit"
)

// RequiredDocuments lists the kinds that together complete an application
var RequiredDocuments = []string{DocumentLeaseContract, DocumentBusinessPermit}

// Document is an uploaded signed document
type Document struct {
	ID            int64     `json:"id"`
	ApplicationID int64     `json:"application_id"`
	DocumentType  string    `json:"document_type"`
	FilePath      string    `json:"file_path"`
	OriginalName  string    `json:"original_name"`
	FileSize      int64     `json:"file_size"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// DocumentStatus reports what an application has uploaded and still needs
type DocumentStatus struct {
	ApplicationID int64      `json:"application_id"`
	Status        string     `json:"status"`
	Documents     []Document `json:"documents"`
	Missing       []string   `json:"missing"`
}
