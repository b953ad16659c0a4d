package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fadhlanhapp/egov-portal/models"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible to the caller
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateReference is returned when a generated reference number already exists
	ErrDuplicateReference = errors.New("duplicate reference number")
	// ErrDuplicateORNumber is returned when an official receipt number was already used
	ErrDuplicateORNumber = errors.New("duplicate OR number")
)

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// VerificationRepository stores pending one-time codes
type VerificationRepository interface {
	// FindOpen returns the newest verification for the subject and user, expired or not.
	// With lock set the row is locked until the transaction ends.
	FindOpen(ctx context.Context, subjectKey string, userID int64, lock bool) (*models.PendingVerification, error)
	Create(ctx context.Context, v *models.PendingVerification) error
	PurgeExpired(ctx context.Context, subjectKey string, now time.Time) (int64, error)
	DeleteForSubject(ctx context.Context, subjectKey string, userID int64) (int64, error)
	IncrementAttempts(ctx context.Context, id int64) (int, error)
	// Consume deletes the verification and reports whether this call removed it
	Consume(ctx context.Context, id int64) (bool, error)
}

// PaymentRecordRepository is the append-only payment ledger
type PaymentRecordRepository interface {
	// Insert returns ErrDuplicateReference when the reference number is taken
	Insert(ctx context.Context, rec *models.PaymentRecord) error
	GetByReference(ctx context.Context, reference string) (*models.PaymentRecord, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.PaymentRecord, error)
}

// ApplicationRepository covers market stall applications and what a paid fee creates
type ApplicationRepository interface {
	GetFeeSubject(ctx context.Context, applicationID, userID int64, lock bool) (*models.ApplicationFeeSubject, error)
	GetOwned(ctx context.Context, applicationID, userID int64, lock bool) (*models.Application, error)
	// TransitionStatus moves the application to `to` only if it is currently in one of `from`
	TransitionStatus(ctx context.Context, applicationID int64, to string, from ...string) (bool, error)
	RecordFee(ctx context.Context, fee *models.ApplicationFee) error
	RenterExists(ctx context.Context, applicationID int64) (bool, error)
	CreateRenter(ctx context.Context, renter *models.Renter) error
	CreateLease(ctx context.Context, lease *models.LeaseContract) error
	CreateCertificate(ctx context.Context, cert *models.StallRightsCertificate) error
	OccupyStall(ctx context.Context, stallID int64) error
	UpsertDocument(ctx context.Context, doc *models.Document) error
	ListDocuments(ctx context.Context, applicationID int64) ([]models.Document, error)
}

// RentRepository covers scheduled monthly rent
type RentRepository interface {
	GetRenter(ctx context.Context, renterID, userID int64) (*models.Renter, error)
	// ListOpen returns pending or overdue rows; month "all" selects every one
	ListOpen(ctx context.Context, renterID int64, month string, lock bool) ([]models.MonthlyPayment, error)
	Schedule(ctx context.Context, rows []models.MonthlyPayment) error
	MarkPaid(ctx context.Context, renterID int64, month, reference string, paidAt time.Time) (int64, error)
}

// TaxRepository covers real-property tax quarters
type TaxRepository interface {
	GetLandTax(ctx context.Context, landTaxID, userID int64, lock bool) (*models.LandTax, error)
	ListOpenQuarters(ctx context.Context, landTaxID int64, quarter string, lock bool) ([]models.QuarterlyPayment, error)
	MarkQuartersPaid(ctx context.Context, landTaxID int64, quarter, reference string, paidAt time.Time) (int64, error)
	SettleIfComplete(ctx context.Context, landTaxID int64) (bool, error)
}

// AssessmentRepository covers business tax assessments
type AssessmentRepository interface {
	GetBusiness(ctx context.Context, businessID int64) (*models.Business, error)
	FindByBusinessYear(ctx context.Context, businessID int64, year int, lock bool) (*models.Assessment, error)
	Get(ctx context.Context, assessmentID int64, lock bool) (*models.Assessment, error)
	Save(ctx context.Context, a *models.Assessment) error
	ReplaceItems(ctx context.Context, assessmentID int64, items []models.AssessmentItem) error
	List(ctx context.Context, filter models.AssessmentFilter, limit, offset int) ([]models.Assessment, int, error)
	ORNumberExists(ctx context.Context, orNumber string) (bool, error)
	// InsertPayment returns ErrDuplicateORNumber on a unique violation
	InsertPayment(ctx context.Context, p *models.BusinessPayment) error
	TotalPaid(ctx context.Context, assessmentID int64) (models.PaymentInfo, error)
	UpdateStatus(ctx context.Context, assessmentID int64, status string) error
}

// AuditRepository appends audit entries
type AuditRepository interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

// NotificationRepository stores citizen notifications
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Repositories bundles every repository bound to the same connection or transaction
type Repositories struct {
	Verifications VerificationRepository
	Payments      PaymentRecordRepository
	Applications  ApplicationRepository
	Rent          RentRepository
	Tax           TaxRepository
	Assessments   AssessmentRepository
	Audit         AuditRepository
	Notifications NotificationRepository
}

// Store hands out repositories and runs units of work atomically
type Store interface {
	Repos() *Repositories
	// RunInTx commits when fn returns nil and rolls back otherwise
	RunInTx(ctx context.Context, fn func(r *Repositories) error) error
}
