package utils

import "time"

const (
	// One-time code policy
	CodeLength         = 6
	DefaultCodeTTL     = 10 * time.Minute
	DefaultMaxAttempts = 5

	// Reference numbers
	ReferenceTimeLayout    = "20060102150405"
	ReferenceSuffixDigits  = 4
	MaxReferenceCollisions = 5

	// Document uploads
	MaxDocumentSize = 5 << 20

	// Pagination
	DefaultPerPage = 20
	MaxPerPage     = 100

	// HTTP status messages
	ErrInvalidRequest     = "Invalid request"
	ErrNoPendingCode      = "No pending verification for this payment"
	ErrCodeExpired        = "Verification code expired, request a new code"
	ErrAttemptsExhausted  = "Too many incorrect attempts, request a new code"
	ErrAlreadyPaid        = "This payment has already been settled"
	ErrNothingDue         = "Nothing is due for this payment"
	ErrAmountChanged      = "The amount due changed since the code was issued, request a new code"
	ErrAmountMismatch     = "Submitted amount does not match the amount due"
	ErrFailedToStore      = "Failed to store data"
	ErrFailedToRetrieve   = "Failed to retrieve data"
	ErrPaymentNotApplied  = "Payment could not be applied, please try again"
	ErrTooManyCodeRequest = "Too many code requests, try again later"

	// Precision for monetary calculations
	MoneyPlaces = 2
)
