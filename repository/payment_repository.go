package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/lib/pq"
)

// PaymentRecordRepo handles the payment ledger
type PaymentRecordRepo struct {
	q DBTX
}

const paymentRecordColumns = `id, reference_number, subject_kind, subject_key, user_id, amount,
	payment_method, phone, email, periods, description, paid_at`

// Insert appends a payment record; the ledger is never updated in place
func (r *PaymentRecordRepo) Insert(ctx context.Context, rec *models.PaymentRecord) error {
	query := `
		INSERT INTO payment_records
			(reference_number, subject_kind, subject_key, user_id, amount, payment_method, phone, email, periods, description, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (reference_number) DO NOTHING
		RETURNING id`
	// periods is NOT NULL; a nil slice would bind as NULL
	periods := rec.Periods
	if periods == nil {
		periods = []string{}
	}
	err := r.q.QueryRowContext(ctx, query,
		rec.ReferenceNumber, string(rec.SubjectKind), rec.SubjectKey, rec.UserID, rec.Amount,
		string(rec.Method), rec.Phone, rec.Email, pq.Array(periods), rec.Description, rec.PaidAt,
	).Scan(&rec.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrDuplicateReference
	}
	if err != nil {
		return fmt.Errorf("failed to insert payment record: %w", err)
	}
	return nil
}

// GetByReference retrieves a payment by its reference number
func (r *PaymentRecordRepo) GetByReference(ctx context.Context, reference string) (*models.PaymentRecord, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+paymentRecordColumns+` FROM payment_records WHERE reference_number = $1`,
		reference,
	)
	rec, err := scanPaymentRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment record: %w", err)
	}
	return rec, nil
}

// ListBetween returns records paid in [from, to)
func (r *PaymentRecordRepo) ListBetween(ctx context.Context, from, to time.Time) ([]models.PaymentRecord, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+paymentRecordColumns+` FROM payment_records
		 WHERE paid_at >= $1 AND paid_at < $2
		 ORDER BY paid_at ASC, id ASC`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment records: %w", err)
	}
	defer rows.Close()

	var records []models.PaymentRecord
	for rows.Next() {
		rec, err := scanPaymentRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPaymentRecord(row rowScanner) (*models.PaymentRecord, error) {
	var rec models.PaymentRecord
	var periods []string
	err := row.Scan(
		&rec.ID, &rec.ReferenceNumber, &rec.SubjectKind, &rec.SubjectKey, &rec.UserID, &rec.Amount,
		&rec.Method, &rec.Phone, &rec.Email, pq.Array(&periods), &rec.Description, &rec.PaidAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Periods = periods
	return &rec, nil
}
