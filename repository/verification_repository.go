package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fadhlanhapp/egov-portal/models"
)

// VerificationRepo handles database operations for pending verifications
type VerificationRepo struct {
	q DBTX
}

// FindOpen returns the newest verification for a subject and user
func (r *VerificationRepo) FindOpen(ctx context.Context, subjectKey string, userID int64, lock bool) (*models.PendingVerification, error) {
	query := `
		SELECT id, subject_key, user_id, code_hash, amount_due, payment_method, phone, email,
		       attempts, expires_at, created_at
		FROM pending_verifications
		WHERE subject_key = $1 AND user_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1` + lockClause(lock)

	var v models.PendingVerification
	err := r.q.QueryRowContext(ctx, query, subjectKey, userID).Scan(
		&v.ID, &v.SubjectKey, &v.UserID, &v.CodeHash, &v.AmountDue, &v.Method, &v.Phone, &v.Email,
		&v.Attempts, &v.ExpiresAt, &v.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get verification: %w", err)
	}
	return &v, nil
}

// Create stores a new verification
func (r *VerificationRepo) Create(ctx context.Context, v *models.PendingVerification) error {
	query := `
		INSERT INTO pending_verifications
			(subject_key, user_id, code_hash, amount_due, payment_method, phone, email, attempts, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := r.q.QueryRowContext(ctx, query,
		v.SubjectKey, v.UserID, v.CodeHash, v.AmountDue, string(v.Method), v.Phone, v.Email,
		v.Attempts, v.ExpiresAt, v.CreatedAt,
	).Scan(&v.ID)
	if err != nil {
		return fmt.Errorf("failed to insert verification: %w", err)
	}
	return nil
}

// PurgeExpired removes every expired verification for a subject, whoever issued it
func (r *VerificationRepo) PurgeExpired(ctx context.Context, subjectKey string, now time.Time) (int64, error) {
	n, err := affected(r.q.ExecContext(ctx,
		`DELETE FROM pending_verifications WHERE subject_key = $1 AND expires_at <= $2`,
		subjectKey, now,
	))
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired verifications: %w", err)
	}
	return n, nil
}

// DeleteForSubject removes the user's verifications for a subject
func (r *VerificationRepo) DeleteForSubject(ctx context.Context, subjectKey string, userID int64) (int64, error) {
	n, err := affected(r.q.ExecContext(ctx,
		`DELETE FROM pending_verifications WHERE subject_key = $1 AND user_id = $2`,
		subjectKey, userID,
	))
	if err != nil {
		return 0, fmt.Errorf("failed to delete verifications: %w", err)
	}
	return n, nil
}

// IncrementAttempts records a wrong code and returns the new attempt count
func (r *VerificationRepo) IncrementAttempts(ctx context.Context, id int64) (int, error) {
	var attempts int
	err := r.q.QueryRowContext(ctx,
		`UPDATE pending_verifications SET attempts = attempts + 1 WHERE id = $1 RETURNING attempts`,
		id,
	).Scan(&attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update attempts: %w", err)
	}
	return attempts, nil
}

// Consume deletes a verification exactly once
func (r *VerificationRepo) Consume(ctx context.Context, id int64) (bool, error) {
	n, err := affected(r.q.ExecContext(ctx, `DELETE FROM pending_verifications WHERE id = $1`, id))
	if err != nil {
		return false, fmt.Errorf("failed to consume verification: %w", err)
	}
	return n == 1, nil
}
