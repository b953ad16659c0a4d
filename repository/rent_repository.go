package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fadhlanhapp/egov-portal/models"
)

// RentRepo handles monthly rent rows
type RentRepo struct {
	q DBTX
}

// GetRenter loads a renter owned by userID
func (r *RentRepo) GetRenter(ctx context.Context, renterID, userID int64) (*models.Renter, error) {
	var renter models.Renter
	err := r.q.QueryRowContext(ctx,
		`SELECT id, renter_code, application_id, user_id, stall_id, business_name, status, created_at
		 FROM renters WHERE id = $1 AND user_id = $2`,
		renterID, userID,
	).Scan(&renter.ID, &renter.RenterCode, &renter.ApplicationID, &renter.UserID, &renter.StallID,
		&renter.BusinessName, &renter.Status, &renter.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get renter: %w", err)
	}
	return &renter, nil
}

// ListOpen returns pending and overdue months, oldest first
func (r *RentRepo) ListOpen(ctx context.Context, renterID int64, month string, lock bool) ([]models.MonthlyPayment, error) {
	query := `
		SELECT id, renter_id, month, due_date, amount, late_fee, status
		FROM monthly_payments
		WHERE renter_id = $1 AND status IN ('pending', 'overdue') AND ($2 = 'all' OR month = $2)
		ORDER BY month ASC` + lockClause(lock)

	rows, err := r.q.QueryContext(ctx, query, renterID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly payments: %w", err)
	}
	defer rows.Close()

	var payments []models.MonthlyPayment
	for rows.Next() {
		var p models.MonthlyPayment
		if err := rows.Scan(&p.ID, &p.RenterID, &p.Month, &p.DueDate, &p.Amount, &p.LateFee, &p.Status); err != nil {
			return nil, fmt.Errorf("failed to scan monthly payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Schedule inserts pre-generated rent obligations
func (r *RentRepo) Schedule(ctx context.Context, rows []models.MonthlyPayment) error {
	for i := range rows {
		err := r.q.QueryRowContext(ctx,
			`INSERT INTO monthly_payments (renter_id, month, due_date, amount, late_fee, status)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (renter_id, month) DO NOTHING
			 RETURNING id`,
			rows[i].RenterID, rows[i].Month, rows[i].DueDate, rows[i].Amount, rows[i].LateFee, rows[i].Status,
		).Scan(&rows[i].ID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to schedule rent for %s: %w", rows[i].Month, err)
		}
	}
	return nil
}

// MarkPaid settles open months; the caller compares the count with what it resolved
func (r *RentRepo) MarkPaid(ctx context.Context, renterID int64, month, reference string, paidAt time.Time) (int64, error) {
	n, err := affected(r.q.ExecContext(ctx,
		`UPDATE monthly_payments
		 SET status = 'paid', reference_number = $1, paid_at = $2
		 WHERE renter_id = $3 AND status IN ('pending', 'overdue') AND ($4 = 'all' OR month = $4)`,
		reference, paidAt, renterID, month,
	))
	if err != nil {
		return 0, fmt.Errorf("failed to mark rent paid: %w", err)
	}
	return n, nil
}
