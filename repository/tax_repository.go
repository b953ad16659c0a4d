package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fadhlanhapp/egov-portal/models"
)

// TaxRepo handles real-property tax quarters
type TaxRepo struct {
	q DBTX
}

// GetLandTax loads a land tax row reachable from one of the user's RPT applications
func (r *TaxRepo) GetLandTax(ctx context.Context, landTaxID, userID int64, lock bool) (*models.LandTax, error) {
	query := `
		SELECT t.id, l.id, ra.user_id, l.td_number, l.location, t.tax_year, t.annual_tax, t.status
		FROM land_assessment_tax t
		JOIN land l ON l.id = t.land_id
		JOIN rpt_applications ra ON ra.id = l.rpt_application_id
		WHERE t.id = $1 AND ra.user_id = $2`
	if lock {
		query += " FOR UPDATE OF t"
	}

	var lt models.LandTax
	err := r.q.QueryRowContext(ctx, query, landTaxID, userID).Scan(
		&lt.ID, &lt.LandID, &lt.UserID, &lt.TDNumber, &lt.Location, &lt.TaxYear, &lt.AnnualTax, &lt.Status,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get land tax: %w", err)
	}
	return &lt, nil
}

// ListOpenQuarters returns unpaid quarters in order
func (r *TaxRepo) ListOpenQuarters(ctx context.Context, landTaxID int64, quarter string, lock bool) ([]models.QuarterlyPayment, error) {
	query := `
		SELECT id, land_tax_id, quarter, due_date, tax_amount, penalty, status
		FROM quarterly
		WHERE land_tax_id = $1 AND status IN ('pending', 'overdue') AND ($2 = 'all' OR quarter = $2)
		ORDER BY quarter ASC` + lockClause(lock)

	rows, err := r.q.QueryContext(ctx, query, landTaxID, quarter)
	if err != nil {
		return nil, fmt.Errorf("failed to list quarters: %w", err)
	}
	defer rows.Close()

	var quarters []models.QuarterlyPayment
	for rows.Next() {
		var q models.QuarterlyPayment
		if err := rows.Scan(&q.ID, &q.LandTaxID, &q.Quarter, &q.DueDate, &q.TaxAmount, &q.Penalty, &q.Status); err != nil {
			return nil, fmt.Errorf("failed to scan quarter: %w", err)
		}
		quarters = append(quarters, q)
	}
	return quarters, rows.Err()
}

// MarkQuartersPaid settles open quarters
func (r *TaxRepo) MarkQuartersPaid(ctx context.Context, landTaxID int64, quarter, reference string, paidAt time.Time) (int64, error) {
	n, err := affected(r.q.ExecContext(ctx,
		`UPDATE quarterly
		 SET status = 'paid', reference_number = $1, paid_at = $2
		 WHERE land_tax_id = $3 AND status IN ('pending', 'overdue') AND ($4 = 'all' OR quarter = $4)`,
		reference, paidAt, landTaxID, quarter,
	))
	if err != nil {
		return 0, fmt.Errorf("failed to mark quarters paid: %w", err)
	}
	return n, nil
}

// SettleIfComplete marks the land tax paid once no quarter is open
func (r *TaxRepo) SettleIfComplete(ctx context.Context, landTaxID int64) (bool, error) {
	n, err := affected(r.q.ExecContext(ctx,
		`UPDATE land_assessment_tax SET status = 'paid'
		 WHERE id = $1 AND status <> 'paid'
		   AND NOT EXISTS (
		       SELECT 1 FROM quarterly WHERE land_tax_id = $1 AND status IN ('pending', 'overdue'))`,
		landTaxID,
	))
	if err != nil {
		return false, fmt.Errorf("failed to settle land tax: %w", err)
	}
	return n == 1, nil
}
