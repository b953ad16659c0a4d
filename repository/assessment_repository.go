package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// AssessmentRepo handles business tax assessments and their payments
type AssessmentRepo struct {
	q DBTX
}

const assessmentColumns = `id, business_id, year, gross_sales, tax_amount, discounts, penalties,
	total_due, status, assessor_id, created_at, updated_at`

func scanAssessment(row rowScanner) (*models.Assessment, error) {
	var a models.Assessment
	err := row.Scan(&a.ID, &a.BusinessID, &a.Year, &a.GrossSales, &a.TaxAmount, &a.Discounts, &a.Penalties,
		&a.TotalDue, &a.Status, &a.AssessorID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetBusiness loads a business
func (r *AssessmentRepo) GetBusiness(ctx context.Context, businessID int64) (*models.Business, error) {
	var b models.Business
	err := r.q.QueryRowContext(ctx,
		`SELECT b.id, o.user_id, b.business_name
		 FROM businesses b JOIN owners o ON o.id = b.owner_id
		 WHERE b.id = $1`,
		businessID,
	).Scan(&b.ID, &b.OwnerUserID, &b.BusinessName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return &b, nil
}

// FindByBusinessYear loads the assessment for a business and year
func (r *AssessmentRepo) FindByBusinessYear(ctx context.Context, businessID int64, year int, lock bool) (*models.Assessment, error) {
	a, err := scanAssessment(r.q.QueryRowContext(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE business_id = $1 AND year = $2`+lockClause(lock),
		businessID, year,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return a, nil
}

// Get loads an assessment by id
func (r *AssessmentRepo) Get(ctx context.Context, assessmentID int64, lock bool) (*models.Assessment, error) {
	a, err := scanAssessment(r.q.QueryRowContext(ctx,
		`SELECT `+assessmentColumns+` FROM assessments WHERE id = $1`+lockClause(lock),
		assessmentID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return a, nil
}

// Save inserts a new assessment or updates an existing one
func (r *AssessmentRepo) Save(ctx context.Context, a *models.Assessment) error {
	if a.ID == 0 {
		err := r.q.QueryRowContext(ctx,
			`INSERT INTO assessments
				(business_id, year, gross_sales, tax_amount, discounts, penalties, total_due, status, assessor_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING id`,
			a.BusinessID, a.Year, a.GrossSales, a.TaxAmount, a.Discounts, a.Penalties, a.TotalDue,
			a.Status, a.AssessorID, a.CreatedAt, a.UpdatedAt,
		).Scan(&a.ID)
		if err != nil {
			return fmt.Errorf("failed to insert assessment: %w", err)
		}
		return nil
	}

	_, err := r.q.ExecContext(ctx,
		`UPDATE assessments
		 SET gross_sales = $1, tax_amount = $2, discounts = $3, penalties = $4, total_due = $5,
		     status = $6, assessor_id = $7, updated_at = $8
		 WHERE id = $9`,
		a.GrossSales, a.TaxAmount, a.Discounts, a.Penalties, a.TotalDue, a.Status, a.AssessorID, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assessment: %w", err)
	}
	return nil
}

// ReplaceItems swaps the fee lines of an assessment
func (r *AssessmentRepo) ReplaceItems(ctx context.Context, assessmentID int64, items []models.AssessmentItem) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM assessment_items WHERE assessment_id = $1`, assessmentID); err != nil {
		return fmt.Errorf("failed to clear assessment items: %w", err)
	}
	for i := range items {
		items[i].AssessmentID = assessmentID
		err := r.q.QueryRowContext(ctx,
			`INSERT INTO assessment_items (assessment_id, fee_name, amount) VALUES ($1, $2, $3) RETURNING id`,
			assessmentID, items[i].FeeName, items[i].Amount,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert assessment item: %w", err)
		}
	}
	return nil
}

// List returns one page of assessments with items and payment info attached
func (r *AssessmentRepo) List(ctx context.Context, filter models.AssessmentFilter, limit, offset int) ([]models.Assessment, int, error) {
	var conds []string
	var args []any
	if filter.BusinessID > 0 {
		args = append(args, filter.BusinessID)
		conds = append(conds, fmt.Sprintf("business_id = $%d", len(args)))
	}
	if filter.Year > 0 {
		args = append(args, filter.Year)
		conds = append(conds, fmt.Sprintf("year = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM assessments`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count assessments: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM assessments%s ORDER BY year DESC, id DESC LIMIT $%d OFFSET $%d`,
		assessmentColumns, where, len(args)-1, len(args))
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assessments: %w", err)
	}
	var assessments []models.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("failed to scan assessment: %w", err)
		}
		assessments = append(assessments, *a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range assessments {
		items, err := r.items(ctx, assessments[i].ID)
		if err != nil {
			return nil, 0, err
		}
		assessments[i].Items = items
		info, err := r.TotalPaid(ctx, assessments[i].ID)
		if err != nil {
			return nil, 0, err
		}
		info.Balance = assessments[i].TotalDue.Sub(info.TotalPaid)
		assessments[i].PaymentInfo = &info
	}
	return assessments, total, nil
}

func (r *AssessmentRepo) items(ctx context.Context, assessmentID int64) ([]models.AssessmentItem, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, assessment_id, fee_name, amount FROM assessment_items WHERE assessment_id = $1 ORDER BY id`,
		assessmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment items: %w", err)
	}
	defer rows.Close()

	var items []models.AssessmentItem
	for rows.Next() {
		var it models.AssessmentItem
		if err := rows.Scan(&it.ID, &it.AssessmentID, &it.FeeName, &it.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan assessment item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ORNumberExists checks whether an official receipt number was already recorded
func (r *AssessmentRepo) ORNumberExists(ctx context.Context, orNumber string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE or_number = $1)`, orNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check OR number: %w", err)
	}
	return exists, nil
}

// InsertPayment records an official-receipt payment
func (r *AssessmentRepo) InsertPayment(ctx context.Context, p *models.BusinessPayment) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO payments (assessment_id, amount_paid, or_number, payment_method, notes, received_by, paid_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		p.AssessmentID, p.AmountPaid, p.ORNumber, p.PaymentMethod, p.Notes, p.ReceivedBy, p.PaidAt,
	).Scan(&p.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateORNumber
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// TotalPaid sums the payments on an assessment
func (r *AssessmentRepo) TotalPaid(ctx context.Context, assessmentID int64) (models.PaymentInfo, error) {
	var info models.PaymentInfo
	var total decimal.NullDecimal
	var lastOR sql.NullString
	var lastAt sql.NullTime
	err := r.q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_paid), 0), COUNT(*),
		        (SELECT or_number FROM payments WHERE assessment_id = $1 ORDER BY paid_at DESC, id DESC LIMIT 1),
		        MAX(paid_at)
		 FROM payments WHERE assessment_id = $1`,
		assessmentID,
	).Scan(&total, &info.PaymentCount, &lastOR, &lastAt)
	if err != nil {
		return info, fmt.Errorf("failed to sum payments: %w", err)
	}
	info.TotalPaid = total.Decimal
	info.LastORNumber = lastOR.String
	if lastAt.Valid {
		info.LastPaymentAt = &lastAt.Time
	}
	return info, nil
}

// UpdateStatus sets the assessment status
func (r *AssessmentRepo) UpdateStatus(ctx context.Context, assessmentID int64, status string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE assessments SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, assessmentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update assessment status: %w", err)
	}
	return nil
}
