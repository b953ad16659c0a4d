package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/lib/pq"
)

// ApplicationRepo handles database operations for market stall applications
type ApplicationRepo struct {
	q DBTX
}

// GetFeeSubject loads an owned application with its stall rent and class rights fee
func (r *ApplicationRepo) GetFeeSubject(ctx context.Context, applicationID, userID int64, lock bool) (*models.ApplicationFeeSubject, error) {
	query := `
		SELECT a.id, a.user_id, a.stall_id, a.business_name, a.status, a.created_at,
		       s.stall_number, c.class_name, s.monthly_rent, c.rights_fee
		FROM applications a
		JOIN stalls s ON s.id = a.stall_id
		JOIN stall_classes c ON c.id = s.class_id
		WHERE a.id = $1 AND a.user_id = $2`
	if lock {
		query += " FOR UPDATE OF a"
	}

	var s models.ApplicationFeeSubject
	err := r.q.QueryRowContext(ctx, query, applicationID, userID).Scan(
		&s.ID, &s.UserID, &s.StallID, &s.BusinessName, &s.Status, &s.CreatedAt,
		&s.StallNumber, &s.StallClass, &s.MonthlyRent, &s.RightsFee,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &s, nil
}

// GetOwned loads an application owned by userID
func (r *ApplicationRepo) GetOwned(ctx context.Context, applicationID, userID int64, lock bool) (*models.Application, error) {
	var a models.Application
	err := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, stall_id, business_name, status, created_at
		 FROM applications WHERE id = $1 AND user_id = $2`+lockClause(lock),
		applicationID, userID,
	).Scan(&a.ID, &a.UserID, &a.StallID, &a.BusinessName, &a.Status, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &a, nil
}

// TransitionStatus updates the status only from the listed states
func (r *ApplicationRepo) TransitionStatus(ctx context.Context, applicationID int64, to string, from ...string) (bool, error) {
	n, err := affected(r.q.ExecContext(ctx,
		`UPDATE applications SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND status = ANY($3)`,
		to, applicationID, pq.Array(from),
	))
	if err != nil {
		return false, fmt.Errorf("failed to update application status: %w", err)
	}
	return n == 1, nil
}

// RecordFee stores the collected fee breakdown
func (r *ApplicationRepo) RecordFee(ctx context.Context, fee *models.ApplicationFee) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO application_fee
			(application_id, reference_number, monthly_rent, rights_fee, application_fee, security_bond, total, paid_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		fee.ApplicationID, fee.ReferenceNumber, fee.MonthlyRent, fee.RightsFee,
		fee.ApplicationFee, fee.SecurityBond, fee.Total, fee.PaidAt,
	).Scan(&fee.ID)
	if err != nil {
		return fmt.Errorf("failed to insert application fee: %w", err)
	}
	return nil
}

// RenterExists checks whether the application already produced a renter
func (r *ApplicationRepo) RenterExists(ctx context.Context, applicationID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM renters WHERE application_id = $1)`,
		applicationID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check renter: %w", err)
	}
	return exists, nil
}

// CreateRenter inserts a renter
func (r *ApplicationRepo) CreateRenter(ctx context.Context, renter *models.Renter) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO renters (renter_code, application_id, user_id, stall_id, business_name, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		renter.RenterCode, renter.ApplicationID, renter.UserID, renter.StallID,
		renter.BusinessName, renter.Status, renter.CreatedAt,
	).Scan(&renter.ID)
	if err != nil {
		return fmt.Errorf("failed to insert renter: %w", err)
	}
	return nil
}

// CreateLease inserts a lease contract
func (r *ApplicationRepo) CreateLease(ctx context.Context, lease *models.LeaseContract) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO lease_contracts
			(contract_number, renter_id, application_id, stall_id, start_date, end_date, monthly_rent, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		lease.ContractNumber, lease.RenterID, lease.ApplicationID, lease.StallID,
		lease.StartDate, lease.EndDate, lease.MonthlyRent, lease.Status,
	).Scan(&lease.ID)
	if err != nil {
		return fmt.Errorf("failed to insert lease contract: %w", err)
	}
	return nil
}

// CreateCertificate inserts a stall rights certificate
func (r *ApplicationRepo) CreateCertificate(ctx context.Context, cert *models.StallRightsCertificate) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO stall_rights_issued
			(certificate_number, renter_id, application_id, class_name, rights_fee, issued_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		cert.CertificateNumber, cert.RenterID, cert.ApplicationID, cert.StallClass,
		cert.RightsFee, cert.IssuedAt, cert.ExpiresAt,
	).Scan(&cert.ID)
	if err != nil {
		return fmt.Errorf("failed to insert stall rights certificate: %w", err)
	}
	return nil
}

// OccupyStall marks the stall as taken
func (r *ApplicationRepo) OccupyStall(ctx context.Context, stallID int64) error {
	_, err := r.q.ExecContext(ctx, `UPDATE stalls SET status = 'occupied' WHERE id = $1`, stallID)
	if err != nil {
		return fmt.Errorf("failed to update stall: %w", err)
	}
	return nil
}

// UpsertDocument keeps one row per application and document type
func (r *ApplicationRepo) UpsertDocument(ctx context.Context, doc *models.Document) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO documents (application_id, document_type, file_path, original_name, file_size, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (application_id, document_type) DO UPDATE
		 SET file_path = EXCLUDED.file_path,
		     original_name = EXCLUDED.original_name,
		     file_size = EXCLUDED.file_size,
		     uploaded_at = EXCLUDED.uploaded_at
		 RETURNING id`,
		doc.ApplicationID, doc.DocumentType, doc.FilePath, doc.OriginalName, doc.FileSize, doc.UploadedAt,
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// ListDocuments returns the documents uploaded for an application
func (r *ApplicationRepo) ListDocuments(ctx context.Context, applicationID int64) ([]models.Document, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, application_id, document_type, file_path, original_name, file_size, uploaded_at
		 FROM documents WHERE application_id = $1 ORDER BY document_type`,
		applicationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.ApplicationID, &d.DocumentType, &d.FilePath,
			&d.OriginalName, &d.FileSize, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
