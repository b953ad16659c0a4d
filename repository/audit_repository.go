package repository

import (
	"context"
	"fmt"

	"github.com/fadhlanhapp/egov-portal/models"
)

// AuditRepo appends to audit_logs
type AuditRepo struct {
	q DBTX
}

// Append writes one audit entry
func (r *AuditRepo) Append(ctx context.Context, entry *models.AuditLog) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO audit_logs (actor_id, action, entity_type, entity_id, before_status, after_status, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		entry.ActorID, entry.Action, entry.EntityType, entry.EntityID,
		entry.BeforeStatus, entry.AfterStatus, entry.Details, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// NotificationRepo stores notifications
type NotificationRepo struct {
	q DBTX
}

// Create inserts a notification
func (r *NotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO notifications (user_id, type, message, reference_id, is_read, created_at)
		 VALUES ($1, $2, $3, $4, FALSE, $5)
		 RETURNING id`,
		n.UserID, n.Type, n.Message, n.ReferenceID, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}
