package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/checkauto-admin/internal/models"
)

// NotificationRepository handles notificaciones rows.
type NotificationRepository struct {
	db *DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification. Both legacy read flags receive n.Read.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if n.Type == "" {
		n.Type = models.NotificationTypeInterest
	}

	var metadata any
	if len(n.Metadata) > 0 {
		metadata = []byte(n.Metadata)
	}

	query := `
		INSERT INTO notificaciones (id_vendedor, id_anuncio, titulo, mensaje, leido, leida, tipo, metadata, fecha_creacion)
		VALUES ($1, $2, $3, $4, $5, $5, $6, $7, $8)
		RETURNING id_notificacion, fecha_creacion
	`

	err := r.db.QueryRowContext(ctx, query,
		n.RecipientID,
		n.ListingID,
		n.Title,
		n.Message,
		n.Read,
		string(n.Type),
		metadata,
		time.Now(),
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// ExistsForEvent reports whether the recipient already has a notification whose
// metadata.event equals event. Used to make event handlers idempotent.
func (r *NotificationRepository) ExistsForEvent(ctx context.Context, recipientID, event string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notificaciones
			WHERE id_vendedor = $1 AND metadata->>'event' = $2
		)
	`, recipientID, event).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check notification: %w", err)
	}
	return exists, nil
}
