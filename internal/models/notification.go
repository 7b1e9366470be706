package models

import (
	"encoding/json"
	"time"
)

// NotificationType mirrors the tipo column of notificaciones.
type NotificationType string

const (
	NotificationTypeInterest NotificationType = "interes"
	NotificationTypeMessage  NotificationType = "mensaje"
	NotificationTypeSystem   NotificationType = "sistema"
)

// Notification is a row of the notificaciones table. The table keeps the two
// legacy read flags (leido, leida); both are written from Read.
type Notification struct {
	ID          int64            `json:"id"`
	RecipientID string           `json:"recipient_id"` // id_vendedor: username of the receiving user
	ListingID   *int64           `json:"listing_id,omitempty"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Read        bool             `json:"read"`
	Type        NotificationType `json:"type"`
	Metadata    json.RawMessage  `json:"metadata,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}
