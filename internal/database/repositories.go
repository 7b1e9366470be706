package database

import (
	"context"
	"time"

	"github.com/benvon/checkauto-admin/internal/models"
	"github.com/google/uuid"
)

// UserRepositoryInterface defines the user operations the services depend on.
// It enables in-memory implementations in tests.
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateIdentity(ctx context.Context, user *models.User) error
	UpdateName(ctx context.Context, id uuid.UUID, firstName, lastName string) (*models.User, error)
}

// NotificationRepositoryInterface defines the notification operations used by workers
type NotificationRepositoryInterface interface {
	Create(ctx context.Context, n *models.Notification) error
	ExistsForEvent(ctx context.Context, recipientID, event string) (bool, error)
}

// StatsRepositoryInterface defines the dashboard aggregate queries
type StatsRepositoryInterface interface {
	Dashboard(ctx context.Context, since time.Time) (*models.DashboardStats, error)
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface         = (*UserRepository)(nil)
	_ NotificationRepositoryInterface = (*NotificationRepository)(nil)
	_ StatsRepositoryInterface        = (*StatsRepository)(nil)
)
