package database

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/checkauto-admin/internal/models"
)

// StatsRepository runs the aggregate queries behind the admin dashboard.
type StatsRepository struct {
	db *DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Dashboard returns all dashboard counts in one round trip. Plate searches are
// counted from since onwards.
func (r *StatsRepository) Dashboard(ctx context.Context, since time.Time) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM anuncios),
			(SELECT COUNT(*) FROM anuncios WHERE activo),
			(SELECT COUNT(*) FROM vehiculos),
			(SELECT COUNT(*) FROM notificaciones WHERE NOT leida),
			(SELECT COUNT(*) FROM historial_busqueda WHERE fecha_consulta >= $1)
	`, since).Scan(
		&stats.TotalUsers,
		&stats.TotalListings,
		&stats.ActiveListings,
		&stats.TotalVehicles,
		&stats.UnreadNotifications,
		&stats.PlateSearches24h,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query dashboard stats: %w", err)
	}
	return stats, nil
}
