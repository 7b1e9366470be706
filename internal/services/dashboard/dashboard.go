package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/checkauto-admin/internal/models"
)

// searchWindow is the look-back for the plate search count.
const searchWindow = 24 * time.Hour

// Site holds the labels shown on the reporting dashboard.
type Site struct {
	Header     string `json:"header"`
	Title      string `json:"title"`
	IndexTitle string `json:"index_title"`
}

// Summary is the dashboard payload.
type Summary struct {
	Site        Site                  `json:"site"`
	Stats       models.DashboardStats `json:"stats"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// StatsSource runs the aggregate queries.
type StatsSource interface {
	Dashboard(ctx context.Context, since time.Time) (*models.DashboardStats, error)
}

// Service builds dashboard summaries.
type Service struct {
	stats StatsSource
	site  Site
	now   func() time.Time
}

// NewService creates a dashboard service with the given labels.
func NewService(stats StatsSource, site Site) *Service {
	return &Service{stats: stats, site: site, now: time.Now}
}

// Site returns the configured labels.
func (s *Service) Site() Site {
	return s.site
}

// Summary returns the current counts together with the site labels.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	now := s.now().UTC()
	stats, err := s.stats.Dashboard(ctx, now.Add(-searchWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}
	return &Summary{
		Site:        s.site,
		Stats:       *stats,
		GeneratedAt: now,
	}, nil
}
