package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/checkauto-admin/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStats struct {
	since time.Time
	stats *models.DashboardStats
	err   error
}

func (s *stubStats) Dashboard(_ context.Context, since time.Time) (*models.DashboardStats, error) {
	s.since = since
	return s.stats, s.err
}

func TestService_Summary(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stats := &stubStats{stats: &models.DashboardStats{TotalUsers: 3, TotalListings: 10, ActiveListings: 7}}
	site := Site{Header: "Panel de Administración - checkAuto", Title: "checkAuto Admin", IndexTitle: "Dashboard"}
	svc := NewService(stats, site)
	svc.now = func() time.Time { return now }

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, site, summary.Site)
	assert.Equal(t, int64(7), summary.Stats.ActiveListings)
	assert.Equal(t, now, summary.GeneratedAt)
	assert.Equal(t, now.Add(-24*time.Hour), stats.since)
}

func TestService_SummaryError(t *testing.T) {
	t.Parallel()

	svc := NewService(&stubStats{err: errors.New("timeout")}, Site{})
	_, err := svc.Summary(context.Background())
	assert.ErrorContains(t, err, "timeout")
}

func TestService_SitesAreIndependent(t *testing.T) {
	t.Parallel()

	a := NewService(&stubStats{}, Site{Title: "A"})
	b := NewService(&stubStats{}, Site{Title: "B"})
	assert.Equal(t, "A", a.Site().Title)
	assert.Equal(t, "B", b.Site().Title)
}
