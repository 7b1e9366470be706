package database

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/benvon/checkauto-admin/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsRepository_Dashboard(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	since := time.Now().Add(-24 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"u", "l", "a", "v", "n", "p"}).AddRow(12, 30, 21, 40, 5, 9))

	stats, err := NewStatsRepository(db).Dashboard(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, &models.DashboardStats{
		TotalUsers:          12,
		TotalListings:       30,
		ActiveListings:      21,
		TotalVehicles:       40,
		UnreadNotifications: 5,
		PlateSearches24h:    9,
	}, stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepository_DashboardError(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT")).WillReturnError(errors.New("relation does not exist"))

	_, err := NewStatsRepository(db).Dashboard(context.Background(), time.Now())
	assert.ErrorContains(t, err, "dashboard stats")
}

func TestNotificationRepository_Create(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	now := time.Now()
	meta := json.RawMessage(`{"event":"user_provisioned"}`)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO notificaciones")).
		WithArgs("auth0|abc", nil, "Bienvenido", "Hola", false, "sistema", []byte(meta), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id_notificacion", "fecha_creacion"}).AddRow(7, now))

	n := &models.Notification{
		RecipientID: "auth0|abc",
		Title:       "Bienvenido",
		Message:     "Hola",
		Type:        models.NotificationTypeSystem,
		Metadata:    meta,
	}
	require.NoError(t, NewNotificationRepository(db).Create(context.Background(), n))
	assert.Equal(t, int64(7), n.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_ExistsForEvent(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("metadata->>'event' = $2")).
		WithArgs("auth0|abc", "user_provisioned").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := NewNotificationRepository(db).ExistsForEvent(context.Background(), "auth0|abc", "user_provisioned")
	require.NoError(t, err)
	assert.True(t, exists)
}
