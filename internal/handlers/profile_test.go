package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/benvon/checkauto-admin/internal/models"
	"github.com/benvon/checkauto-admin/internal/services/profile"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// nameStore records UpdateName calls and echoes the stored row back.
type nameStore struct {
	calls int
	err   error
	user  *models.User
}

func (s *nameStore) UpdateName(_ context.Context, id uuid.UUID, firstName, lastName string) (*models.User, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	updated := *s.user
	updated.ID = id
	updated.FirstName = firstName
	updated.LastName = lastName
	return &updated, nil
}

func TestProfileHandler_GetProfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		user         *models.User
		wantFullName any
	}{
		{name: "named user", user: testUser(), wantFullName: "Ana Quispe"},
		{
			name:         "user without name",
			user:         &models.User{ID: uuid.New(), Username: "google-oauth2|1", IsActive: true},
			wantFullName: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewProfileHandler(profile.NewService(&nameStore{}), zap.NewNop())
			w := httptest.NewRecorder()
			h.GetProfile(w, withUser(httptest.NewRequest(http.MethodGet, "/api/auth/profile/", nil), tt.user))

			require.Equal(t, http.StatusOK, w.Code)
			data, ok := decodeEnvelope(t, w)["data"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.user.Username, data["username"])
			assert.Equal(t, tt.wantFullName, data["full_name"])
			assert.Equal(t, true, data["is_authenticated"])
		})
	}
}

func TestProfileHandler_GetProfile_Unauthenticated(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	NewProfileHandler(profile.NewService(&nameStore{}), zap.NewNop()).
		GetProfile(w, httptest.NewRequest(http.MethodGet, "/api/auth/profile/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProfileHandler_UpdateProfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        any
		rawBody     string
		storeErr    error
		wantStatus  int
		wantCalls   int
		wantMessage string
	}{
		{
			name:       "valid update",
			body:       map[string]string{"first_name": "  María ", "last_name": "Flores"},
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:        "blank last name",
			body:        map[string]string{"first_name": "María", "last_name": "   "},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "first name and last name are required",
		},
		{
			name:        "missing first name",
			body:        map[string]string{"last_name": "Flores"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "first name and last name are required",
		},
		{
			name:        "name too long",
			body:        map[string]string{"first_name": strings.Repeat("a", 151), "last_name": "Flores"},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "must be at most 150 characters",
		},
		{
			name:       "malformed body",
			rawBody:    `{"first_name":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "store failure",
			body:        map[string]string{"first_name": "María", "last_name": "Flores"},
			storeErr:    errors.New("connection reset"),
			wantStatus:  http.StatusInternalServerError,
			wantCalls:   1,
			wantMessage: "Failed to update profile",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			user := testUser()
			store := &nameStore{err: tt.storeErr, user: user}
			h := NewProfileHandler(profile.NewService(store), zap.NewNop())

			req := newJSONRequest(http.MethodPut, "/api/auth/profile/update/", tt.body)
			if tt.rawBody != "" {
				req = httptest.NewRequest(http.MethodPut, "/api/auth/profile/update/", strings.NewReader(tt.rawBody))
			}

			w := httptest.NewRecorder()
			h.UpdateProfile(w, withUser(req, user))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalls, store.calls)

			body := decodeEnvelope(t, w)
			if tt.wantMessage != "" {
				assert.Contains(t, body["message"], tt.wantMessage)
			}
			if tt.wantStatus == http.StatusOK {
				data, ok := body["data"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "Profile updated successfully", data["message"])
				updated, ok := data["user"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "María", updated["first_name"])
				assert.Equal(t, "María Flores", updated["full_name"])
			}
		})
	}
}

func TestProfileHandler_UpdateProfile_LogsStoreFailure(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	user := testUser()
	h := NewProfileHandler(profile.NewService(&nameStore{err: errors.New("boom"), user: user}), zap.New(core))

	w := httptest.NewRecorder()
	req := newJSONRequest(http.MethodPatch, "/api/auth/profile/update/", map[string]string{"first_name": "A", "last_name": "B"})
	h.UpdateProfile(w, withUser(req, user))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	entries := logs.FilterMessage("profile_update_failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, user.Username, entries[0].ContextMap()["subject"])
}
