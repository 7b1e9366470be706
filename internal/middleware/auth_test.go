package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benvon/checkauto-admin/internal/models"
	"github.com/benvon/checkauto-admin/internal/request"
	"github.com/benvon/checkauto-admin/internal/services/auth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAuthenticator struct {
	identity *auth.Identity
	err      error
}

func (s stubAuthenticator) Authenticate(context.Context, string) (*auth.Identity, error) {
	return s.identity, s.err
}

func okHandler(t *testing.T) (http.Handler, *bool) {
	t.Helper()
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		user := request.UserFromContext(r)
		require.NotNil(t, user)
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestAuth(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: uuid.New(), Username: "auth0|abc", IsActive: true}

	tests := []struct {
		name          string
		authenticator stubAuthenticator
		wantStatus    int
		wantChallenge string
		wantMessage   string
	}{
		{
			name:          "authenticated",
			authenticator: stubAuthenticator{identity: &auth.Identity{User: user}},
			wantStatus:    http.StatusOK,
		},
		{
			name:          "no credentials",
			authenticator: stubAuthenticator{},
			wantStatus:    http.StatusUnauthorized,
			wantChallenge: "Bearer",
			wantMessage:   "Authentication credentials were not provided",
		},
		{
			name:          "expired token",
			authenticator: stubAuthenticator{err: &auth.AuthError{Kind: auth.KindTokenExpired, Message: "token has expired"}},
			wantStatus:    http.StatusUnauthorized,
			wantChallenge: `Bearer error="invalid_token"`,
			wantMessage:   "token has expired",
		},
		{
			name:          "store failure",
			authenticator: stubAuthenticator{err: errors.New("failed to load user: connection refused")},
			wantStatus:    http.StatusInternalServerError,
			wantMessage:   "Authentication could not be completed",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next, called := okHandler(t)
			handler := Auth(tt.authenticator, zap.NewNop())(next)

			req := httptest.NewRequest(http.MethodGet, "/api/auth/profile/", nil)
			req.Header.Set("Authorization", "Bearer a.b.c")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, *called)
			assert.Equal(t, tt.wantChallenge, w.Header().Get("WWW-Authenticate"))
			if tt.wantMessage != "" {
				var body ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.wantMessage, body.Message)
				assert.NotContains(t, w.Body.String(), "connection refused")
			}
		})
	}
}

func TestRequireStaff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		user       *models.User
		wantStatus int
	}{
		{"staff", &models.User{IsStaff: true}, http.StatusOK},
		{"not staff", &models.User{}, http.StatusForbidden},
		{"anonymous", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			handler := RequireStaff(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard/", nil)
			if tt.user != nil {
				req = req.WithContext(request.WithUser(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
