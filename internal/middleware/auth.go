package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/benvon/checkauto-admin/internal/request"
	"github.com/benvon/checkauto-admin/internal/services/auth"
	"go.uber.org/zap"
)

// Authenticator resolves an Authorization header to an identity.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*auth.Identity, error)
}

// Auth requires a valid bearer token and puts the resolved user into the
// request context. Refused tokens and missing credentials answer 401 with a
// Bearer challenge; user store failures answer 500.
func Auth(authenticator Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := authenticator.Authenticate(r.Context(), r.Header.Get("Authorization"))

			var authErr *auth.AuthError
			switch {
			case errors.As(err, &authErr):
				unauthorized(w, r, `error="invalid_token"`, authErr.Message, logger)
				return
			case err != nil:
				logger.Error("authentication_internal_error",
					zap.Error(err),
					zap.String("path", r.URL.Path),
					zap.String("request_id", request.RequestID(r.Context())),
				)
				WriteError(w, r, http.StatusInternalServerError, "Internal Server Error", "Authentication could not be completed", logger)
				return
			case identity == nil:
				unauthorized(w, r, "", "Authentication credentials were not provided", logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(r.Context(), identity.User)))
		})
	}
}

// RequireStaff answers 403 unless the authenticated user is staff. It must run after Auth.
func RequireStaff(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := request.UserFromContext(r)
			if user == nil {
				unauthorized(w, r, "", "Authentication credentials were not provided", logger)
				return
			}
			if !user.IsStaff {
				WriteError(w, r, http.StatusForbidden, "Forbidden", "Staff access required", logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, challengeParams, message string, logger *zap.Logger) {
	challenge := "Bearer"
	if challengeParams != "" {
		challenge += " " + challengeParams
	}
	w.Header().Set("WWW-Authenticate", challenge)
	WriteError(w, r, http.StatusUnauthorized, "Unauthorized", message, logger)
}
