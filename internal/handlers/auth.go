package handlers

import (
	"net/http"
	"time"

	"github.com/benvon/checkauto-admin/internal/logger"
	"github.com/benvon/checkauto-admin/internal/request"
	"github.com/benvon/checkauto-admin/internal/services/auth"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// loginStateCookie carries the state parameter of a login redirect. It is
// readable by scripts: the SPA handles the provider callback and rejects it
// unless the returned state equals this cookie.
const loginStateCookie = "checkauto_login_state"

// LoginProvider exposes the identity provider login settings.
type LoginProvider interface {
	AuthCodeURL(state string) string
	Public() auth.PublicLoginConfig
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	login  LoginProvider
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(login LoginProvider, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{login: login, logger: logger}
}

// RegisterRoutes registers the public auth routes.
// The router should already have the /api/auth prefix.
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/config/", h.Config).Methods(http.MethodGet)
	r.HandleFunc("/login/", h.Login).Methods(http.MethodGet)
}

// RegisterProtectedRoutes registers the auth routes that need an authenticated user.
func (h *AuthHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/logout/", h.Logout).Methods(http.MethodPost)
}

// Config returns the provider settings the frontend needs to start a login.
func (h *AuthHandler) Config(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.login.Public())
}

// Login redirects the browser to the provider's authorize page.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     loginStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.login.AuthCodeURL(state), http.StatusFound)
}

// Logout acknowledges a logout. Access tokens are stateless; the frontend
// discards its token and ends the provider session itself.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authentication credentials were not provided")
		return
	}

	h.logger.Info("user_logged_out",
		zap.String("user_id", user.ID.String()),
		zap.String("subject", logger.SanitizeUserID(user.Username)),
		zap.String("request_id", request.RequestID(r.Context())),
	)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}
