package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/benvon/checkauto-admin/internal/logger"
	"github.com/benvon/checkauto-admin/internal/models"
	"github.com/benvon/checkauto-admin/internal/request"
	"github.com/benvon/checkauto-admin/internal/services/profile"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ProfileService reads and updates the authenticated user's profile.
type ProfileService interface {
	Get(user *models.User) *profile.Profile
	Update(ctx context.Context, user *models.User, req profile.UpdateRequest) (*profile.Profile, error)
}

// ProfileHandler handles profile requests
type ProfileHandler struct {
	profiles ProfileService
	logger   *zap.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// RegisterRoutes registers profile routes on an authenticated router with the /api/auth prefix.
func (h *ProfileHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/profile/", h.GetProfile).Methods(http.MethodGet)
	r.HandleFunc("/profile/update/", h.UpdateProfile).Methods(http.MethodPut, http.MethodPatch)
}

// ProfileUpdateResponse is returned after a successful update.
type ProfileUpdateResponse struct {
	Message string           `json:"message"`
	User    *profile.Profile `json:"user"`
}

// GetProfile returns the current user's profile.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authentication credentials were not provided")
		return
	}

	respondJSON(w, http.StatusOK, h.profiles.Get(user))
}

// UpdateProfile sets the current user's first and last name.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Authentication credentials were not provided")
		return
	}

	var req profile.UpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	updated, err := h.profiles.Update(r.Context(), user, req)
	if err != nil {
		var verr *profile.ValidationError
		if errors.As(err, &verr) {
			respondJSONError(w, http.StatusBadRequest, "Validation Error", verr.Error())
			return
		}

		h.logger.Error("profile_update_failed",
			zap.String("user_id", user.ID.String()),
			zap.String("subject", logger.SanitizeUserID(user.Username)),
			zap.String("error", logger.SanitizeError(err)),
			zap.String("request_id", request.RequestID(r.Context())),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update profile")
		return
	}

	h.logger.Info("profile_updated",
		zap.String("user_id", user.ID.String()),
		zap.String("request_id", request.RequestID(r.Context())),
	)
	respondJSON(w, http.StatusOK, ProfileUpdateResponse{
		Message: "Profile updated successfully",
		User:    updated,
	})
}
