package handlers

import "net/http"

// InfoResponse describes the public API surface.
type InfoResponse struct {
	Message   string            `json:"message"`
	Service   string            `json:"service"`
	Endpoints map[string]string `json:"endpoints"`
}

// Info answers GET /api/public/info/.
func Info(service string) http.HandlerFunc {
	info := InfoResponse{
		Message: "checkAuto admin API available",
		Service: service,
		Endpoints: map[string]string{
			"auth_config": "/api/auth/config/",
			"login":       "/api/auth/login/",
			"profile":     "/api/auth/profile/",
			"update":      "/api/auth/profile/update/",
			"logout":      "/api/auth/logout/",
			"dashboard":   "/api/admin/dashboard/",
			"health":      "/api/public/health/",
			"openapi":     "/api/openapi.json",
		},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, info)
	}
}
