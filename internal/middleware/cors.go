package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/benvon/checkauto-admin/internal/database"
	"github.com/benvon/checkauto-admin/internal/models"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const defaultCORSMaxAge = 86400

// CORSSettingsSource loads the stored CORS settings; (nil, nil) means none are stored.
type CORSSettingsSource interface {
	CORS(ctx context.Context) (*models.CORSSettings, error)
}

// CORSReloader applies rs/cors with origins loaded from the settings table,
// falling back to FRONTEND_URL when nothing is stored or the load fails.
type CORSReloader struct {
	swap     hotSwap
	source   CORSSettingsSource
	fallback []string
	logger   *zap.Logger
}

// NewCORSReloader creates the CORS middleware. frontendURL may be comma-separated.
func NewCORSReloader(source CORSSettingsSource, frontendURL string, logger *zap.Logger, reloadInterval time.Duration) *CORSReloader {
	fallback := database.SplitOrigins(frontendURL)
	if len(fallback) == 0 {
		fallback = []string{"http://localhost:3000"}
	}
	r := &CORSReloader{source: source, fallback: fallback, logger: logger}
	r.swap = hotSwap{name: "cors", build: r.build, interval: reloadInterval, logger: logger}
	return r
}

// Middleware returns the middleware; apply it once.
func (r *CORSReloader) Middleware() func(http.Handler) http.Handler {
	return r.swap.wrap
}

// Start reloads the settings until ctx is cancelled.
func (r *CORSReloader) Start(ctx context.Context) {
	r.swap.run(ctx)
}

func (r *CORSReloader) build(ctx context.Context, next http.Handler) (http.Handler, error) {
	settings := r.settings(ctx)
	c := cors.New(cors.Options{
		AllowedOrigins:   settings.AllowedOrigins,
		AllowCredentials: settings.AllowCredentials,
		MaxAge:           settings.MaxAge,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
	})
	return c.Handler(next), nil
}

func (r *CORSReloader) settings(ctx context.Context) *models.CORSSettings {
	stored, err := r.source.CORS(ctx)
	if err != nil {
		r.logger.Warn("failed_to_load_cors_settings_using_fallback", zap.Error(err))
	}
	if err != nil || stored == nil || len(stored.AllowedOrigins) == 0 {
		return &models.CORSSettings{AllowedOrigins: r.fallback, AllowCredentials: true, MaxAge: defaultCORSMaxAge}
	}
	return stored
}
