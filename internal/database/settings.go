package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/checkauto-admin/internal/models"
)

// settingsKey is the single row key used by both settings tables.
const settingsKey = "default"

// SettingsRepository stores the hot-reloaded HTTP settings (CORS and rate limit).
// A missing row is reported as (nil, nil) so callers can fall back to defaults.
type SettingsRepository struct {
	db *DB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// CORS returns the stored CORS settings.
func (r *SettingsRepository) CORS(ctx context.Context) (*models.CORSSettings, error) {
	var origins string
	s := &models.CORSSettings{}
	err := r.db.QueryRowContext(ctx, `
		SELECT allowed_origins, allow_credentials, max_age, updated_at
		FROM cors_config WHERE config_key = $1
	`, settingsKey).Scan(&origins, &s.AllowCredentials, &s.MaxAge, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cors settings: %w", err)
	}
	s.AllowedOrigins = SplitOrigins(origins)
	return s, nil
}

// SaveCORS replaces the stored CORS settings.
func (r *SettingsRepository) SaveCORS(ctx context.Context, s *models.CORSSettings) error {
	if len(s.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin is required")
	}
	if s.MaxAge < 0 {
		return fmt.Errorf("max age cannot be negative")
	}

	s.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cors_config (config_key, allowed_origins, allow_credentials, max_age, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (config_key) DO UPDATE SET
			allowed_origins = EXCLUDED.allowed_origins,
			allow_credentials = EXCLUDED.allow_credentials,
			max_age = EXCLUDED.max_age,
			updated_at = EXCLUDED.updated_at
	`, settingsKey, strings.Join(s.AllowedOrigins, ","), s.AllowCredentials, s.MaxAge, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save cors settings: %w", err)
	}
	return nil
}

// RateLimit returns the stored rate limit settings.
func (r *SettingsRepository) RateLimit(ctx context.Context) (*models.RateLimitSettings, error) {
	s := &models.RateLimitSettings{}
	err := r.db.QueryRowContext(ctx, `
		SELECT rate, updated_at FROM ratelimit_config WHERE config_key = $1
	`, settingsKey).Scan(&s.Rate, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limit settings: %w", err)
	}
	return s, nil
}

// SaveRateLimit replaces the stored rate. The format is not checked here; the
// middleware falls back to its default when the stored rate does not parse.
func (r *SettingsRepository) SaveRateLimit(ctx context.Context, s *models.RateLimitSettings) error {
	s.Rate = strings.TrimSpace(s.Rate)
	if s.Rate == "" {
		return fmt.Errorf("rate cannot be empty")
	}

	s.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ratelimit_config (config_key, rate, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (config_key) DO UPDATE SET
			rate = EXCLUDED.rate,
			updated_at = EXCLUDED.updated_at
	`, settingsKey, s.Rate, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save rate limit settings: %w", err)
	}
	return nil
}

// SplitOrigins parses a comma-separated origin list, trimming blanks and
// dropping duplicates while keeping order.
func SplitOrigins(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		origin := strings.TrimSuffix(strings.TrimSpace(part), "/")
		if origin == "" || seen[origin] {
			continue
		}
		seen[origin] = true
		out = append(out, origin)
	}
	return out
}
