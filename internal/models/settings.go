package models

import "time"

// CORSSettings is the stored cross-origin policy for the SPA frontends.
type CORSSettings struct {
	AllowedOrigins   []string  `json:"allowed_origins"`
	AllowCredentials bool      `json:"allow_credentials"`
	MaxAge           int       `json:"max_age"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RateLimitSettings holds a ulule formatted rate such as "20-S" or "1000-H".
type RateLimitSettings struct {
	Rate      string    `json:"rate"`
	UpdatedAt time.Time `json:"updated_at"`
}
