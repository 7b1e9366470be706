package models

import "time"

// TokenClaims is the verified payload of a provider access or id token.
type TokenClaims struct {
	Subject   string    `json:"sub"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name,omitempty"` // from "name" or user_metadata.{nombre,full_name,name}
	Issuer    string    `json:"iss"`
	Audience  []string  `json:"aud,omitempty"`
	ExpiresAt time.Time `json:"exp"`
	IssuedAt  time.Time `json:"iat,omitempty"`
}
