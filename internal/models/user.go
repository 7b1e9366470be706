package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the local account for an identity-provider subject. Username holds
// the provider's subject id and never changes after creation.
type User struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	IsActive   bool      `json:"is_active"`
	IsStaff    bool      `json:"is_staff"`
	DateJoined time.Time `json:"date_joined"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasName reports whether either name field is set locally.
func (u *User) HasName() bool {
	return u.FirstName != "" || u.LastName != ""
}

// FullName returns "first last" trimmed, or "" when neither is set.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SplitName splits a display name on the first space into first and last name.
func SplitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	first, last, _ = strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}
