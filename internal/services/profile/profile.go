package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/checkauto-admin/internal/models"
	"github.com/benvon/checkauto-admin/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MaxNameLength matches the width of the first_name and last_name columns.
const MaxNameLength = 150

// Profile is the public view of the authenticated user.
type Profile struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	FullName        *string   `json:"full_name"`
	IsAuthenticated bool      `json:"is_authenticated"`
}

// UpdateRequest is the body of a profile update. Both names are required.
type UpdateRequest struct {
	FirstName string `json:"first_name" validate:"notblank,max=150"`
	LastName  string `json:"last_name" validate:"notblank,max=150"`
}

// ValidationError reports the first invalid field of an UpdateRequest.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Store persists name changes.
type Store interface {
	UpdateName(ctx context.Context, id uuid.UUID, firstName, lastName string) (*models.User, error)
}

// Service reads and updates user profiles.
type Service struct {
	users Store
}

// NewService creates a profile service.
func NewService(users Store) *Service {
	return &Service{users: users}
}

// Get projects a user into a Profile. FullName is nil when both names are empty.
func Get(user *models.User) *Profile {
	p := &Profile{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		IsAuthenticated: true,
	}
	if user.HasName() {
		full := user.FullName()
		p.FullName = &full
	}
	return p
}

// Get returns the profile of user.
func (s *Service) Get(user *models.User) *Profile {
	return Get(user)
}

// Update trims and validates both names, then stores them in a single write.
// Nothing is written when validation fails.
func (s *Service) Update(ctx context.Context, user *models.User, req UpdateRequest) (*Profile, error) {
	req.FirstName = validation.SanitizeName(req.FirstName)
	req.LastName = validation.SanitizeName(req.LastName)

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	updated, err := s.users.UpdateName(ctx, user.ID, req.FirstName, req.LastName)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return Get(updated), nil
}

func validateRequest(req UpdateRequest) error {
	err := validation.Validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("failed to validate profile: %w", err)
	}

	fe := verrs[0]
	field := "first_name"
	if fe.StructField() == "LastName" {
		field = "last_name"
	}
	switch fe.Tag() {
	case "max":
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", MaxNameLength)}
	default:
		return &ValidationError{Field: field, Message: "first name and last name are required"}
	}
}
