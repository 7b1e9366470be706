package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/checkauto-admin/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned by Create when the username is already taken.
	ErrUserExists = errors.New("user already exists")
)

const userColumns = `id, username, email, first_name, last_name, is_active, is_staff, date_joined, updated_at`

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.IsActive,
		&user.IsStaff,
		&user.DateJoined,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Create inserts a new user. A concurrent insert of the same username is not an
// error at the SQL level; it surfaces as ErrUserExists so the caller can re-read.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	query := `
		INSERT INTO users (id, username, email, first_name, last_name, is_active, is_staff, date_joined, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (username) DO NOTHING
		RETURNING date_joined, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.IsActive,
		user.IsStaff,
		now,
		now,
	).Scan(&user.DateJoined, &user.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
		return fmt.Errorf("username %q: %w", user.Username, ErrUserExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username (the provider subject id).
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

// UpdateIdentity writes the fields the token verifier is allowed to sync:
// email always, first and last name only while the stored row has neither.
// The name guard is evaluated against the row at write time, so a name saved
// through the profile endpoint after the caller read the user is kept. user is
// refreshed from the stored row.
func (r *UserRepository) UpdateIdentity(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $2,
			first_name = CASE WHEN first_name = '' AND last_name = '' THEN $3 ELSE first_name END,
			last_name = CASE WHEN first_name = '' AND last_name = '' THEN $4 ELSE last_name END,
			updated_at = $5
		WHERE id = $1
		RETURNING ` + userColumns

	stored, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		time.Now(),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update user identity: %w", err)
	}

	*user = *stored
	return nil
}

// UpdateName sets both name fields in a single statement and returns the stored row.
func (r *UserRepository) UpdateName(ctx context.Context, id uuid.UUID, firstName, lastName string) (*models.User, error) {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, updated_at = $4
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, firstName, lastName, time.Now()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user name: %w", err)
	}
	return user, nil
}

// SetStaff grants or revokes access to the admin dashboard.
func (r *UserRepository) SetStaff(ctx context.Context, username string, staff bool) error {
	return r.setFlag(ctx, `UPDATE users SET is_staff = $2, updated_at = $3 WHERE username = $1`, username, staff)
}

// SetActive enables or disables a user. Disabled users fail authentication.
func (r *UserRepository) SetActive(ctx context.Context, username string, active bool) error {
	return r.setFlag(ctx, `UPDATE users SET is_active = $2, updated_at = $3 WHERE username = $1`, username, active)
}

func (r *UserRepository) setFlag(ctx context.Context, query, username string, value bool) error {
	result, err := r.db.ExecContext(ctx, query, username, value, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
