package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benvon/checkauto-admin/internal/config"
	"github.com/benvon/checkauto-admin/internal/database"
	logpkg "github.com/benvon/checkauto-admin/internal/logger"
	"github.com/benvon/checkauto-admin/internal/models"
	"github.com/benvon/checkauto-admin/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	maxNameLength  = 150
	publishTimeout = 2 * time.Second
)

// TokenVerifier verifies a raw bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.TokenClaims, error)
}

// UserStore is the part of the user repository the authenticator needs.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateIdentity(ctx context.Context, user *models.User) error
}

// ProvisionNotifier is told about users created on first sight.
type ProvisionNotifier interface {
	UserProvisioned(ctx context.Context, user *models.User) error
}

// Identity is the result of a successful authentication.
type Identity struct {
	User   *models.User
	Token  string
	Claims *models.TokenClaims
}

// Options configures the policy checks run after verification.
type Options struct {
	EmailDomain       string
	EmailDomainPolicy string
	Notifier          ProvisionNotifier
}

// Authenticator turns an Authorization header into an Identity, creating the
// local user the first time a subject is seen.
type Authenticator struct {
	verifier     TokenVerifier
	users        UserStore
	logger       *zap.Logger
	emailDomain  string
	rejectDomain bool
	notifier     ProvisionNotifier
}

// NewAuthenticator creates an authenticator.
func NewAuthenticator(verifier TokenVerifier, users UserStore, opts Options, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		verifier:     verifier,
		users:        users,
		logger:       logger,
		emailDomain:  strings.ToLower(strings.TrimPrefix(opts.EmailDomain, "@")),
		rejectDomain: opts.EmailDomainPolicy == config.EmailDomainPolicyReject,
		notifier:     opts.Notifier,
	}
}

// BearerToken extracts the token from an Authorization header. The header must
// be exactly two whitespace-separated parts with a case-insensitive Bearer scheme.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// Authenticate returns (nil, nil) when the header carries no bearer token,
// an *AuthError when the token is refused, and a plain error when the user
// store fails.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*Identity, error) {
	ctx, span := telemetry.StartSpan(ctx, "auth.authenticate")
	defer span.End()

	identity, err := a.authenticate(ctx, header)

	var authErr *AuthError
	switch {
	case errors.As(err, &authErr):
		span.SetAttributes(attribute.String("auth.failure_kind", authErr.Kind.String()))
		span.SetStatus(codes.Error, authErr.Message)
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "user store failure")
	case identity == nil:
		span.SetAttributes(attribute.Bool("auth.anonymous", true))
	default:
		span.SetAttributes(attribute.String("enduser.id", identity.User.ID.String()))
	}
	return identity, err
}

func (a *Authenticator) authenticate(ctx context.Context, header string) (*Identity, error) {
	token, ok := BearerToken(header)
	if !ok {
		return nil, nil
	}

	claims, err := a.verifier.Verify(ctx, token)
	if err != nil {
		a.logFailure(err, "")
		return nil, err
	}

	if err := a.checkEmailDomain(claims); err != nil {
		a.logFailure(err, claims.Subject)
		return nil, err
	}

	user, err := a.resolveUser(ctx, claims)
	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		err := newError(KindClaimsPolicyViolation, "user account is disabled", nil)
		a.logFailure(err, claims.Subject)
		return nil, err
	}

	return &Identity{User: user, Token: token, Claims: claims}, nil
}

func (a *Authenticator) checkEmailDomain(claims *models.TokenClaims) error {
	if a.emailDomain == "" {
		return nil
	}
	email := strings.ToLower(claims.Email)
	if strings.HasSuffix(email, "@"+a.emailDomain) {
		return nil
	}
	if a.rejectDomain {
		return newError(KindClaimsPolicyViolation, "email domain is not allowed", nil)
	}
	a.logger.Warn("email_domain_not_allowed",
		zap.String("subject", logpkg.SanitizeUserID(claims.Subject)),
		zap.String("email", logpkg.SanitizeEmail(claims.Email)),
		zap.String("required_domain", a.emailDomain),
	)
	return nil
}

// resolveUser loads the user for the subject or creates it. It performs at
// most one write: an insert for new subjects or an identity update for known ones.
func (a *Authenticator) resolveUser(ctx context.Context, claims *models.TokenClaims) (*models.User, error) {
	user, err := a.users.GetByUsername(ctx, claims.Subject)
	if err == nil {
		return a.syncUser(ctx, user, claims)
	}
	if !errors.Is(err, database.ErrUserNotFound) {
		a.logStoreError("user_lookup_failed", claims.Subject, err)
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	first, last := models.SplitName(claims.Name)
	user = &models.User{
		Username:  claims.Subject,
		Email:     claims.Email,
		FirstName: truncate(first, maxNameLength),
		LastName:  truncate(last, maxNameLength),
		IsActive:  true,
	}

	err = a.users.Create(ctx, user)
	if errors.Is(err, database.ErrUserExists) {
		// Another request created the user between our read and insert.
		user, err = a.users.GetByUsername(ctx, claims.Subject)
		if err != nil {
			a.logStoreError("user_reload_failed", claims.Subject, err)
			return nil, fmt.Errorf("failed to reload user: %w", err)
		}
		return user, nil
	}
	if err != nil {
		a.logStoreError("user_create_failed", claims.Subject, err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("user_provisioned",
		zap.String("subject", logpkg.SanitizeUserID(claims.Subject)),
		zap.String("user_id", user.ID.String()),
	)
	a.notifyProvisioned(ctx, user)

	return user, nil
}

// syncUser copies a changed email from the token. Names are only filled in
// when the user has neither a first nor a last name; the store re-checks that
// at write time and returns the row as stored.
func (a *Authenticator) syncUser(ctx context.Context, user *models.User, claims *models.TokenClaims) (*models.User, error) {
	changed := false

	if claims.Email != "" && claims.Email != user.Email {
		user.Email = claims.Email
		changed = true
	}

	if !user.HasName() && claims.Name != "" {
		first, last := models.SplitName(claims.Name)
		user.FirstName = truncate(first, maxNameLength)
		user.LastName = truncate(last, maxNameLength)
		changed = user.HasName() || changed
	}

	if !changed {
		return user, nil
	}

	if err := a.users.UpdateIdentity(ctx, user); err != nil {
		a.logStoreError("user_update_failed", claims.Subject, err)
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (a *Authenticator) notifyProvisioned(ctx context.Context, user *models.User) {
	if a.notifier == nil {
		return
	}
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := a.notifier.UserProvisioned(publishCtx, user); err != nil {
		a.logger.Warn("user_provisioned_event_failed",
			zap.String("subject", logpkg.SanitizeUserID(user.Username)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
	}
}

func (a *Authenticator) logFailure(err error, subject string) {
	fields := []zap.Field{zap.String("reason", logpkg.SanitizeError(err))}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		fields = append(fields, zap.String("kind", authErr.Kind.String()))
	}
	if subject != "" {
		fields = append(fields, zap.String("subject", logpkg.SanitizeUserID(subject)))
	}
	a.logger.Info("token_verification_failed", fields...)
}

func (a *Authenticator) logStoreError(event, subject string, err error) {
	a.logger.Error(event,
		zap.String("subject", logpkg.SanitizeUserID(subject)),
		zap.Error(err),
	)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
