package auth

import "fmt"

// Kind classifies why a presented token was refused.
type Kind int

const (
	KindMalformedToken Kind = iota + 1
	KindTokenExpired
	KindInvalidSignature
	KindKeyResolutionFailed
	KindClaimsPolicyViolation
)

func (k Kind) String() string {
	switch k {
	case KindMalformedToken:
		return "malformed_token"
	case KindTokenExpired:
		return "token_expired"
	case KindInvalidSignature:
		return "invalid_signature"
	case KindKeyResolutionFailed:
		return "key_resolution_failed"
	case KindClaimsPolicyViolation:
		return "claims_policy_violation"
	default:
		return "unknown"
	}
}

// AuthError is returned for every authentication failure. Errors from the
// user store are not AuthErrors and must be treated as internal failures.
type AuthError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is matches any AuthError of the same kind, so errors.Is(err, ErrTokenExpired) works.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrMalformedToken        = &AuthError{Kind: KindMalformedToken, Message: "malformed token"}
	ErrTokenExpired          = &AuthError{Kind: KindTokenExpired, Message: "token expired"}
	ErrInvalidSignature      = &AuthError{Kind: KindInvalidSignature, Message: "invalid signature"}
	ErrKeyResolutionFailed   = &AuthError{Kind: KindKeyResolutionFailed, Message: "signing key could not be resolved"}
	ErrClaimsPolicyViolation = &AuthError{Kind: KindClaimsPolicyViolation, Message: "token claims rejected"}
)

func newError(kind Kind, message string, err error) *AuthError {
	return &AuthError{Kind: kind, Message: message, Err: err}
}
