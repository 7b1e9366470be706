package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/benvon/checkauto-admin/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// VerifierConfig holds the trust decisions applied to every token.
type VerifierConfig struct {
	Issuer            string
	Audience          string
	VerifyAudience    bool
	AllowedAlgorithms []string
	ClockSkew         time.Duration
}

// Verifier checks a compact JWS token against the provider's keys and returns its claims.
type Verifier struct {
	keys    KeySource
	cfg     VerifierConfig
	allowed map[jwa.SignatureAlgorithm]bool
	now     func() time.Time
}

// NewVerifier creates a verifier resolving keys through keys.
func NewVerifier(keys KeySource, cfg VerifierConfig) *Verifier {
	if len(cfg.AllowedAlgorithms) == 0 {
		cfg.AllowedAlgorithms = []string{jwa.RS256.String()}
	}
	allowed := make(map[jwa.SignatureAlgorithm]bool, len(cfg.AllowedAlgorithms))
	for _, alg := range cfg.AllowedAlgorithms {
		allowed[jwa.SignatureAlgorithm(alg)] = true
	}
	return &Verifier{
		keys:    keys,
		cfg:     cfg,
		allowed: allowed,
		now:     time.Now,
	}
}

// Verify runs the checks in order: shape, header, key, signature, claims.
// The first failing check decides the error kind.
func (v *Verifier) Verify(ctx context.Context, token string) (*models.TokenClaims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, newError(KindMalformedToken, "token must have three segments", nil)
	}
	buf := []byte(token)

	msg, err := jws.Parse(buf)
	if err != nil {
		return nil, newError(KindMalformedToken, "token header could not be decoded", err)
	}
	sigs := msg.Signatures()
	if len(sigs) != 1 {
		return nil, newError(KindMalformedToken, "token must carry exactly one signature", nil)
	}
	headers := sigs[0].ProtectedHeaders()
	kid := headers.KeyID()
	if kid == "" {
		return nil, newError(KindMalformedToken, "token header has no kid", nil)
	}
	alg := headers.Algorithm()
	if !v.allowed[alg] {
		return nil, newError(KindInvalidSignature, "signing algorithm "+alg.String()+" is not allowed", nil)
	}

	key, err := v.keys.Key(ctx, kid)
	if err != nil {
		return nil, newError(KindKeyResolutionFailed, "signing key could not be resolved", err)
	}

	if _, err := jws.Verify(buf, jws.WithKey(alg, key)); err != nil {
		return nil, newError(KindInvalidSignature, "signature verification failed", err)
	}

	tok, err := jwt.Parse(buf, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return nil, newError(KindMalformedToken, "token claims could not be decoded", err)
	}
	if tok.Subject() == "" {
		return nil, newError(KindMalformedToken, "token has no sub claim", nil)
	}
	if tok.Expiration().IsZero() {
		return nil, newError(KindMalformedToken, "token has no exp claim", nil)
	}

	opts := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(v.now)),
		jwt.WithAcceptableSkew(v.cfg.ClockSkew),
		jwt.WithIssuer(v.cfg.Issuer),
	}
	if v.cfg.VerifyAudience {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}
	if err := jwt.Validate(tok, opts...); err != nil {
		return nil, classifyValidationError(err)
	}

	return claimsFromToken(tok), nil
}

func classifyValidationError(err error) *AuthError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired()):
		return newError(KindTokenExpired, "token has expired", err)
	case errors.Is(err, jwt.ErrInvalidIssuer()):
		return newError(KindClaimsPolicyViolation, "token issuer is not trusted", err)
	case errors.Is(err, jwt.ErrInvalidAudience()):
		return newError(KindClaimsPolicyViolation, "token audience does not match", err)
	default:
		return newError(KindClaimsPolicyViolation, "token claims are not valid", err)
	}
}

func claimsFromToken(tok jwt.Token) *models.TokenClaims {
	private := tok.PrivateClaims()
	return &models.TokenClaims{
		Subject:   tok.Subject(),
		Email:     stringClaim(private, "email"),
		Name:      displayName(private),
		Issuer:    tok.Issuer(),
		Audience:  tok.Audience(),
		ExpiresAt: tok.Expiration(),
		IssuedAt:  tok.IssuedAt(),
	}
}

// displayName prefers the top-level name claim, then the names the signup
// form stores in user_metadata.
func displayName(claims map[string]any) string {
	if name := stringClaim(claims, "name"); name != "" {
		return name
	}
	meta, ok := claims["user_metadata"].(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"nombre", "full_name", "name"} {
		if name := stringClaim(meta, key); name != "" {
			return name
		}
	}
	return ""
}

func stringClaim(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return strings.TrimSpace(s)
}
