package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/benvon/checkauto-admin/internal/telemetry"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultJWKSFetchTimeout bounds a single JWKS download.
	DefaultJWKSFetchTimeout = 5 * time.Second
	// maxJWKSBodySize caps the JWKS response body.
	maxJWKSBodySize = 1 << 20
)

// ErrKeyNotFound is returned when the kid is absent from the key set, even after a refresh.
var ErrKeyNotFound = errors.New("kid not found in key set")

// KeySource resolves the public key for a token's kid.
type KeySource interface {
	Key(ctx context.Context, kid string) (jwk.Key, error)
}

// JWKSCacheOptions tunes a JWKSCache. Zero values fall back to defaults.
type JWKSCacheOptions struct {
	TTL                time.Duration
	MinRefreshInterval time.Duration
	FetchTimeout       time.Duration
	HTTPClient         *http.Client
}

// JWKSCache fetches the provider's key set and keeps it for TTL. Concurrent
// misses share a single fetch. An unknown kid forces one refresh at most every
// MinRefreshInterval so rotated keys are picked up without hammering the provider.
type JWKSCache struct {
	url          string
	ttl          time.Duration
	minRefresh   time.Duration
	fetchTimeout time.Duration
	client       *http.Client
	logger       *zap.Logger
	now          func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	keys      jwk.Set
	fetchedAt time.Time
}

// NewJWKSCache creates a cache for the key set at url.
func NewJWKSCache(url string, opts JWKSCacheOptions, logger *zap.Logger) *JWKSCache {
	if opts.TTL <= 0 {
		opts.TTL = 15 * time.Minute
	}
	if opts.MinRefreshInterval <= 0 {
		opts.MinRefreshInterval = 30 * time.Second
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultJWKSFetchTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWKSCache{
		url:          url,
		ttl:          opts.TTL,
		minRefresh:   opts.MinRefreshInterval,
		fetchTimeout: opts.FetchTimeout,
		client:       opts.HTTPClient,
		logger:       logger,
		now:          time.Now,
	}
}

// Key implements KeySource.
func (c *JWKSCache) Key(ctx context.Context, kid string) (jwk.Key, error) {
	keys, err := c.Keys(ctx)
	if err != nil {
		return nil, err
	}
	if key, ok := keys.LookupKeyID(kid); ok {
		return key, nil
	}

	if !c.refreshAllowed() {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
	}

	c.logger.Info("jwks_refresh_for_unknown_kid", zap.String("kid", kid))
	keys, err = c.refresh(ctx, true)
	if err != nil {
		return nil, err
	}
	if key, ok := keys.LookupKeyID(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, kid)
}

// Keys returns the cached key set, fetching it when absent or older than TTL.
func (c *JWKSCache) Keys(ctx context.Context) (jwk.Set, error) {
	c.mu.RLock()
	keys, fetchedAt := c.keys, c.fetchedAt
	c.mu.RUnlock()

	if keys != nil && c.now().Sub(fetchedAt) < c.ttl {
		return keys, nil
	}
	return c.refresh(ctx, false)
}

func (c *JWKSCache) refreshAllowed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now().Sub(c.fetchedAt) >= c.minRefresh
}

// refresh downloads the key set once for all concurrent callers. The fetch is
// detached from the first caller's cancellation so it cannot fail the others.
// Unless forced, a set stored by a flight that finished in the meantime is reused.
func (c *JWKSCache) refresh(ctx context.Context, force bool) (jwk.Set, error) {
	ch := c.group.DoChan("jwks", func() (any, error) {
		if !force {
			c.mu.RLock()
			keys, fetchedAt := c.keys, c.fetchedAt
			c.mu.RUnlock()
			if keys != nil && c.now().Sub(fetchedAt) < c.ttl {
				return keys, nil
			}
		}

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		keys, err := c.fetch(fetchCtx)
		if err != nil {
			c.logger.Warn("jwks_fetch_failed", zap.String("url", c.url), zap.Error(err))
			return nil, err
		}

		c.mu.Lock()
		c.keys = keys
		c.fetchedAt = c.now()
		c.mu.Unlock()

		c.logger.Debug("jwks_fetched", zap.String("url", c.url), zap.Int("keys", keys.Len()))
		return keys, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(jwk.Set), nil
	}
}

func (c *JWKSCache) fetch(ctx context.Context) (keys jwk.Set, err error) {
	ctx, span := telemetry.StartSpan(ctx, "auth.jwks_fetch")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "jwks fetch failed")
		} else {
			span.SetAttributes(attribute.Int("jwks.key_count", keys.Len()))
		}
		span.End()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS response: %w", err)
	}

	keys, err = jwk.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}
	return keys, nil
}
