package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/checkauto-admin/internal/models"
	"github.com/benvon/checkauto-admin/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// DefaultRate applies when neither the settings table nor RATE_LIMIT_DEFAULT provide one.
const DefaultRate = "20-S"

const rateLimitKeyPrefix = "checkauto_ratelimit"

// RateLimitSettingsSource loads and seeds the stored rate.
type RateLimitSettingsSource interface {
	RateLimit(ctx context.Context) (*models.RateLimitSettings, error)
	SaveRateLimit(ctx context.Context, s *models.RateLimitSettings) error
}

// NewRedisClient parses redisURL and verifies the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RateLimitReloader limits requests per client IP with ulule/limiter backed by
// Redis, reloading the rate from the settings table.
type RateLimitReloader struct {
	swap        hotSwap
	store       limiter.Store
	source      RateLimitSettingsSource
	defaultRate string
	logger      *zap.Logger
}

// NewRateLimitReloader creates the rate limit middleware. The default rate is
// stored when the settings table has none.
func NewRateLimitReloader(redisClient *redis.Client, source RateLimitSettingsSource, defaultRate string, logger *zap.Logger, reloadInterval time.Duration) (*RateLimitReloader, error) {
	store, err := redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: rateLimitKeyPrefix})
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit store: %w", err)
	}
	return newRateLimitReloader(store, source, defaultRate, logger, reloadInterval), nil
}

func newRateLimitReloader(store limiter.Store, source RateLimitSettingsSource, defaultRate string, logger *zap.Logger, reloadInterval time.Duration) *RateLimitReloader {
	if defaultRate == "" {
		defaultRate = DefaultRate
	}
	r := &RateLimitReloader{store: store, source: source, defaultRate: defaultRate, logger: logger}
	r.swap = hotSwap{name: "ratelimit", build: r.build, interval: reloadInterval, logger: logger}
	return r
}

// Middleware returns the middleware; apply it once.
func (r *RateLimitReloader) Middleware() func(http.Handler) http.Handler {
	return r.swap.wrap
}

// Start reloads the rate until ctx is cancelled.
func (r *RateLimitReloader) Start(ctx context.Context) {
	r.swap.run(ctx)
}

func (r *RateLimitReloader) build(ctx context.Context, next http.Handler) (http.Handler, error) {
	rate, err := limiter.NewRateFromFormatted(r.currentRate(ctx))
	if err != nil {
		r.logger.Error("invalid_rate_limit_using_default", zap.Error(err), zap.String("default_rate", r.defaultRate))
		rate, err = limiter.NewRateFromFormatted(r.defaultRate)
		if err != nil {
			return nil, fmt.Errorf("invalid default rate %q: %w", r.defaultRate, err)
		}
	}

	mw := stdlibmw.NewMiddleware(
		limiter.New(r.store, rate),
		stdlibmw.WithKeyGetter(request.ClientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, req *http.Request) {
			WriteError(w, req, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded", r.logger)
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, req *http.Request, err error) {
			// Fail open: a Redis outage must not take the API down.
			r.logger.Warn("rate_limit_store_error", zap.Error(err))
			next.ServeHTTP(w, req)
		}),
	)
	return mw.Handler(next), nil
}

func (r *RateLimitReloader) currentRate(ctx context.Context) string {
	stored, err := r.source.RateLimit(ctx)
	switch {
	case err != nil:
		r.logger.Warn("failed_to_load_ratelimit_settings_using_default", zap.Error(err), zap.String("default_rate", r.defaultRate))
		return r.defaultRate
	case stored != nil && stored.Rate != "":
		return stored.Rate
	}

	if err := r.source.SaveRateLimit(ctx, &models.RateLimitSettings{Rate: r.defaultRate}); err != nil {
		r.logger.Error("failed_to_save_default_ratelimit_settings", zap.Error(err))
	}
	return r.defaultRate
}
