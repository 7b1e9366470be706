package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/benvon/checkauto-admin/internal/config"
	"github.com/benvon/checkauto-admin/internal/database"
	"github.com/benvon/checkauto-admin/internal/handlers"
	"github.com/benvon/checkauto-admin/internal/logger"
	"github.com/benvon/checkauto-admin/internal/middleware"
	"github.com/benvon/checkauto-admin/internal/queue"
	"github.com/benvon/checkauto-admin/internal/services/auth"
	"github.com/benvon/checkauto-admin/internal/services/dashboard"
	"github.com/benvon/checkauto-admin/internal/services/profile"
	"github.com/benvon/checkauto-admin/internal/telemetry"
	"go.uber.org/zap"
)

const (
	settingsReloadInterval  = time.Minute
	rabbitMQConnectAttempts = 10
	dlqGCInterval           = time.Hour
	dlqRetention            = 7 * 24 * time.Hour
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(telemetry.ServiceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("auth_domain", cfg.Auth.Domain),
		zap.Bool("verify_audience", cfg.Auth.VerifyAudience),
		zap.Strings("allowed_algorithms", cfg.Auth.AllowedAlgorithms),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	tracing := false
	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(ctx, telemetry.ServiceName, cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		} else {
			tracing = true
			zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
					zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
				}
			}()
		}
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	if err := db.Migrate(ctx); err != nil {
		zapLogger.Fatal("failed_to_migrate_database", zap.Error(err))
	}
	zapLogger.Info("connected_to_database")

	healthChecker := handlers.NewHealthChecker(telemetry.ServiceName).
		AddCheck("database", db.PingContext)

	userRepo := database.NewUserRepository(db)
	settingsRepo := database.NewSettingsRepository(db)
	statsRepo := database.NewStatsRepository(db)

	// Events are optional: without RabbitMQ users are still provisioned, just
	// without the welcome notification.
	var notifier auth.ProvisionNotifier
	if cfg.RabbitMQURL != "" {
		jobQueue, err := queue.Connect(ctx, cfg.RabbitMQURL, rabbitMQConnectAttempts, zapLogger)
		if err != nil {
			zapLogger.Error("rabbitmq_unavailable_events_disabled", zap.Error(err))
			healthChecker.AddCheck("rabbitmq", func(context.Context) error { return err })
		} else {
			zapLogger.Info("connected_to_rabbitmq")
			defer func() {
				if err := jobQueue.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
			notifier = queue.NewProvisionPublisher(jobQueue)
			healthChecker.AddCheck("rabbitmq", jobQueue.HealthCheck)

			dlqGC := queue.NewGarbageCollector(jobQueue, dlqGCInterval, dlqRetention, zapLogger)
			go func() {
				if err := dlqGC.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
					zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
				}
			}()
		}
	} else {
		zapLogger.Warn("rabbitmq_not_configured_events_disabled")
	}

	jwks := auth.NewJWKSCache(cfg.Auth.JWKSURL, auth.JWKSCacheOptions{
		TTL:                cfg.Auth.JWKSCacheTTL,
		MinRefreshInterval: cfg.Auth.JWKSMinRefreshInterval,
	}, zapLogger)
	if _, err := jwks.Keys(ctx); err != nil {
		zapLogger.Warn("jwks_prefetch_failed", zap.String("url", cfg.Auth.JWKSURL), zap.Error(err))
	}

	verifier := auth.NewVerifier(jwks, auth.VerifierConfig{
		Issuer:            cfg.Auth.Issuer(),
		Audience:          cfg.Auth.Audience,
		VerifyAudience:    cfg.Auth.VerifyAudience,
		AllowedAlgorithms: cfg.Auth.AllowedAlgorithms,
		ClockSkew:         cfg.Auth.ClockSkew,
	})
	authenticator := auth.NewAuthenticator(verifier, userRepo, auth.Options{
		EmailDomain:       cfg.Auth.EmailDomain,
		EmailDomainPolicy: cfg.Auth.EmailDomainPolicy,
		Notifier:          notifier,
	}, zapLogger)
	loginConfig := auth.NewLoginConfig(cfg.Auth.Domain, cfg.Auth.ClientID, cfg.Auth.Audience, cfg.Auth.RedirectURI)

	corsReloader := middleware.NewCORSReloader(settingsRepo, cfg.FrontendURL, zapLogger, settingsReloadInterval)
	go corsReloader.Start(ctx)

	var rateLimitMW func(http.Handler) http.Handler
	if cfg.RedisURL != "" {
		redisClient, err := middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
		healthChecker.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})

		rateLimitReloader, err := middleware.NewRateLimitReloader(redisClient, settingsRepo, cfg.RateLimitDefault, zapLogger, settingsReloadInterval)
		if err != nil {
			zapLogger.Fatal("failed_to_create_rate_limit_reloader", zap.Error(err))
		}
		rateLimitMW = rateLimitReloader.Middleware()
		go rateLimitReloader.Start(ctx)
	} else {
		zapLogger.Warn("redis_not_configured_rate_limiting_disabled")
	}

	openAPIHandler, err := handlers.NewOpenAPIHandler(filepath.Join("api", "openapi", "openapi.yaml"))
	if err != nil {
		zapLogger.Warn("openapi_specification_unavailable", zap.Error(err))
	}

	dashboardService := dashboard.NewService(statsRepo, dashboard.Site{
		Header:     cfg.Admin.SiteHeader,
		Title:      cfg.Admin.SiteTitle,
		IndexTitle: cfg.Admin.IndexTitle,
	})

	router := newRouter(routerDeps{
		logger:        zapLogger,
		tracing:       tracing,
		enableHSTS:    cfg.EnableHSTS,
		cors:          corsReloader.Middleware(),
		rateLimit:     rateLimitMW,
		authenticator: authenticator,
		health:        healthChecker,
		auth:          handlers.NewAuthHandler(loginConfig, zapLogger),
		profile:       handlers.NewProfileHandler(profile.NewService(userRepo), zapLogger),
		dashboard:     handlers.NewDashboardHandler(dashboardService, zapLogger),
		openAPI:       openAPIHandler,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   requestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}
