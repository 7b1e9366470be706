package main

import (
	"net/http"
	"time"

	"github.com/benvon/checkauto-admin/internal/handlers"
	"github.com/benvon/checkauto-admin/internal/middleware"
	"github.com/benvon/checkauto-admin/internal/telemetry"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

const requestTimeout = 30 * time.Second

// routerDeps carries everything the HTTP surface needs. Optional middlewares
// are nil when their backing service is not configured.
type routerDeps struct {
	logger        *zap.Logger
	tracing       bool
	enableHSTS    bool
	cors          func(http.Handler) http.Handler
	rateLimit     func(http.Handler) http.Handler
	authenticator middleware.Authenticator

	health    *handlers.HealthChecker
	auth      *handlers.AuthHandler
	profile   *handlers.ProfileHandler
	dashboard *handlers.DashboardHandler
	openAPI   *handlers.OpenAPIHandler
}

// newRouter builds the router. gorilla/mux runs middleware in registration
// order, so the first Use is the outermost wrapper.
func newRouter(d routerDeps) *mux.Router {
	r := mux.NewRouter()

	if d.tracing {
		r.Use(otelmux.Middleware(telemetry.ServiceName))
	}
	r.Use(middleware.SecurityHeaders(d.enableHSTS))
	if d.cors != nil {
		r.Use(d.cors)
	}
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize, d.logger))
	r.Use(middleware.ContentType(d.logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ErrorHandler(d.logger))
	r.Use(middleware.Audit(d.logger))
	r.Use(middleware.Logging(d.logger))

	// Public routes, never rate limited.
	r.HandleFunc("/api/public/health/", d.health.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/api/public/info/", handlers.Info(telemetry.ServiceName)).Methods(http.MethodGet)
	if d.openAPI != nil {
		d.openAPI.RegisterRoutes(r)
	}

	api := r.PathPrefix("/api").Subrouter()
	if d.rateLimit != nil {
		api.Use(d.rateLimit)
	}
	authMW := middleware.Auth(d.authenticator, d.logger)

	authRouter := api.PathPrefix("/auth").Subrouter()
	d.auth.RegisterRoutes(authRouter)

	protectedAuthRouter := authRouter.PathPrefix("").Subrouter()
	protectedAuthRouter.Use(authMW)
	d.profile.RegisterRoutes(protectedAuthRouter)
	d.auth.RegisterProtectedRoutes(protectedAuthRouter)

	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(authMW)
	adminRouter.Use(middleware.RequireStaff(d.logger))
	d.dashboard.RegisterRoutes(adminRouter)

	// Preflight requests are answered by the CORS middleware; this only makes
	// sure the router does not reject them first.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
