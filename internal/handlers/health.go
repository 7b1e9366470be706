package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	healthStatusOK        = "OK"
	healthStatusUnhealthy = "UNHEALTHY"

	healthCheckTimeout = 5 * time.Second
)

// CheckFunc reports whether a dependency is reachable.
type CheckFunc func(ctx context.Context) error

// HealthChecker handles health check requests
type HealthChecker struct {
	service string
	names   []string
	checks  map[string]CheckFunc
}

// NewHealthChecker creates a new health checker for the named service.
func NewHealthChecker(service string) *HealthChecker {
	return &HealthChecker{service: service, checks: make(map[string]CheckFunc)}
}

// AddCheck registers a dependency check run in extended mode. Optional
// dependencies that are not configured should simply not be registered.
func (h *HealthChecker) AddCheck(name string, check CheckFunc) *HealthChecker {
	if _, exists := h.checks[name]; !exists {
		h.names = append(h.names, name)
		sort.Strings(h.names)
	}
	h.checks[name] = check
	return h
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Message   string            `json:"message"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck answers GET /api/public/health/. With ?mode=extended every
// registered dependency is checked concurrently and any failure answers 503.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    healthStatusOK,
		Service:   h.service,
		Message:   "Service is running",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		checks, healthy := h.runChecks(r.Context())
		response.Checks = checks
		if !healthy {
			response.Status = healthStatusUnhealthy
			response.Message = "One or more dependencies are unavailable"
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *HealthChecker) runChecks(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(h.names))
		healthy = true
	)

	// Checks never return an error to the group so one failure does not cancel the rest.
	var g errgroup.Group
	for _, name := range h.names {
		name := name
		check := h.checks[name]
		g.Go(func() error {
			err := check(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				healthy = false
				results[name] = "unhealthy: " + sanitizeErrorMessage(err.Error())
				return nil
			}
			results[name] = "healthy"
			return nil
		})
	}
	_ = g.Wait()

	return results, healthy
}
