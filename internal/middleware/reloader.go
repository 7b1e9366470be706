package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// hotSwap serves through a handler that is rebuilt from stored settings on an
// interval. Until the first successful build it passes requests straight to next.
type hotSwap struct {
	name     string
	build    func(ctx context.Context, next http.Handler) (http.Handler, error)
	interval time.Duration
	logger   *zap.Logger

	next    http.Handler
	mu      sync.RWMutex
	current http.Handler
}

func (h *hotSwap) wrap(next http.Handler) http.Handler {
	h.next = next
	h.reload(context.Background())
	return h
}

// run reloads every interval until ctx is cancelled.
func (h *hotSwap) run(ctx context.Context) {
	if h.interval <= 0 {
		return
	}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.reload(ctx)
		}
	}
}

func (h *hotSwap) reload(ctx context.Context) {
	if h.next == nil {
		return
	}
	handler, err := h.build(ctx, h.next)
	if err != nil {
		h.logger.Error("settings_reload_failed", zap.String("settings", h.name), zap.Error(err))
		return
	}
	h.mu.Lock()
	h.current = handler
	h.mu.Unlock()
}

func (h *hotSwap) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.current
	h.mu.RUnlock()
	if current != nil {
		current.ServeHTTP(w, r)
		return
	}
	h.next.ServeHTTP(w, r)
}
