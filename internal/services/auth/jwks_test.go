package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestJWKSCache_ConcurrentMissesFetchOnce(t *testing.T) {
	t.Parallel()

	key := newSigningKey(t, "key-1")
	server := newJWKSServer(t, key)
	cache := NewJWKSCache(server.URL, JWKSCacheOptions{}, zaptest.NewLogger(t))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Key(context.Background(), "key-1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), server.hits.Load())
}

func TestJWKSCache_TTL(t *testing.T) {
	t.Parallel()

	key := newSigningKey(t, "key-1")
	server := newJWKSServer(t, key)
	clock := newFakeClock()
	cache := NewJWKSCache(server.URL, JWKSCacheOptions{TTL: time.Minute}, zaptest.NewLogger(t))
	cache.now = clock.Now

	_, err := cache.Key(context.Background(), "key-1")
	require.NoError(t, err)
	_, err = cache.Key(context.Background(), "key-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), server.hits.Load())

	clock.Advance(2 * time.Minute)
	_, err = cache.Key(context.Background(), "key-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), server.hits.Load())
}

func TestJWKSCache_UnknownKidRefresh(t *testing.T) {
	t.Parallel()

	oldKey := newSigningKey(t, "key-old")
	newKey := newSigningKey(t, "key-new")
	server := newJWKSServer(t, oldKey)
	clock := newFakeClock()
	cache := NewJWKSCache(server.URL, JWKSCacheOptions{MinRefreshInterval: 30 * time.Second}, zaptest.NewLogger(t))
	cache.now = clock.Now

	_, err := cache.Key(context.Background(), "key-old")
	require.NoError(t, err)

	// Provider rotates keys.
	server.publish(t, oldKey, newKey)

	_, err = cache.Key(context.Background(), "key-new")
	require.ErrorIs(t, err, ErrKeyNotFound, "refresh is throttled right after a fetch")
	assert.Equal(t, int32(1), server.hits.Load())

	clock.Advance(31 * time.Second)
	got, err := cache.Key(context.Background(), "key-new")
	require.NoError(t, err)
	assert.Equal(t, "key-new", got.KeyID())
	assert.Equal(t, int32(2), server.hits.Load())

	clock.Advance(31 * time.Second)
	_, err = cache.Key(context.Background(), "key-missing")
	require.ErrorIs(t, err, ErrKeyNotFound)
	assert.Equal(t, int32(3), server.hits.Load())
}

func TestJWKSCache_FetchErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, ""},
		{"not found", http.StatusNotFound, ""},
		{"invalid json", http.StatusOK, "not json"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := newJWKSServer(t)
			server.mu.Lock()
			server.status = tt.status
			server.doc = []byte(tt.body)
			server.mu.Unlock()

			cache := NewJWKSCache(server.URL, JWKSCacheOptions{}, zaptest.NewLogger(t))
			_, err := cache.Key(context.Background(), "key-1")
			assert.Error(t, err)
		})
	}
}

func TestJWKSCache_FetchTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	cache := NewJWKSCache(server.URL, JWKSCacheOptions{FetchTimeout: 50 * time.Millisecond}, zaptest.NewLogger(t))
	start := time.Now()
	_, err := cache.Keys(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
