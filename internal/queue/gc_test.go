package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockDLQPurger struct {
	purgeFunc func(ctx context.Context, retention time.Duration) (int, error)
}

func (m *mockDLQPurger) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	if m.purgeFunc != nil {
		return m.purgeFunc(ctx, retention)
	}
	return 0, nil
}

func TestGarbageCollector_Collect_NilPurger(t *testing.T) {
	t.Parallel()

	gc := NewGarbageCollector(nil, time.Minute, 24*time.Hour, nil)
	assert.NoError(t, gc.collect(context.Background()))
}

func TestGarbageCollector_Collect(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	var called atomic.Bool
	mock := &mockDLQPurger{
		purgeFunc: func(ctx context.Context, retention time.Duration) (int, error) {
			called.Store(true)
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			assert.Equal(t, 7*24*time.Hour, retention)
			return 3, nil
		},
	}

	gc := NewGarbageCollector(mock, time.Minute, 7*24*time.Hour, zap.New(core))
	require.NoError(t, gc.collect(context.Background()))
	assert.True(t, called.Load())

	entries := logs.FilterMessage("dlq_gc_purged").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 3, entries[0].ContextMap()["count"])
}

func TestGarbageCollector_Collect_NothingPurgedIsQuiet(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	gc := NewGarbageCollector(&mockDLQPurger{}, time.Minute, time.Hour, zap.New(core))

	require.NoError(t, gc.collect(context.Background()))
	assert.Zero(t, logs.Len())
}

func TestGarbageCollector_Collect_PurgerError(t *testing.T) {
	t.Parallel()

	mock := &mockDLQPurger{
		purgeFunc: func(context.Context, time.Duration) (int, error) {
			return 0, errors.New("purge failed")
		},
	}
	gc := NewGarbageCollector(mock, time.Minute, time.Hour, nil)
	assert.ErrorContains(t, gc.collect(context.Background()), "purge failed")
}

func TestGarbageCollector_Start_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	gc := NewGarbageCollector(&mockDLQPurger{}, 24*time.Hour, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, gc.Start(ctx), context.Canceled)
}

func TestGarbageCollector_Start_RunsOnTick(t *testing.T) {
	t.Parallel()

	ran := make(chan struct{}, 1)
	mock := &mockDLQPurger{purgeFunc: func(context.Context, time.Duration) (int, error) {
		select {
		case ran <- struct{}{}:
		default:
		}
		return 0, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gc := NewGarbageCollector(mock, 10*time.Millisecond, time.Hour, nil)
	done := make(chan error, 1)
	go func() { done <- gc.Start(ctx) }()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("garbage collector never ran")
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
