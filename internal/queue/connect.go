package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	connectInitialDelay = 2 * time.Second
	connectMaxDelay     = 30 * time.Second
)

// Connect dials RabbitMQ with exponential backoff so the services tolerate a
// broker that is still starting. maxAttempts bounds the total number of dials.
func Connect(ctx context.Context, amqpURL string, maxAttempts uint64, logger *zap.Logger) (*RabbitMQQueue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxAttempts == 0 {
		maxAttempts = 1
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = connectInitialDelay
	policy.MaxInterval = connectMaxDelay
	policy.MaxElapsedTime = 0

	var (
		q       *RabbitMQQueue
		attempt int
	)
	operation := func() error {
		attempt++
		var err error
		q, err = NewRabbitMQQueue(amqpURL, logger)
		return err
	}
	notify := func(err error, delay time.Duration) {
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt),
			zap.Uint64("max_attempts", maxAttempts),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, maxAttempts-1), ctx)
	if err := backoff.RetryNotify(operation, b, notify); err != nil {
		return nil, fmt.Errorf("rabbitmq unavailable after %d attempt(s): %w", attempt, err)
	}
	return q, nil
}
