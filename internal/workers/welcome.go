package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/benvon/checkauto-admin/internal/logger"
	"github.com/benvon/checkauto-admin/internal/models"
	"github.com/benvon/checkauto-admin/internal/queue"
	"go.uber.org/zap"
)

// errInvalidJob marks jobs that can never succeed; they are dead-lettered without retry.
var errInvalidJob = errors.New("invalid job")

const (
	welcomeTitle   = "Bienvenido a checkAuto"
	welcomeMessage = "Tu cuenta fue creada. Ya puedes publicar anuncios y consultar placas."
)

// NotificationStore is the part of the notification repository the worker needs.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ExistsForEvent(ctx context.Context, recipientID, event string) (bool, error)
}

// WelcomeNotifier consumes user events and writes a system notification for
// every newly provisioned user.
type WelcomeNotifier struct {
	notifications NotificationStore
	publisher     queue.Publisher
	logger        *zap.Logger
}

// NewWelcomeNotifier creates a worker. publisher is used to republish failed jobs.
func NewWelcomeNotifier(notifications NotificationStore, publisher queue.Publisher, logger *zap.Logger) *WelcomeNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WelcomeNotifier{
		notifications: notifications,
		publisher:     publisher,
		logger:        logger,
	}
}

// ProcessJob handles one delivery and always settles it: ack on success or
// after a republish, nack without requeue (dead letter) when retries are
// exhausted or the job is unusable.
func (w *WelcomeNotifier) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	switch job.Type {
	case queue.JobTypeUserProvisioned:
		if err := w.processUserProvisioned(ctx, job); err != nil {
			return w.handleJobError(ctx, msg, job, err)
		}
		if err := msg.Ack(); err != nil {
			return fmt.Errorf("failed to ack job: %w", err)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("job_nack_failed", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (w *WelcomeNotifier) processUserProvisioned(ctx context.Context, job *queue.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errInvalidJob, err)
	}

	event := string(queue.JobTypeUserProvisioned)
	exists, err := w.notifications.ExistsForEvent(ctx, job.Username, event)
	if err != nil {
		return err
	}
	if exists {
		w.logger.Debug("welcome_notification_exists",
			zap.String("job_id", job.ID.String()),
			zap.String("user_id", job.UserID.String()),
		)
		return nil
	}

	metadata, err := json.Marshal(map[string]string{
		"event":   event,
		"job_id":  job.ID.String(),
		"user_id": job.UserID.String(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification metadata: %w", err)
	}

	title := welcomeTitle
	if name := job.MetadataString(queue.MetadataFullName); name != "" {
		title = fmt.Sprintf("%s, %s", welcomeTitle, name)
	}

	notification := &models.Notification{
		RecipientID: job.Username,
		Title:       title,
		Message:     welcomeMessage,
		Type:        models.NotificationTypeSystem,
		Metadata:    metadata,
	}
	if err := w.notifications.Create(ctx, notification); err != nil {
		return err
	}

	w.logger.Info("welcome_notification_created",
		zap.String("job_id", job.ID.String()),
		zap.String("user_id", job.UserID.String()),
		zap.Int64("notification_id", notification.ID),
	)
	return nil
}

func (w *WelcomeNotifier) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, jobErr error) error {
	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.String("subject", logger.SanitizeUserID(job.Username)),
		zap.Int("retry_count", job.RetryCount),
		zap.String("error", logger.SanitizeError(jobErr)),
	}

	if errors.Is(jobErr, errInvalidJob) || !job.CanRetry() {
		w.logger.Error("job_dead_lettered", fields...)
		if nackErr := msg.Nack(false); nackErr != nil {
			return fmt.Errorf("failed to dead-letter job: %w", nackErr)
		}
		return jobErr
	}

	retry := *job
	retry.IncrementRetry()
	if err := w.publisher.Enqueue(ctx, &retry); err != nil {
		// Leave the original with the broker so the attempt is not lost.
		w.logger.Warn("job_republish_failed", append(fields, zap.Error(err))...)
		if nackErr := msg.Nack(true); nackErr != nil {
			return fmt.Errorf("failed to requeue job: %w", nackErr)
		}
		return jobErr
	}

	w.logger.Warn("job_retry_scheduled", fields...)
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack retried job: %w", ackErr)
	}
	return jobErr
}
