package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeUserProvisioned is published when a user is created on first login
	JobTypeUserProvisioned JobType = "user_provisioned"
)

// DefaultMaxRetries is the number of republishes before a job is dead-lettered.
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	UserID     uuid.UUID      `json:"user_id"`
	Username   string         `json:"username"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID uuid.UUID, username string) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		Username:   username,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
	}
}

// Validate checks the fields every job type needs.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return fmt.Errorf("job id is required")
	}
	if j.Type == "" {
		return fmt.Errorf("job type is required")
	}
	if j.UserID == uuid.Nil || j.Username == "" {
		return fmt.Errorf("job %s: user_id and username are required", j.ID)
	}
	return nil
}

// MetadataString returns a string metadata value, or "" when absent.
func (j *Job) MetadataString(key string) string {
	if v, ok := j.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
