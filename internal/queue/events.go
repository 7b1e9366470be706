package queue

import (
	"context"

	"github.com/benvon/checkauto-admin/internal/models"
)

// Metadata keys carried by user_provisioned jobs.
const (
	MetadataEmail    = "email"
	MetadataFullName = "full_name"
)

// NewUserProvisionedJob builds the event published when a user is created on first login.
func NewUserProvisionedJob(user *models.User) *Job {
	job := NewJob(JobTypeUserProvisioned, user.ID, user.Username)
	if user.Email != "" {
		job.Metadata[MetadataEmail] = user.Email
	}
	if user.HasName() {
		job.Metadata[MetadataFullName] = user.FullName()
	}
	return job
}

// ProvisionPublisher publishes user_provisioned events for newly created users.
type ProvisionPublisher struct {
	publisher Publisher
}

// NewProvisionPublisher creates a publisher backed by p.
func NewProvisionPublisher(p Publisher) *ProvisionPublisher {
	return &ProvisionPublisher{publisher: p}
}

// UserProvisioned publishes the event for user.
func (p *ProvisionPublisher) UserProvisioned(ctx context.Context, user *models.User) error {
	return p.publisher.Enqueue(ctx, NewUserProvisionedJob(user))
}
