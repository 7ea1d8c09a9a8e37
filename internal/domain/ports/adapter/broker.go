package adapter

import (
	"context"
	"time"

	"meeting-classifier/internal/domain/model"
)

// QueueDepth is a point-in-time view of a queue.
type QueueDepth struct {
	Waiting int64
	Delayed int64
	Active  int64
}

// JobBroker is the at-least-once transport between producer and workers.
type JobBroker interface {
	// Submit stores job and makes it available to workers. It returns the broker job id.
	Submit(ctx context.Context, job model.ClassificationJob, opts model.JobOptions) (string, error)
	// Reserve leases the next ready job. It returns domain.ErrNotFound when nothing is ready.
	// A lease that is neither acked, retried nor failed before it expires is redelivered.
	Reserve(ctx context.Context) (*model.Delivery, error)
	// Ack removes a completed job.
	Ack(ctx context.Context, d *model.Delivery) error
	// Retry schedules the job for another attempt after delay.
	Retry(ctx context.Context, d *model.Delivery, delay time.Duration, cause error) error
	// Fail removes a job that will not be attempted again.
	Fail(ctx context.Context, d *model.Delivery, cause error) error
	Depth(ctx context.Context) (QueueDepth, error)
}
