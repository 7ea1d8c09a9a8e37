package repository

import (
	"context"

	"meeting-classifier/internal/domain/model"
)

// FailedJobRepository is the dead-letter store for classification jobs dropped from the queue.
type FailedJobRepository interface {
	Save(ctx context.Context, tx Tx, f *model.FailedJob) error
	ListRecent(ctx context.Context, tx Tx, limit int) ([]*model.FailedJob, error)
}
