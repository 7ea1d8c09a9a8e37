package repository

import (
	"context"

	"meeting-classifier/internal/domain/model"
)

// MeetingRepository is the pipeline's read path into meetings, plus the create used by the write path.
type MeetingRepository interface {
	Create(ctx context.Context, tx Tx, m *model.Meeting) error
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Meeting, error)
	Count(ctx context.Context, tx Tx) (int, error)
}
