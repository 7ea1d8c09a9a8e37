package repository

import (
	"context"

	"meeting-classifier/internal/domain/model"
)

type ClassificationRepository interface {
	// Create inserts c. It returns domain.ErrAlreadyExists when a classification for
	// c.MeetingID already exists, including when a concurrent Create won the race.
	Create(ctx context.Context, tx Tx, c *model.Classification) error
	// FindByMeetingID returns domain.ErrNotFound when the meeting has no classification.
	FindByMeetingID(ctx context.Context, tx Tx, meetingID int64) (*model.Classification, error)
}
