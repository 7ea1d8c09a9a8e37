package usecase

import (
	"context"

	"meeting-classifier/internal/domain/model"
)

// ClassificationProducer is what meeting write paths call to request classification.
type ClassificationProducer interface {
	Enqueue(ctx context.Context, meetingID int64, transcription string) (string, error)
}

// ClassificationProcessor runs one job through the classification state machine.
// A nil error means terminal success; errors marked with domain.Permanent must not be retried.
type ClassificationProcessor interface {
	Process(ctx context.Context, job model.ClassificationJob) (model.JobOutcome, error)
}
