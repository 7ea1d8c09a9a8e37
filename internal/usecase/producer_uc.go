// File: internal/usecase/producer_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"meeting-classifier/internal/domain"
	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/domain/ports/adapter"
	ucport "meeting-classifier/internal/domain/ports/usecase"
)

// Compile-time check
var _ ucport.ClassificationProducer = (*producerUC)(nil)

type producerUC struct {
	broker adapter.JobBroker
	opts   model.JobOptions
	log    *zerolog.Logger
}

func NewClassificationProducer(broker adapter.JobBroker, opts model.JobOptions, logger *zerolog.Logger) *producerUC {
	if opts.MaxAttempts <= 0 {
		opts = model.DefaultJobOptions()
	}
	return &producerUC{broker: broker, opts: opts, log: logger}
}

// Enqueue submits a classification job for meetingID. The transcription is only checked
// here; the job itself carries the id and the worker re-reads the meeting.
func (p *producerUC) Enqueue(ctx context.Context, meetingID int64, transcription string) (string, error) {
	if strings.TrimSpace(transcription) == "" {
		return "", &domain.PreconditionError{Field: "transcription", Reason: "must not be empty"}
	}
	job, err := model.NewClassificationJob(meetingID)
	if err != nil {
		return "", &domain.PreconditionError{Field: "meetingId", Reason: "must be positive"}
	}

	jobID, err := p.broker.Submit(ctx, job, p.opts)
	if err != nil {
		return "", fmt.Errorf("%w: meeting %d: %w", domain.ErrEnqueueFailed, meetingID, err)
	}
	p.log.Debug().Int64("meeting_id", meetingID).Str("job_id", jobID).Msg("classification job enqueued")
	return jobID, nil
}
