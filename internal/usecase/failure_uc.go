package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"meeting-classifier/internal/domain"
	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/domain/ports/repository"
)

// Compile-time check
var _ FailureUseCase = (*failureUC)(nil)

// FailureUseCase keeps the dead-letter record of jobs that left the queue without a classification.
type FailureUseCase interface {
	Record(ctx context.Context, d *model.Delivery, cause error) error
	List(ctx context.Context, limit int) ([]*model.FailedJob, error)
}

type failureUC struct {
	repo repository.FailedJobRepository
	log  *zerolog.Logger
}

func NewFailureUseCase(repo repository.FailedJobRepository, logger *zerolog.Logger) *failureUC {
	return &failureUC{repo: repo, log: logger}
}

func (f *failureUC) Record(ctx context.Context, d *model.Delivery, cause error) error {
	rec := &model.FailedJob{
		JobID:     d.ID,
		MeetingID: d.Job.MeetingID,
		Attempts:  d.Attempt,
		Permanent: domain.IsPermanent(cause),
		FailedAt:  time.Now().UTC(),
	}
	if cause != nil {
		rec.LastError = cause.Error()
	}
	return f.repo.Save(ctx, repository.NoTX, rec)
}

func (f *failureUC) List(ctx context.Context, limit int) ([]*model.FailedJob, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return f.repo.ListRecent(ctx, repository.NoTX, limit)
}
