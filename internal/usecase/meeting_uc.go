// File: internal/usecase/meeting_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/domain/ports/repository"
	ucport "meeting-classifier/internal/domain/ports/usecase"
	"meeting-classifier/internal/infra/logging"
)

// Compile-time check
var _ MeetingUseCase = (*meetingUC)(nil)

// MeetingUseCase is the write path that feeds the classification pipeline, plus the reads the ops API needs.
type MeetingUseCase interface {
	Create(ctx context.Context, m *model.Meeting) (*CreateMeetingResult, error)
	Import(ctx context.Context, meetings []*model.Meeting) (*ImportResult, error)
	Get(ctx context.Context, id int64) (*model.Meeting, error)
	Classification(ctx context.Context, meetingID int64) (*model.Classification, error)
	// RequestClassification re-enqueues a meeting, e.g. after its job was dead-lettered.
	RequestClassification(ctx context.Context, meetingID int64) (string, error)
}

type CreateMeetingResult struct {
	Meeting *model.Meeting `json:"meeting"`
	JobID   string         `json:"jobId,omitempty"`
	Warning string         `json:"warning,omitempty"`
}

type ImportResult struct {
	Total    int      `json:"total"`
	Created  int      `json:"created"`
	Enqueued int      `json:"enqueued"`
	Failed   int      `json:"failed"`
	Warnings []string `json:"warnings,omitempty"`
}

type meetingUC struct {
	meetings        repository.MeetingRepository
	classifications repository.ClassificationRepository
	producer        ucport.ClassificationProducer

	// minTranscription is the trimmed length a transcription must exceed before it is worth classifying.
	minTranscription int
	enqueueTimeout   time.Duration
	// dev disables PII redaction in import warnings.
	dev bool
	log *zerolog.Logger
}

func NewMeetingUseCase(
	meetings repository.MeetingRepository,
	classifications repository.ClassificationRepository,
	producer ucport.ClassificationProducer,
	minTranscription int,
	enqueueTimeout time.Duration,
	dev bool,
	logger *zerolog.Logger,
) *meetingUC {
	if enqueueTimeout <= 0 {
		enqueueTimeout = 5 * time.Second
	}
	return &meetingUC{
		meetings:         meetings,
		classifications:  classifications,
		producer:         producer,
		minTranscription: minTranscription,
		enqueueTimeout:   enqueueTimeout,
		dev:              dev,
		log:              logger,
	}
}

// Create persists m and then requests classification. An enqueue failure never fails the
// create; it is logged and reported as a warning.
func (u *meetingUC) Create(ctx context.Context, m *model.Meeting) (*CreateMeetingResult, error) {
	if err := u.meetings.Create(ctx, repository.NoTX, m); err != nil {
		return nil, err
	}
	res := &CreateMeetingResult{Meeting: m}
	if !u.worthClassifying(m) {
		return res, nil
	}
	jobID, err := u.enqueue(ctx, m)
	if err != nil {
		res.Warning = err.Error()
		return res, nil
	}
	res.JobID = jobID
	return res, nil
}

func (u *meetingUC) Import(ctx context.Context, meetings []*model.Meeting) (*ImportResult, error) {
	res := &ImportResult{Total: len(meetings)}
	for i, m := range meetings {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		email := logging.Redact(m.Email, u.dev)
		if err := u.meetings.Create(ctx, repository.NoTX, m); err != nil {
			res.Failed++
			res.Warnings = append(res.Warnings, fmt.Sprintf("row %d (%s): %v", i+1, email, err))
			u.log.Warn().Err(err).Int("row", i+1).Str("email", email).Msg("import: failed to create meeting")
			continue
		}
		res.Created++
		if !u.worthClassifying(m) {
			continue
		}
		if _, err := u.enqueue(ctx, m); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("row %d (%s): %v", i+1, email, err))
			continue
		}
		res.Enqueued++
	}
	return res, nil
}

func (u *meetingUC) Get(ctx context.Context, id int64) (*model.Meeting, error) {
	return u.meetings.FindByID(ctx, repository.NoTX, id)
}

func (u *meetingUC) Classification(ctx context.Context, meetingID int64) (*model.Classification, error) {
	return u.classifications.FindByMeetingID(ctx, repository.NoTX, meetingID)
}

func (u *meetingUC) RequestClassification(ctx context.Context, meetingID int64) (string, error) {
	m, err := u.meetings.FindByID(ctx, repository.NoTX, meetingID)
	if err != nil {
		return "", err
	}
	return u.producer.Enqueue(ctx, m.ID, m.Transcription)
}

func (u *meetingUC) worthClassifying(m *model.Meeting) bool {
	return len(strings.TrimSpace(m.Transcription)) > u.minTranscription
}

func (u *meetingUC) enqueue(ctx context.Context, m *model.Meeting) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, u.enqueueTimeout)
	defer cancel()
	jobID, err := u.producer.Enqueue(ctx, m.ID, m.Transcription)
	if err != nil {
		u.log.Warn().Err(err).Int64("meeting_id", m.ID).Msg("meeting saved but classification was not enqueued")
		return "", err
	}
	return jobID, nil
}
