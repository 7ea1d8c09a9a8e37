// File: internal/usecase/classification_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"meeting-classifier/internal/domain"
	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/domain/ports/adapter"
	"meeting-classifier/internal/domain/ports/repository"
	ucport "meeting-classifier/internal/domain/ports/usecase"
	"meeting-classifier/internal/infra/logging"
)

// Compile-time check
var _ ucport.ClassificationProcessor = (*classificationUC)(nil)

// ClassifierConfig holds the decoding parameters for the external call.
type ClassifierConfig struct {
	Model        string
	ModelVersion string
	CallTimeout  time.Duration
	MaxTokens    int
	Stop         []string
}

type classificationUC struct {
	meetings        repository.MeetingRepository
	classifications repository.ClassificationRepository
	ai              adapter.AIServiceAdapter
	cfg             ClassifierConfig
	log             *zerolog.Logger
}

func NewClassificationUseCase(
	meetings repository.MeetingRepository,
	classifications repository.ClassificationRepository,
	ai adapter.AIServiceAdapter,
	cfg ClassifierConfig,
	logger *zerolog.Logger,
) *classificationUC {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	if cfg.Stop == nil {
		cfg.Stop = []string{"\n\n"}
	}
	return &classificationUC{
		meetings:        meetings,
		classifications: classifications,
		ai:              ai,
		cfg:             cfg,
		log:             logger,
	}
}

// Process runs one delivery of job. Returned errors are transient unless marked with
// domain.Permanent; the caller owns redelivery.
func (uc *classificationUC) Process(ctx context.Context, job model.ClassificationJob) (model.JobOutcome, error) {
	log := uc.log.With().Int64("meeting_id", job.MeetingID).Logger()
	defer logging.TraceDuration(&log, "ClassificationUseCase.Process")()

	// Fetching
	meeting, err := uc.meetings.FindByID(ctx, repository.NoTX, job.MeetingID)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.Permanent(fmt.Errorf("%w: id %d", domain.ErrMeetingNotFound, job.MeetingID))
	}
	if err != nil {
		return "", fmt.Errorf("load meeting %d: %w", job.MeetingID, err)
	}

	existing, err := uc.classifications.FindByMeetingID(ctx, repository.NoTX, job.MeetingID)
	switch {
	case err == nil && existing != nil:
		log.Info().Msg("meeting already classified; skipping")
		return model.OutcomeAlreadyClassified, nil
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return "", fmt.Errorf("check classification for meeting %d: %w", job.MeetingID, err)
	}

	if !meeting.HasTranscription() {
		return "", domain.Permanent(fmt.Errorf("%w: meeting %d", domain.ErrEmptyTranscription, job.MeetingID))
	}

	// Classifying
	callCtx, cancel := context.WithTimeout(ctx, uc.cfg.CallTimeout)
	defer cancel()
	reply, err := uc.ai.Complete(callCtx, adapter.CompletionRequest{
		Model:       uc.cfg.Model,
		Messages:    BuildClassificationMessages(meeting, uc.cfg.ModelVersion),
		Temperature: 0,
		TopP:        1,
		Stop:        uc.cfg.Stop,
		MaxTokens:   uc.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrExternalCall, err)
	}

	// Parsing
	candidate, err := ParseCandidate(reply.Text)
	if err != nil {
		log.Warn().Err(err).Int("reply_len", len(reply.Text)).Msg("unparseable classification reply")
		return "", err
	}

	// Validating
	c, err := Validate(candidate)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			log.Warn().Str("field", verr.Field).Str("reason", verr.Reason).Msg("classification rejected")
		}
		return "", err
	}
	c.MeetingID = job.MeetingID

	// Persisting
	if err := uc.classifications.Create(ctx, repository.NoTX, c); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			log.Info().Msg("classification created concurrently; treating as already classified")
			return model.OutcomeAlreadyClassified, nil
		}
		return "", fmt.Errorf("store classification for meeting %d: %w", job.MeetingID, err)
	}

	log.Info().
		Str("sector", string(c.CommercialSector)).
		Float64("confidence", c.ConfidenceScore).
		Int("prompt_tokens", reply.Usage.PromptTokens).
		Msg("meeting classified")
	return model.OutcomeClassified, nil
}
