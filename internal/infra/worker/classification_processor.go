package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"meeting-classifier/internal/domain"
	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/domain/ports/adapter"
	"meeting-classifier/internal/domain/ports/usecase"
	"meeting-classifier/internal/infra/logging"
	"meeting-classifier/internal/infra/metrics"
	"meeting-classifier/internal/infra/redis"
)

const settleTimeout = 10 * time.Second

// FailureRecorder keeps a dead-letter record for a job that left the queue unsuccessfully.
type FailureRecorder interface {
	Record(ctx context.Context, d *model.Delivery, cause error) error
}

// ClassificationWorker leases classification jobs from the broker, runs them and settles each delivery.
type ClassificationWorker struct {
	broker   adapter.JobBroker
	uc       usecase.ClassificationProcessor
	failures FailureRecorder
	poll     time.Duration
	log      *zerolog.Logger
}

func NewClassificationWorker(
	broker adapter.JobBroker,
	uc usecase.ClassificationProcessor,
	failures FailureRecorder,
	poll time.Duration,
	logger *zerolog.Logger,
) *ClassificationWorker {
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	return &ClassificationWorker{broker: broker, uc: uc, failures: failures, poll: poll, log: logger}
}

// Start polls until ctx is done. Run it in a goroutine.
func (w *ClassificationWorker) Start(ctx context.Context, pool *Pool) {
	w.log.Info().Dur("poll", w.poll).Msg("classification worker started")
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("classification worker stopping")
			return
		case <-ticker.C:
			// A full pool already has every slot draining the queue.
			_ = pool.Submit(func(ctx context.Context) error {
				w.Drain(ctx)
				return nil
			})
		}
	}
}

// Drain handles jobs until the queue has nothing ready or ctx ends.
func (w *ClassificationWorker) Drain(ctx context.Context) {
	for ctx.Err() == nil {
		if !w.ProcessOne(ctx) {
			return
		}
	}
}

// ProcessOne leases and settles at most one job. It reports whether a job was leased.
func (w *ClassificationWorker) ProcessOne(ctx context.Context) bool {
	d, err := w.broker.Reserve(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("failed to reserve classification job")
		}
		return false
	}
	w.handle(ctx, d)
	return true
}

func (w *ClassificationWorker) handle(ctx context.Context, d *model.Delivery) {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	ctx = logging.WithJobID(ctx, d.ID)
	ctx = logging.WithMeetingID(ctx, d.Job.MeetingID)
	log := logging.With(ctx, w.log)
	if d.Abandoned {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
		defer cancel()
		w.deadLetter(sctx, log, d, domain.ErrLeaseExhausted, 0)
		return
	}
	log.Info().Int("attempt", d.Attempt).Int("max_attempts", d.Options.MaxAttempts).Msg("processing classification job")

	start := time.Now()
	outcome, err := w.uc.Process(ctx, d.Job)
	elapsed := time.Since(start)

	// Settle even when shutdown cancelled the processing context.
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()

	if err == nil {
		if ackErr := w.broker.Ack(sctx, d); ackErr != nil {
			log.Error().Err(ackErr).Msg("failed to ack job; it will be redelivered")
		}
		metrics.IncClassificationJob(string(outcome))
		metrics.ObserveJobDuration(string(outcome), elapsed)
		log.Info().Str("outcome", string(outcome)).Dur("duration", elapsed).Msg("classification job completed")
		return
	}

	reason := FailureReason(err)
	permanent := domain.IsPermanent(err)
	if ctx.Err() != nil && !permanent {
		// Interrupted by shutdown: hand the job back without spending an attempt's backoff.
		if retryErr := w.broker.Retry(sctx, d, 0, err); retryErr != nil {
			log.Warn().Err(retryErr).Msg("could not release interrupted job; lease expiry will redeliver")
		} else {
			log.Info().Msg("interrupted job released")
		}
		return
	}
	if permanent || d.Exhausted() {
		w.deadLetter(sctx, log, d, err, elapsed)
		return
	}

	delay := d.BackoffDelay()
	if retryErr := w.broker.Retry(sctx, d, delay, err); retryErr != nil {
		if errors.Is(retryErr, redis.ErrLeaseLost) {
			log.Warn().Msg("lease expired before retry; job already redelivered")
		} else {
			log.Error().Err(retryErr).Msg("failed to schedule retry; lease expiry will redeliver")
		}
		return
	}
	metrics.IncClassificationRetry(reason)
	log.Warn().Err(err).Str("reason", reason).Dur("retry_in", delay).Msg("classification job will be retried")
}

// deadLetter records d before removing it from the queue. When the record cannot be written
// the job stays leased so lease expiry brings it back.
func (w *ClassificationWorker) deadLetter(ctx context.Context, log *zerolog.Logger, d *model.Delivery, err error, elapsed time.Duration) {
	reason := FailureReason(err)
	permanent := domain.IsPermanent(err)
	if recErr := w.failures.Record(ctx, d, err); recErr != nil {
		log.Error().Err(recErr).AnErr("cause", err).Msg("failed to record dead-lettered job; leaving it leased")
		return
	}
	if failErr := w.broker.Fail(ctx, d, err); failErr != nil {
		log.Error().Err(failErr).Msg("failed to remove dead-lettered job")
	}
	metrics.IncClassificationFailure(reason, permanent)
	metrics.IncClassificationJob("failed")
	metrics.ObserveJobDuration("failed", elapsed)
	log.Error().Err(err).Str("reason", reason).Bool("permanent", permanent).Int("attempt", d.Attempt).Msg("classification job failed")
}

// FailureReason maps an error to a low-cardinality metric label.
func FailureReason(err error) string {
	var ve *domain.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrMeetingNotFound):
		return "meeting_not_found"
	case errors.Is(err, domain.ErrLeaseExhausted):
		return "lease_expired"
	case errors.Is(err, domain.ErrEmptyTranscription):
		return "empty_transcription"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrExternalCall):
		return "external_call"
	case errors.Is(err, domain.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed_response"
	case errors.As(err, &ve):
		return "validation"
	case errors.Is(err, domain.ErrReadDatabaseRow), errors.Is(err, domain.ErrOperationFailed):
		return "store"
	default:
		return "internal"
	}
}
