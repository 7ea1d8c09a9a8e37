//go:build !integration

package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"meeting-classifier/internal/domain"
	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/domain/ports/adapter"
	"meeting-classifier/internal/infra/redis"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

type fakeBroker struct {
	mu       sync.Mutex
	ready    []*model.Delivery
	acked    []string
	failed   []string
	retried  []time.Duration
	retryErr error
}

func (b *fakeBroker) Submit(ctx context.Context, job model.ClassificationJob, opts model.JobOptions) (string, error) {
	return "", errors.New("not used")
}

func (b *fakeBroker) Reserve(ctx context.Context) (*model.Delivery, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.ready) == 0 {
		return nil, domain.ErrNotFound
	}
	d := b.ready[0]
	b.ready = b.ready[1:]
	return d, nil
}

func (b *fakeBroker) Ack(ctx context.Context, d *model.Delivery) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.acked = append(b.acked, d.ID)
	return nil
}

func (b *fakeBroker) Retry(ctx context.Context, d *model.Delivery, delay time.Duration, cause error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.retryErr != nil {
		return b.retryErr
	}
	b.retried = append(b.retried, delay)
	return nil
}

func (b *fakeBroker) Fail(ctx context.Context, d *model.Delivery, cause error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failed = append(b.failed, d.ID)
	return nil
}

func (b *fakeBroker) Depth(ctx context.Context) (adapter.QueueDepth, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return adapter.QueueDepth{Waiting: int64(len(b.ready))}, nil
}

type processFunc func(ctx context.Context, job model.ClassificationJob) (model.JobOutcome, error)

func (f processFunc) Process(ctx context.Context, job model.ClassificationJob) (model.JobOutcome, error) {
	return f(ctx, job)
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []error
	err     error
	// broker, when set, lets Record observe whether the job was already removed.
	broker        *fakeBroker
	removedBefore bool
}

func (r *fakeRecorder) Record(ctx context.Context, d *model.Delivery, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.broker != nil {
		r.broker.mu.Lock()
		r.removedBefore = r.removedBefore || len(r.broker.failed) > 0
		r.broker.mu.Unlock()
	}
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, cause)
	return nil
}

func delivery(id string, attempt int) *model.Delivery {
	return &model.Delivery{
		ID:      id,
		Job:     model.ClassificationJob{MeetingID: 42},
		Attempt: attempt,
		Options: model.JobOptions{MaxAttempts: 3, BackoffBase: 5 * time.Second},
	}
}

func TestClassificationWorker_Settle(t *testing.T) {
	ctx := context.Background()

	t.Run("should ack a classified job", func(t *testing.T) {
		b := &fakeBroker{ready: []*model.Delivery{delivery("a", 1)}}
		rec := &fakeRecorder{}
		w := NewClassificationWorker(b, processFunc(func(context.Context, model.ClassificationJob) (model.JobOutcome, error) {
			return model.OutcomeClassified, nil
		}), rec, 0, newTestLogger())

		if !w.ProcessOne(ctx) {
			t.Fatal("expected a job to be leased")
		}
		if len(b.acked) != 1 || len(b.retried) != 0 || len(b.failed) != 0 {
			t.Fatalf("acked=%v retried=%v failed=%v", b.acked, b.retried, b.failed)
		}
	})

	t.Run("should ack an already classified job", func(t *testing.T) {
		b := &fakeBroker{ready: []*model.Delivery{delivery("a", 2)}}
		w := NewClassificationWorker(b, processFunc(func(context.Context, model.ClassificationJob) (model.JobOutcome, error) {
			return model.OutcomeAlreadyClassified, nil
		}), &fakeRecorder{}, 0, newTestLogger())
		w.ProcessOne(ctx)
		if len(b.acked) != 1 {
			t.Fatalf("expected ack, got %v", b.acked)
		}
	})

	t.Run("should retry a transient failure with backoff", func(t *testing.T) {
		b := &fakeBroker{ready: []*model.Delivery{delivery("a", 2)}}
		rec := &fakeRecorder{}
		w := NewClassificationWorker(b, processFunc(func(context.Context, model.ClassificationJob) (model.JobOutcome, error) {
			return "", fmt.Errorf("%w: boom", domain.ErrExternalCall)
		}), rec, 0, newTestLogger())
		w.ProcessOne(ctx)
		if len(b.retried) != 1 || b.retried[0] != 10*time.Second {
			t.Fatalf("expected one retry after 10s, got %v", b.retried)
		}
		if len(b.failed) != 0 || len(rec.records) != 0 {
			t.Fatal("transient failure should not be dead-lettered")
		}
	})

	t.Run("should dead-letter a permanent failure on the first attempt", func(t *testing.T) {
		b := &fakeBroker{ready: []*model.Delivery{delivery("a", 1)}}
		rec := &fakeRecorder{}
		w := NewClassificationWorker(b, processFunc(func(context.Context, model.ClassificationJob) (model.JobOutcome, error) {
			return "", domain.Permanent(domain.ErrMeetingNotFound)
		}), rec, 0, newTestLogger())
		w.ProcessOne(ctx)
		if len(b.failed) != 1 || len(b.retried) != 0 || len(rec.records) != 1 {
			t.Fatalf("failed=%v retried=%v records=%v", b.failed, b.retried, rec.records)
		}
	})

	t.Run("should dead-letter a transient failure once attempts are exhausted", func(t *testing.T) {
		b := &fakeBroker{ready: []*model.Delivery{delivery("a", 3)}}
		rec := &fakeRecorder{}
		w := NewClassificationWorker(b, processFunc(func(context.Context, model.ClassificationJob) (model.JobOutcome, error) {
			return "", domain.ErrMalformedResponse
		}), rec, 0, newTestLogger())
		w.ProcessOne(ctx)
		if len(b.failed) != 1 || len(rec.records) != 1 || !errors.Is(rec.records[0], domain.ErrMalformedResponse) {
			t.Fatalf("failed=%v records=%v", b.failed, rec.records)
		}
	})

	t.Run("should record the dead letter before removing the job", func(t *testing.T) {
		b := &fakeBroker{ready: []*model.Delivery{delivery("a", 1)}}
		rec := &fakeRecorder{broker: b}
		w := NewClassificationWorker(b, processFunc(func(context.Context, model.ClassificationJob) (model.JobOutcome, error) {
			return "", domain.Permanent(domain.ErrMeetingNotFound)
		}), rec, 0, newTestLogger())
		w.ProcessOne(ctx)
		if rec.removedBefore {
			t.Fatal("job was removed before its dead letter was written")
		}
		if len(b.failed) != 1 || len(rec.records) != 1 {
			t.Fatalf("failed=%v records=%v", b.failed, rec.records)
		}
	})

	t.Run("should keep the job when the dead letter cannot be written", func(t *testing.T) {
		b := &fakeBroker{ready: []*model.Delivery{delivery("a", 3)}}
		rec := &fakeRecorder{err: errors.New("db down")}
		w := NewClassificationWorker(b, processFunc(func(context.Context, model.ClassificationJob) (model.JobOutcome, error) {
			return "", domain.ErrEmptyResponse
		}), rec, 0, newTestLogger())
		w.ProcessOne(ctx)
		if len(b.failed) != 0 || len(b.acked) != 0 || len(b.retried) != 0 {
			t.Fatalf("job should stay leased: acked=%v retried=%v failed=%v", b.acked, b.retried, b.failed)
		}
	})

	t.Run("should dead-letter an abandoned delivery without processing it", func(t *testing.T) {
		d := delivery("a", 3)
		d.Abandoned = true
		b := &fakeBroker{ready: []*model.Delivery{d}}
		rec := &fakeRecorder{}
		calls := 0
		w := NewClassificationWorker(b, processFunc(func(context.Context, model.ClassificationJob) (model.JobOutcome, error) {
			calls++
			return model.OutcomeClassified, nil
		}), rec, 0, newTestLogger())
		if !w.ProcessOne(ctx) {
			t.Fatal("expected a job to be leased")
		}
		if calls != 0 {
			t.Fatalf("abandoned job was processed %d times", calls)
		}
		if len(b.failed) != 1 || len(rec.records) != 1 || !errors.Is(rec.records[0], domain.ErrLeaseExhausted) {
			t.Fatalf("failed=%v records=%v", b.failed, rec.records)
		}
		if len(b.acked) != 0 || len(b.retried) != 0 {
			t.Fatalf("acked=%v retried=%v", b.acked, b.retried)
		}
	})

	t.Run("should tolerate a lost lease on retry", func(t *testing.T) {
		b := &fakeBroker{ready: []*model.Delivery{delivery("a", 1)}, retryErr: redis.ErrLeaseLost}
		w := NewClassificationWorker(b, processFunc(func(context.Context, model.ClassificationJob) (model.JobOutcome, error) {
			return "", domain.ErrEmptyResponse
		}), &fakeRecorder{}, 0, newTestLogger())
		if !w.ProcessOne(ctx) {
			t.Fatal("expected a job to be leased")
		}
		if len(b.failed) != 0 || len(b.acked) != 0 {
			t.Fatal("lost lease must not settle the job")
		}
	})

	t.Run("should settle even when the processing context is cancelled", func(t *testing.T) {
		b := &fakeBroker{ready: []*model.Delivery{delivery("a", 1)}}
		cctx, cancel := context.WithCancel(ctx)
		w := NewClassificationWorker(b, processFunc(func(context.Context, model.ClassificationJob) (model.JobOutcome, error) {
			cancel()
			return model.OutcomeClassified, nil
		}), &fakeRecorder{}, 0, newTestLogger())
		w.ProcessOne(cctx)
		if len(b.acked) != 1 {
			t.Fatal("expected ack after cancellation")
		}
	})

	t.Run("should release a job interrupted by shutdown even on its last attempt", func(t *testing.T) {
		b := &fakeBroker{ready: []*model.Delivery{delivery("a", 3)}}
		rec := &fakeRecorder{}
		cctx, cancel := context.WithCancel(ctx)
		w := NewClassificationWorker(b, processFunc(func(context.Context, model.ClassificationJob) (model.JobOutcome, error) {
			cancel()
			return "", fmt.Errorf("%w: %w", domain.ErrExternalCall, context.Canceled)
		}), rec, 0, newTestLogger())
		w.ProcessOne(cctx)
		if len(b.retried) != 1 || b.retried[0] != 0 || len(b.failed) != 0 || len(rec.records) != 0 {
			t.Fatalf("retried=%v failed=%v records=%v", b.retried, b.failed, rec.records)
		}
	})

	t.Run("should report an empty queue", func(t *testing.T) {
		w := NewClassificationWorker(&fakeBroker{}, processFunc(nil), &fakeRecorder{}, 0, newTestLogger())
		if w.ProcessOne(ctx) {
			t.Fatal("nothing should be leased")
		}
	})
}

func TestClassificationWorker_Drain(t *testing.T) {
	b := &fakeBroker{ready: []*model.Delivery{delivery("a", 1), delivery("b", 1), delivery("c", 1)}}
	w := NewClassificationWorker(b, processFunc(func(context.Context, model.ClassificationJob) (model.JobOutcome, error) {
		return model.OutcomeClassified, nil
	}), &fakeRecorder{}, 0, newTestLogger())
	w.Drain(context.Background())
	if len(b.acked) != 3 {
		t.Fatalf("expected 3 acks, got %v", b.acked)
	}
}

func TestClassificationWorker_StartWithPool(t *testing.T) {
	b := &fakeBroker{ready: []*model.Delivery{delivery("a", 1), delivery("b", 1)}}
	w := NewClassificationWorker(b, processFunc(func(context.Context, model.ClassificationJob) (model.JobOutcome, error) {
		return model.OutcomeClassified, nil
	}), &fakeRecorder{}, 5*time.Millisecond, newTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(2, newTestLogger())
	pool.Start(ctx)
	done := make(chan struct{})
	go func() {
		w.Start(ctx, pool)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b.mu.Lock()
		n := len(b.acked)
		b.mu.Unlock()
		if n == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
	pool.Stop()

	if len(b.acked) != 2 {
		t.Fatalf("expected both jobs acked, got %v", b.acked)
	}
}

func TestFailureReason(t *testing.T) {
	cases := map[string]error{
		"meeting_not_found":   domain.Permanent(domain.ErrMeetingNotFound),
		"empty_transcription": domain.Permanent(domain.ErrEmptyTranscription),
		"lease_expired":       domain.ErrLeaseExhausted,
		"timeout":             fmt.Errorf("%w: %w", domain.ErrExternalCall, context.DeadlineExceeded),
		"external_call":       fmt.Errorf("%w: 500", domain.ErrExternalCall),
		"empty_response":      domain.ErrEmptyResponse,
		"malformed_response":  fmt.Errorf("%w: eof", domain.ErrMalformedResponse),
		"validation":          &domain.ValidationError{Field: "leadSource", Reason: "not allowed"},
		"internal":            errors.New("other"),
	}
	for want, err := range cases {
		if got := FailureReason(err); got != want {
			t.Errorf("FailureReason(%v) = %q, want %q", err, got, want)
		}
	}
}
