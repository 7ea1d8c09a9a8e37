//go:build integration

package redis

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"meeting-classifier/internal/config"
	"meeting-classifier/internal/domain"
	"meeting-classifier/internal/domain/model"
)

func newTestBroker(t *testing.T, lease time.Duration) (*Broker, *time.Time) {
	t.Helper()
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewClient(ctx, &config.RedisConfig{URL: url})
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	logger := zerolog.Nop()
	b := NewBroker(c.Raw(), "test-"+t.Name(), lease, &logger)
	clock := time.Now()
	b.now = func() time.Time { return clock }
	t.Cleanup(func() {
		keys, _ := c.Raw().Keys(ctx, b.prefix+"*").Result()
		if len(keys) > 0 {
			c.Raw().Del(ctx, keys...)
		}
	})
	return b, &clock
}

func TestBroker_Integration(t *testing.T) {
	ctx := context.Background()
	opts := model.JobOptions{MaxAttempts: 3, BackoffBase: 5 * time.Second}

	t.Run("should deliver, retry with backoff and ack", func(t *testing.T) {
		b, clock := newTestBroker(t, time.Minute)
		id, err := b.Submit(ctx, model.ClassificationJob{MeetingID: 42}, opts)
		if err != nil {
			t.Fatalf("submit: %v", err)
		}

		d, err := b.Reserve(ctx)
		if err != nil || d.ID != id || d.Attempt != 1 || d.Job.MeetingID != 42 {
			t.Fatalf("first reserve: %+v, %v", d, err)
		}
		if _, err := b.Reserve(ctx); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("queue should be empty while leased, got %v", err)
		}

		if err := b.Retry(ctx, d, d.BackoffDelay(), errors.New("empty response")); err != nil {
			t.Fatalf("retry: %v", err)
		}
		if _, err := b.Reserve(ctx); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("retried job should not be ready before its delay, got %v", err)
		}
		*clock = clock.Add(6 * time.Second)
		d2, err := b.Reserve(ctx)
		if err != nil || d2.ID != id || d2.Attempt != 2 {
			t.Fatalf("second reserve: %+v, %v", d2, err)
		}

		if err := b.Ack(ctx, d2); err != nil {
			t.Fatalf("ack: %v", err)
		}
		depth, err := b.Depth(ctx)
		if err != nil || depth.Waiting+depth.Delayed+depth.Active != 0 {
			t.Fatalf("queue should be empty after ack: %+v, %v", depth, err)
		}
	})

	t.Run("should redeliver an expired lease", func(t *testing.T) {
		b, clock := newTestBroker(t, time.Second)
		id, _ := b.Submit(ctx, model.ClassificationJob{MeetingID: 7}, opts)
		d, err := b.Reserve(ctx)
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		*clock = clock.Add(2 * time.Second)
		again, err := b.Reserve(ctx)
		if err != nil || again.ID != id || again.Attempt != 2 {
			t.Fatalf("expected redelivery, got %+v, %v", again, err)
		}
		if err := b.Retry(ctx, again, time.Second, nil); err != nil {
			t.Fatalf("current holder should be able to retry: %v", err)
		}
		if err := b.Retry(ctx, d, time.Second, nil); !errors.Is(err, ErrLeaseLost) {
			t.Fatalf("stale holder retry should report lost lease, got %v", err)
		}
	})

	t.Run("should stop redelivering once expired leases use up the attempts", func(t *testing.T) {
		b, clock := newTestBroker(t, time.Second)
		id, _ := b.Submit(ctx, model.ClassificationJob{MeetingID: 8}, opts)
		for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
			d, err := b.Reserve(ctx)
			if err != nil || d.ID != id || d.Attempt != attempt || d.Abandoned {
				t.Fatalf("delivery %d: %+v, %v", attempt, d, err)
			}
			*clock = clock.Add(2 * time.Second)
		}
		last, err := b.Reserve(ctx)
		if err != nil {
			t.Fatalf("reserve: %v", err)
		}
		if !last.Abandoned || last.Attempt != opts.MaxAttempts {
			t.Fatalf("expected an abandoned delivery within the attempt budget, got %+v", last)
		}
		if err := b.Fail(ctx, last, domain.ErrLeaseExhausted); err != nil {
			t.Fatalf("fail: %v", err)
		}
		*clock = clock.Add(2 * time.Second)
		if _, err := b.Reserve(ctx); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("abandoned job must not come back, got %v", err)
		}
	})

	t.Run("should give a released last attempt another try", func(t *testing.T) {
		b, clock := newTestBroker(t, time.Second)
		id, _ := b.Submit(ctx, model.ClassificationJob{MeetingID: 9}, opts)
		for attempt := 1; attempt < opts.MaxAttempts; attempt++ {
			if _, err := b.Reserve(ctx); err != nil {
				t.Fatalf("reserve: %v", err)
			}
			*clock = clock.Add(2 * time.Second)
		}
		d, err := b.Reserve(ctx)
		if err != nil || d.Attempt != opts.MaxAttempts || d.Abandoned {
			t.Fatalf("last delivery: %+v, %v", d, err)
		}
		if err := b.Retry(ctx, d, 0, context.Canceled); err != nil {
			t.Fatalf("release: %v", err)
		}
		again, err := b.Reserve(ctx)
		if err != nil || again.ID != id || again.Abandoned {
			t.Fatalf("released job should be redelivered for processing, got %+v, %v", again, err)
		}
	})

	t.Run("should remove failed jobs", func(t *testing.T) {
		b, _ := newTestBroker(t, time.Minute)
		_, _ = b.Submit(ctx, model.ClassificationJob{MeetingID: 999999}, opts)
		d, _ := b.Reserve(ctx)
		if err := b.Fail(ctx, d, domain.ErrMeetingNotFound); err != nil {
			t.Fatalf("fail: %v", err)
		}
		if _, err := b.Reserve(ctx); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("failed job must not be redelivered, got %v", err)
		}
	})

	t.Run("should hand each job to exactly one concurrent reserver", func(t *testing.T) {
		b, _ := newTestBroker(t, time.Minute)
		const jobs = 20
		for i := 1; i <= jobs; i++ {
			if _, err := b.Submit(ctx, model.ClassificationJob{MeetingID: int64(i)}, opts); err != nil {
				t.Fatalf("submit: %v", err)
			}
		}
		var mu sync.Mutex
		seen := map[string]int{}
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					d, err := b.Reserve(ctx)
					if err != nil {
						return
					}
					mu.Lock()
					seen[d.ID]++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		if len(seen) != jobs {
			t.Fatalf("expected %d distinct jobs, got %d", jobs, len(seen))
		}
		for id, n := range seen {
			if n != 1 {
				t.Fatalf("job %s delivered %d times", id, n)
			}
		}
	})
}
