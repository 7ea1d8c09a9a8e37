package ai

import (
	"context"
	"time"

	"meeting-classifier/internal/domain/ports/adapter"
	"meeting-classifier/internal/infra/metrics"
)

// Compile-time check
var _ adapter.AIServiceAdapter = (*limitedAI)(nil)

// limitedAI caps in-flight calls across the process and records per-call metrics.
type limitedAI struct {
	inner adapter.AIServiceAdapter
	sem   chan struct{}
	now   func() time.Time
}

func NewLimitedAI(inner adapter.AIServiceAdapter, maxConcurrent int) adapter.AIServiceAdapter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &limitedAI{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
		now:   time.Now,
	}
}

func (l *limitedAI) acquire(ctx context.Context) error {
	start := l.now()
	select {
	case l.sem <- struct{}{}:
		metrics.ObserveLimiterWait(l.now().Sub(start))
		metrics.AICallStarted()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *limitedAI) release() {
	metrics.AICallFinished()
	<-l.sem
}

func (l *limitedAI) Provider() string { return l.inner.Provider() }

func (l *limitedAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return l.inner.CountTokens(ctx, model, messages)
}

func (l *limitedAI) Complete(ctx context.Context, req adapter.CompletionRequest) (adapter.Completion, error) {
	if err := l.acquire(ctx); err != nil {
		return adapter.Completion{}, err
	}
	defer l.release()

	start := l.now()
	out, err := l.inner.Complete(ctx, req)
	provider := out.Provider
	if provider == "" {
		provider = l.inner.Provider()
	}
	model := out.Model
	if model == "" {
		model = req.Model
	}
	metrics.ObserveAICall(provider, model, out.Usage.PromptTokens, out.Usage.CompletionTokens, l.now().Sub(start), err == nil)
	return out, err
}
