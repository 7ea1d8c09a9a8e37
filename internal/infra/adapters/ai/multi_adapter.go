// File: internal/infra/adapters/ai/multi_adapter.go
package ai

import (
	"context"
	"errors"
	"strings"

	"meeting-classifier/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*MultiAIAdapter)(nil)

var ErrNoProvider = errors.New("ai: no provider configured for model")

// MultiAIAdapter routes each call to a provider chosen from the model name.
type MultiAIAdapter struct {
	defaultProvider string // "openai" | "gemini"
	byProvider      map[string]adapter.AIServiceAdapter
}

// NewMultiAIAdapter keys providers by their Provider() name; nil adapters are skipped.
func NewMultiAIAdapter(defaultProvider string, providers ...adapter.AIServiceAdapter) *MultiAIAdapter {
	m := &MultiAIAdapter{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      make(map[string]adapter.AIServiceAdapter, len(providers)),
	}
	for _, p := range providers {
		if p != nil {
			m.byProvider[p.Provider()] = p
		}
	}
	return m
}

func (m *MultiAIAdapter) Provider() string { return m.defaultProvider }

func (m *MultiAIAdapter) resolveProvider(model string) string {
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "gemini"):
		return "gemini"
	case strings.HasPrefix(l, "gpt"), strings.HasPrefix(l, "o1"), strings.HasPrefix(l, "o3"), strings.HasPrefix(l, "o4"):
		return "openai"
	default:
		return m.defaultProvider
	}
}

func (m *MultiAIAdapter) pick(model string) (adapter.AIServiceAdapter, error) {
	if a := m.byProvider[m.resolveProvider(model)]; a != nil {
		return a, nil
	}
	if a := m.byProvider[m.defaultProvider]; a != nil {
		return a, nil
	}
	return nil, ErrNoProvider
}

func (m *MultiAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	a, err := m.pick(model)
	if err != nil {
		return 0, err
	}
	return a.CountTokens(ctx, model, messages)
}

func (m *MultiAIAdapter) Complete(ctx context.Context, req adapter.CompletionRequest) (adapter.Completion, error) {
	a, err := m.pick(req.Model)
	if err != nil {
		return adapter.Completion{}, err
	}
	return a.Complete(ctx, req)
}
