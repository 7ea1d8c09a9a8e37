//go:build !integration

package web

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"meeting-classifier/internal/domain"
	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/usecase"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

type mockMeetingUC struct {
	mu       sync.Mutex
	created  []*model.Meeting
	meetings map[int64]*model.Meeting
	classes  map[int64]*model.Classification

	CreateFunc  func(ctx context.Context, m *model.Meeting) (*usecase.CreateMeetingResult, error)
	RequestFunc func(ctx context.Context, id int64) (string, error)
}

func newMockMeetingUC() *mockMeetingUC {
	return &mockMeetingUC{meetings: map[int64]*model.Meeting{}, classes: map[int64]*model.Classification{}}
}

func (m *mockMeetingUC) Create(ctx context.Context, mt *model.Meeting) (*usecase.CreateMeetingResult, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, mt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mt.ID = int64(len(m.created) + 1)
	m.created = append(m.created, mt)
	m.meetings[mt.ID] = mt
	return &usecase.CreateMeetingResult{Meeting: mt, JobID: "01JOB"}, nil
}

func (m *mockMeetingUC) Import(ctx context.Context, meetings []*model.Meeting) (*usecase.ImportResult, error) {
	return &usecase.ImportResult{Total: len(meetings)}, nil
}

func (m *mockMeetingUC) Get(ctx context.Context, id int64) (*model.Meeting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mt, ok := m.meetings[id]; ok {
		return mt, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockMeetingUC) Classification(ctx context.Context, meetingID int64) (*model.Classification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.classes[meetingID]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockMeetingUC) RequestClassification(ctx context.Context, meetingID int64) (string, error) {
	if m.RequestFunc != nil {
		return m.RequestFunc(ctx, meetingID)
	}
	if _, err := m.Get(ctx, meetingID); err != nil {
		return "", err
	}
	return "01JOB", nil
}

type mockFailureUC struct {
	items     []*model.FailedJob
	lastLimit int
	ListErr   error
}

func (m *mockFailureUC) Record(ctx context.Context, d *model.Delivery, cause error) error { return nil }

func (m *mockFailureUC) List(ctx context.Context, limit int) ([]*model.FailedJob, error) {
	m.lastLimit = limit
	return m.items, m.ListErr
}

// memLimiter allows the first n calls per key.
type memLimiter struct {
	mu     sync.Mutex
	n      int
	counts map[string]int
	err    error
}

func (l *memLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts == nil {
		l.counts = map[string]int{}
	}
	l.counts[key]++
	return l.counts[key] <= l.n, nil
}
