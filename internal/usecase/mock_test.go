//go:build !integration

package usecase_test

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"meeting-classifier/internal/domain"
	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/domain/ports/adapter"
	"meeting-classifier/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// validCandidate is a reply the validator accepts; tests mutate copies of it.
func validCandidate() map[string]any {
	return map[string]any{
		"commercialSector":             "RETAIL",
		"leadSource":                   "REFERRAL",
		"interestReason":               "AUTOMATION",
		"hasDemandPeaks":               true,
		"hasSeasonalDemand":            false,
		"estimatedDailyInteractions":   120,
		"estimatedWeeklyInteractions":  840,
		"estimatedMonthlyInteractions": 3600,
		"hasTechTeam":                  false,
		"vambeModel":                   nil,
		"isPotentialClient":            true,
		"isProblemClient":              false,
		"isLostClient":                 false,
		"shouldBeContacted":            true,
		"confidenceScore":              0.82,
		"modelVersion":                 "gpt-4o-mini-analysis-v1.0",
	}
}

func candidateJSON(c map[string]any) string {
	b, err := json.Marshal(c)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// =============================
// Repositories
// =============================

// ---- Mock MeetingRepository ----

type MockMeetingRepo struct {
	mu       sync.Mutex
	data     map[int64]*model.Meeting
	nextID   int64
	findHits int64

	CreateFunc func(ctx context.Context, m *model.Meeting) error
}

var _ repository.MeetingRepository = (*MockMeetingRepo)(nil)

func NewMockMeetingRepo() *MockMeetingRepo {
	return &MockMeetingRepo{data: make(map[int64]*model.Meeting)}
}

// Put stores m under its own ID, bypassing CreateFunc.
func (r *MockMeetingRepo) Put(m *model.Meeting) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.data[m.ID] = &cp
	if m.ID > r.nextID {
		r.nextID = m.ID
	}
}

func (r *MockMeetingRepo) Create(ctx context.Context, tx repository.Tx, m *model.Meeting) error {
	if r.CreateFunc != nil {
		if err := r.CreateFunc(ctx, m); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	m.CreatedAt = time.Now()
	cp := *m
	r.data[m.ID] = &cp
	return nil
}

func (r *MockMeetingRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Meeting, error) {
	atomic.AddInt64(&r.findHits, 1)
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *MockMeetingRepo) Count(ctx context.Context, tx repository.Tx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data), nil
}

// ---- Mock ClassificationRepository ----

// MockClassificationRepo enforces one classification per meeting the way the unique index does.
type MockClassificationRepo struct {
	mu      sync.Mutex
	data    map[int64]*model.Classification
	nextID  int64
	creates int64

	CreateFunc func(ctx context.Context, c *model.Classification) error
	FindFunc   func(ctx context.Context, meetingID int64) (*model.Classification, error)
}

var _ repository.ClassificationRepository = (*MockClassificationRepo)(nil)

func NewMockClassificationRepo() *MockClassificationRepo {
	return &MockClassificationRepo{data: make(map[int64]*model.Classification)}
}

func (r *MockClassificationRepo) Create(ctx context.Context, tx repository.Tx, c *model.Classification) error {
	if r.CreateFunc != nil {
		if err := r.CreateFunc(ctx, c); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[c.MeetingID]; ok {
		return domain.ErrAlreadyExists
	}
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now()
	cp := *c
	r.data[c.MeetingID] = &cp
	r.creates++
	return nil
}

func (r *MockClassificationRepo) FindByMeetingID(ctx context.Context, tx repository.Tx, meetingID int64) (*model.Classification, error) {
	if r.FindFunc != nil {
		return r.FindFunc(ctx, meetingID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[meetingID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MockClassificationRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// ---- Mock FailedJobRepository ----

type MockFailedJobRepo struct {
	mu    sync.Mutex
	items []*model.FailedJob
}

var _ repository.FailedJobRepository = (*MockFailedJobRepo)(nil)

func (r *MockFailedJobRepo) Save(ctx context.Context, tx repository.Tx, f *model.FailedJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *f
	cp.ID = int64(len(r.items) + 1)
	r.items = append(r.items, &cp)
	return nil
}

func (r *MockFailedJobRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.FailedJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]*model.FailedJob(nil), r.items...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// =============================
// Adapters
// =============================

// ---- Mock AIServiceAdapter ----

type MockAI struct {
	mu       sync.Mutex
	calls    int64
	Requests []adapter.CompletionRequest

	CompleteFunc func(ctx context.Context, req adapter.CompletionRequest) (adapter.Completion, error)
}

var _ adapter.AIServiceAdapter = (*MockAI)(nil)

// replying returns a MockAI that always answers text.
func replying(text string) *MockAI {
	return &MockAI{CompleteFunc: func(ctx context.Context, req adapter.CompletionRequest) (adapter.Completion, error) {
		return adapter.Completion{Text: text, Model: req.Model, Provider: "mock"}, nil
	}}
}

func (m *MockAI) Provider() string { return "mock" }

func (m *MockAI) CountTokens(ctx context.Context, model string, msgs []adapter.Message) (int, error) {
	n := 0
	for _, msg := range msgs {
		n += len(msg.Content) / 4
	}
	return n, nil
}

func (m *MockAI) Complete(ctx context.Context, req adapter.CompletionRequest) (adapter.Completion, error) {
	atomic.AddInt64(&m.calls, 1)
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return adapter.Completion{}, nil
}

func (m *MockAI) Calls() int { return int(atomic.LoadInt64(&m.calls)) }

// ---- Mock JobBroker ----

type MockBroker struct {
	mu        sync.Mutex
	Submitted []model.ClassificationJob
	Options   []model.JobOptions

	SubmitFunc func(ctx context.Context, job model.ClassificationJob, opts model.JobOptions) (string, error)
}

var _ adapter.JobBroker = (*MockBroker)(nil)

func (b *MockBroker) Submit(ctx context.Context, job model.ClassificationJob, opts model.JobOptions) (string, error) {
	if b.SubmitFunc != nil {
		if _, err := b.SubmitFunc(ctx, job, opts); err != nil {
			return "", err
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Submitted = append(b.Submitted, job)
	b.Options = append(b.Options, opts)
	return "job-" + time.Now().Format("150405.000000000"), nil
}

func (b *MockBroker) Reserve(ctx context.Context) (*model.Delivery, error) {
	return nil, domain.ErrNotFound
}

func (b *MockBroker) Ack(ctx context.Context, d *model.Delivery) error { return nil }

func (b *MockBroker) Retry(ctx context.Context, d *model.Delivery, delay time.Duration, cause error) error {
	return nil
}

func (b *MockBroker) Fail(ctx context.Context, d *model.Delivery, cause error) error { return nil }

func (b *MockBroker) Depth(ctx context.Context) (adapter.QueueDepth, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return adapter.QueueDepth{Waiting: int64(len(b.Submitted))}, nil
}

func (b *MockBroker) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Submitted)
}
