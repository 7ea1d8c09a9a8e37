//go:build !integration

package postgres

import (
	"context"
	"time"

	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/domain/ports/repository"
	red "meeting-classifier/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerClassificationRepo mocks the database repository that the decorator wraps.
type mockInnerClassificationRepo struct {
	CreateFunc          func(ctx context.Context, tx repository.Tx, c *model.Classification) error
	FindByMeetingIDFunc func(ctx context.Context, tx repository.Tx, meetingID int64) (*model.Classification, error)
}

func (m *mockInnerClassificationRepo) Create(ctx context.Context, tx repository.Tx, c *model.Classification) error {
	return m.CreateFunc(ctx, tx, c)
}
func (m *mockInnerClassificationRepo) FindByMeetingID(ctx context.Context, tx repository.Tx, meetingID int64) (*model.Classification, error) {
	return m.FindByMeetingIDFunc(ctx, tx, meetingID)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
