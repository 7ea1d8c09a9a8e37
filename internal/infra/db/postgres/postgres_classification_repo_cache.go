package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/domain/ports/repository"
	"meeting-classifier/internal/infra/metrics"
	red "meeting-classifier/internal/infra/redis"
)

var _ repository.ClassificationRepository = (*classificationRepoCacheDecorator)(nil)

// classificationRepoCacheDecorator caches found classifications only. A miss always reaches
// the database, so the worker's existence check never trusts a cached absence.
type classificationRepoCacheDecorator struct {
	inner repository.ClassificationRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewClassificationRepoCacheDecorator(inner repository.ClassificationRepository, cache red.RedisClient, ttl time.Duration) repository.ClassificationRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &classificationRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func classificationKey(meetingID int64) string {
	return fmt.Sprintf("classification:meeting:%d", meetingID)
}

func (d *classificationRepoCacheDecorator) FindByMeetingID(ctx context.Context, tx repository.Tx, meetingID int64) (*model.Classification, error) {
	// Inside a transaction the caller wants the transactional view.
	if tx != nil {
		return d.inner.FindByMeetingID(ctx, tx, meetingID)
	}

	key := classificationKey(meetingID)
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		var c model.Classification
		if json.Unmarshal([]byte(val), &c) == nil {
			metrics.IncCacheRequest("classification", "hit")
			return &c, nil
		}
		metrics.IncCacheRequest("classification", "error")
	case errors.Is(err, redis.Nil):
		metrics.IncCacheRequest("classification", "miss")
	default:
		metrics.IncCacheRequest("classification", "error")
	}

	c, err := d.inner.FindByMeetingID(ctx, tx, meetingID)
	if err != nil {
		return nil, err
	}
	d.store(ctx, c)
	return c, nil
}

func (d *classificationRepoCacheDecorator) Create(ctx context.Context, tx repository.Tx, c *model.Classification) error {
	if err := d.inner.Create(ctx, tx, c); err != nil {
		return err
	}
	// A classification written inside a transaction may still roll back.
	if tx == nil {
		d.store(ctx, c)
	}
	return nil
}

func (d *classificationRepoCacheDecorator) store(ctx context.Context, c *model.Classification) {
	if c == nil {
		return
	}
	b, err := json.Marshal(c)
	if err != nil {
		return
	}
	_ = d.cache.Set(ctx, classificationKey(c.MeetingID), b, d.ttl)
}
