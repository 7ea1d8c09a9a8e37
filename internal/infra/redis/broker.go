// File: internal/infra/redis/broker.go
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"meeting-classifier/internal/domain"
	"meeting-classifier/internal/domain/model"
	"meeting-classifier/internal/domain/ports/adapter"
	"meeting-classifier/internal/infra/metrics"
)

// ErrLeaseLost is returned by Retry when the delivery's lease expired and the job was
// handed to another worker in the meantime.
var ErrLeaseLost = errors.New("redis broker: lease lost")

var _ adapter.JobBroker = (*Broker)(nil)

// Broker is an at-least-once job queue on plain Redis data structures:
//
//	<prefix>wait     list of ready job ids (LPUSH in, RPOP out)
//	<prefix>delayed  zset of job ids scored by due time (ms)
//	<prefix>active   zset of reserved job ids scored by lease deadline (ms)
//	<prefix>job:<id> hash with meetingId, attempts, maxAttempts, backoffMs, enqueuedAt, lastError, leaseExpired
//
// A job key exists for as long as the job is in the queue; Ack and Fail delete it.
type Broker struct {
	cli    *redis.Client
	prefix string
	lease  time.Duration
	now    func() time.Time
	log    *zerolog.Logger
}

func NewBroker(cli *redis.Client, queueName string, lease time.Duration, logger *zerolog.Logger) *Broker {
	if lease <= 0 {
		lease = 2 * time.Minute
	}
	return &Broker{
		cli:    cli,
		prefix: "queue:" + queueName + ":",
		lease:  lease,
		now:    time.Now,
		log:    logger,
	}
}

func (b *Broker) waitKey() string             { return b.prefix + "wait" }
func (b *Broker) delayedKey() string          { return b.prefix + "delayed" }
func (b *Broker) activeKey() string           { return b.prefix + "active" }
func (b *Broker) jobKey(id string) string     { return b.prefix + "job:" + id }
func (b *Broker) jobKeyPrefix() string        { return b.prefix + "job:" }
func (b *Broker) nowMs() int64                { return b.now().UnixMilli() }
func (b *Broker) dueMs(d time.Duration) int64 { return b.nowMs() + d.Milliseconds() }

func (b *Broker) Submit(ctx context.Context, job model.ClassificationJob, opts model.JobOptions) (string, error) {
	id := ulid.Make().String()
	_, err := b.cli.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, b.jobKey(id),
			"meetingId", job.MeetingID,
			"attempts", 0,
			"maxAttempts", opts.MaxAttempts,
			"backoffMs", opts.BackoffBase.Milliseconds(),
			"enqueuedAt", b.nowMs(),
		)
		p.LPush(ctx, b.waitKey(), id)
		return nil
	})
	metrics.IncEnqueue(err == nil)
	if err != nil {
		return "", fmt.Errorf("redis broker submit: %w", err)
	}
	return id, nil
}

// Moves due delayed jobs and expired leases to the wait list, then leases one job.
// Expired leases go to the consuming end so they are redelivered first and are flagged;
// a flagged job with no attempts left comes back abandoned instead of being retried.
var luaReserve = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[2], '-inf', ARGV[1], 'LIMIT', 0, 100)
for _, id in ipairs(due) do
  redis.call('ZREM', KEYS[2], id)
  redis.call('LPUSH', KEYS[1], id)
end
local expired = redis.call('ZRANGEBYSCORE', KEYS[3], '-inf', ARGV[1], 'LIMIT', 0, 100)
for _, id in ipairs(expired) do
  redis.call('ZREM', KEYS[3], id)
  if redis.call('EXISTS', ARGV[3] .. id) == 1 then
    redis.call('HSET', ARGV[3] .. id, 'leaseExpired', 1)
  end
  redis.call('RPUSH', KEYS[1], id)
end
while true do
  local id = redis.call('RPOP', KEYS[1])
  if not id then
    return false
  end
  local key = ARGV[3] .. id
  if redis.call('EXISTS', key) == 1 then
    local f = redis.call('HMGET', key, 'meetingId', 'maxAttempts', 'backoffMs', 'enqueuedAt', 'attempts', 'leaseExpired')
    redis.call('ZADD', KEYS[3], tonumber(ARGV[1]) + tonumber(ARGV[2]), id)
    if f[6] == '1' and tonumber(f[5]) >= tonumber(f[2]) then
      return {id, f[1], f[5], f[2], f[3], f[4], '1'}
    end
    redis.call('HDEL', key, 'leaseExpired')
    local attempts = redis.call('HINCRBY', key, 'attempts', 1)
    return {id, f[1], tostring(attempts), f[2], f[3], f[4], '0'}
  end
end`)

func (b *Broker) Reserve(ctx context.Context) (*model.Delivery, error) {
	keys := []string{b.waitKey(), b.delayedKey(), b.activeKey()}
	res, err := luaReserve.Run(ctx, b.cli, keys, b.nowMs(), b.lease.Milliseconds(), b.jobKeyPrefix()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis broker reserve: %w", err)
	}
	return decodeDelivery(res)
}

func decodeDelivery(res interface{}) (*model.Delivery, error) {
	fields, ok := res.([]interface{})
	if !ok || len(fields) != 7 {
		return nil, fmt.Errorf("redis broker reserve: unexpected reply %v: %w", res, domain.ErrReadDatabaseRow)
	}
	str := make([]string, len(fields))
	for i, f := range fields {
		s, ok := f.(string)
		if !ok {
			return nil, fmt.Errorf("redis broker reserve: field %d is %T: %w", i, f, domain.ErrReadDatabaseRow)
		}
		str[i] = s
	}
	meetingID, err1 := strconv.ParseInt(str[1], 10, 64)
	attempt, err2 := strconv.Atoi(str[2])
	maxAttempts, err3 := strconv.Atoi(str[3])
	backoffMs, err4 := strconv.ParseInt(str[4], 10, 64)
	enqueuedMs, err5 := strconv.ParseInt(str[5], 10, 64)
	if err := errors.Join(err1, err2, err3, err4, err5); err != nil {
		return nil, fmt.Errorf("redis broker reserve: job %s: %w", str[0], err)
	}
	return &model.Delivery{
		ID:      str[0],
		Job:     model.ClassificationJob{MeetingID: meetingID},
		Attempt: attempt,
		Options: model.JobOptions{
			MaxAttempts: maxAttempts,
			BackoffBase: time.Duration(backoffMs) * time.Millisecond,
		},
		EnqueuedAt: time.UnixMilli(enqueuedMs),
		Abandoned:  str[6] == "1",
	}, nil
}

var luaRetry = redis.NewScript(`
if redis.call('ZREM', KEYS[1], ARGV[1]) == 0 then
  return 0
end
if redis.call('EXISTS', KEYS[3]) == 0 then
  return 0
end
redis.call('HSET', KEYS[3], 'lastError', ARGV[3])
redis.call('ZADD', KEYS[2], ARGV[2], ARGV[1])
return 1`)

// Retry only succeeds while d still holds its lease.
func (b *Broker) Retry(ctx context.Context, d *model.Delivery, delay time.Duration, cause error) error {
	keys := []string{b.activeKey(), b.delayedKey(), b.jobKey(d.ID)}
	n, err := luaRetry.Run(ctx, b.cli, keys, d.ID, b.dueMs(delay), errString(cause)).Int()
	if err != nil {
		return fmt.Errorf("redis broker retry: %w", err)
	}
	if n == 0 {
		return ErrLeaseLost
	}
	return nil
}

var luaRemove = redis.NewScript(`
redis.call('ZREM', KEYS[1], ARGV[1])
redis.call('ZREM', KEYS[2], ARGV[1])
redis.call('LREM', KEYS[3], 0, ARGV[1])
return redis.call('DEL', KEYS[4])`)

func (b *Broker) remove(ctx context.Context, id string) error {
	keys := []string{b.activeKey(), b.delayedKey(), b.waitKey(), b.jobKey(id)}
	return luaRemove.Run(ctx, b.cli, keys, id).Err()
}

func (b *Broker) Ack(ctx context.Context, d *model.Delivery) error {
	if err := b.remove(ctx, d.ID); err != nil {
		return fmt.Errorf("redis broker ack: %w", err)
	}
	return nil
}

func (b *Broker) Fail(ctx context.Context, d *model.Delivery, cause error) error {
	if err := b.remove(ctx, d.ID); err != nil {
		return fmt.Errorf("redis broker fail: %w", err)
	}
	b.log.Debug().Str("job_id", d.ID).Str("cause", errString(cause)).Msg("job removed after failure")
	return nil
}

func (b *Broker) Depth(ctx context.Context) (adapter.QueueDepth, error) {
	var waiting, delayed, active *redis.IntCmd
	_, err := b.cli.Pipelined(ctx, func(p redis.Pipeliner) error {
		waiting = p.LLen(ctx, b.waitKey())
		delayed = p.ZCard(ctx, b.delayedKey())
		active = p.ZCard(ctx, b.activeKey())
		return nil
	})
	if err != nil {
		return adapter.QueueDepth{}, fmt.Errorf("redis broker depth: %w", err)
	}
	return adapter.QueueDepth{Waiting: waiting.Val(), Delayed: delayed.Val(), Active: active.Val()}, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
