package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// UsageQuota enforces a soft daily token budget per caller.
type UsageQuota interface {
	Allow(ctx context.Context, subject string, estimate int) (bool, error)
	Consume(ctx context.Context, subject string, tokens int) error
	Used(ctx context.Context, subject string) (int64, error)
	Limit() int
}

type redisUsageQuota struct {
	client *redis.Client
	limit  int
	prefix string
	now    func() time.Time
}

// NewRedisUsageQuota builds a quota backed by per-day redis counters. A limit of zero disables it.
func NewRedisUsageQuota(client *redis.Client, limit int) UsageQuota {
	return &redisUsageQuota{
		client: client,
		limit:  limit,
		prefix: "promptcoach:quota",
		now:    time.Now,
	}
}

func (q *redisUsageQuota) Limit() int {
	return q.limit
}

func (q *redisUsageQuota) Allow(ctx context.Context, subject string, estimate int) (bool, error) {
	if q.limit <= 0 {
		return true, nil
	}

	used, err := q.Used(ctx, subject)
	if err != nil {
		return false, err
	}

	return used+int64(estimate) <= int64(q.limit), nil
}

func (q *redisUsageQuota) Consume(ctx context.Context, subject string, tokens int) error {
	if tokens <= 0 {
		return nil
	}

	key := q.key(subject)
	pipe := q.client.TxPipeline()
	pipe.IncrBy(ctx, key, int64(tokens))
	pipe.Expire(ctx, key, 48*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

func (q *redisUsageQuota) Used(ctx context.Context, subject string) (int64, error) {
	used, err := q.client.Get(ctx, q.key(subject)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return used, err
}

func (q *redisUsageQuota) key(subject string) string {
	return fmt.Sprintf("%s:%s:%s", q.prefix, q.now().UTC().Format("20060102"), subject)
}
