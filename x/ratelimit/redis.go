package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sliding windows in a shared redis sorted set so that
// multiple api instances enforce one quota.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Check(ctx context.Context, key string, tier string) (Result, error) {
	ctx, span := tracer.Start(ctx, "Ratelimit.Redis.Check")
	defer span.End()

	limit := limitFor(tier)
	now := time.Now()
	cutoff := now.Add(-limit.Window)
	rkey := "ratelimit:" + key

	pipe := s.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, rkey, "0", strconv.FormatInt(cutoff.UnixNano(), 10))
	card := pipe.ZCard(ctx, rkey)
	oldest := pipe.ZRangeWithScores(ctx, rkey, 0, 0)
	_, err := pipe.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	count := int(card.Val())
	if count >= limit.Limit {
		reset := now.Add(limit.Window)
		if entries := oldest.Val(); len(entries) > 0 {
			reset = time.Unix(0, int64(entries[0].Score)).Add(limit.Window)
		}
		return Result{
			Allowed:   false,
			Limit:     limit.Limit,
			Remaining: 0,
			Reset:     reset,
		}, nil
	}

	member := fmt.Sprintf("%d-%d", now.UnixNano(), count)
	pipe = s.rdb.TxPipeline()
	pipe.ZAdd(ctx, rkey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, rkey, limit.Window)
	_, err = pipe.Exec(ctx)
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}

	return Result{
		Allowed:   true,
		Limit:     limit.Limit,
		Remaining: limit.Limit - count - 1,
		Reset:     now.Add(limit.Window),
	}, nil
}
