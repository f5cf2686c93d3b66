package telemetry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	redisSinkKey     = "telemetry:requests"
	redisSinkMaxKeep = 10_000
)

// RedisSink stores finalized request metrics in a sorted set scored by
// finish time, so Recent is a single ZREVRANGE.
type RedisSink struct {
	client *redis.Client
}

func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

func (s *RedisSink) Append(ctx context.Context, metrics *RequestMetrics) error {
	data, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("marshal request metrics: %w", err)
	}

	if err := s.client.ZAdd(ctx, redisSinkKey, redis.Z{
		Score:  float64(metrics.FinishedAt.UnixMilli()),
		Member: data,
	}).Err(); err != nil {
		return fmt.Errorf("append to redis sink: %w", err)
	}

	// Bound the set; oldest entries fall off first.
	return s.client.ZRemRangeByRank(ctx, redisSinkKey, 0, -(redisSinkMaxKeep + 1)).Err()
}

func (s *RedisSink) Recent(ctx context.Context, limit int) ([]RequestMetrics, error) {
	raw, err := s.client.ZRevRange(ctx, redisSinkKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read redis sink: %w", err)
	}

	results := make([]RequestMetrics, 0, len(raw))
	for _, item := range raw {
		var m RequestMetrics
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		results = append(results, m)
	}
	return results, nil
}
