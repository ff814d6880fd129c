// Package cache memoizes computed survey scores in Redis. It is the
// service-level counterpart of the in-memory memo on nps.Survey: every
// mutating endpoint invalidates the key, score queries repopulate it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyScorePrefix = "nps:score:"

// ScoreCache stores computed NPS values keyed by survey id.
type ScoreCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// New connects to Redis and validates connectivity with Ping.
func New(ctx context.Context, addr string, ttl time.Duration, logger *log.Logger) (*ScoreCache, error) {
	if logger == nil {
		logger = log.Default()
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logger.Printf("cache: connected to redis at %s (ttl=%s)", addr, ttl)
	return &ScoreCache{client: client, ttl: ttl, logger: logger}, nil
}

// Get returns the cached score for a survey and whether it was present.
func (c *ScoreCache) Get(ctx context.Context, surveyID string) (int, bool, error) {
	val, err := c.client.Get(ctx, keyScorePrefix+surveyID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	score, err := strconv.Atoi(val)
	if err != nil {
		// A corrupt entry behaves like a miss; it will be overwritten.
		return 0, false, nil
	}
	return score, true, nil
}

// Set stores the score for a survey with the configured TTL.
func (c *ScoreCache) Set(ctx context.Context, surveyID string, score int) error {
	return c.client.Set(ctx, keyScorePrefix+surveyID, strconv.Itoa(score), c.ttl).Err()
}

// Invalidate drops the cached score for a survey. Called after every
// successful mutation so the next query recomputes.
func (c *ScoreCache) Invalidate(ctx context.Context, surveyID string) error {
	return c.client.Del(ctx, keyScorePrefix+surveyID).Err()
}

// Close releases the redis connection.
func (c *ScoreCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
