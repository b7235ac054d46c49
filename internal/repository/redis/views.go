// Package redis holds the Redis-backed view counter. Views are counted in
// Redis first and periodically folded into the durable count in PostgreSQL,
// so a hot video never turns every playback into a row update.
package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const viewKeyPrefix = "views:"

// ViewCounter implements repository.ViewCounter using Redis INCR.
type ViewCounter struct {
	client *redis.Client
}

// NewViewCounter creates a new Redis-backed view counter.
func NewViewCounter(client *redis.Client) *ViewCounter {
	return &ViewCounter{client: client}
}

// Increment adds one view for the video and returns the accumulated delta.
func (c *ViewCounter) Increment(ctx context.Context, videoID string) (int64, error) {
	n, err := c.client.Incr(ctx, viewKeyPrefix+videoID).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr views: %w", err)
	}

	return n, nil
}

// Deltas returns the pending view delta for each video that has one. Videos
// with no pending views are absent from the result.
func (c *ViewCounter) Deltas(ctx context.Context, videoIDs []string) (map[string]int64, error) {
	if len(videoIDs) == 0 {
		return map[string]int64{}, nil
	}

	keys := make([]string, len(videoIDs))
	for i, id := range videoIDs {
		keys[i] = viewKeyPrefix + id
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget views: %w", err)
	}

	deltas := make(map[string]int64, len(videoIDs))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse view count for %s: %w", videoIDs[i], err)
		}
		deltas[videoIDs[i]] = n
	}

	return deltas, nil
}

// Drain returns the accumulated delta for the video and resets it to zero.
// GETDEL makes read-and-reset a single operation, so a concurrent Increment
// is never lost between the two halves.
func (c *ViewCounter) Drain(ctx context.Context, videoID string) (int64, error) {
	s, err := c.client.GetDel(ctx, viewKeyPrefix+videoID).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("redis getdel views: %w", err)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse view count for %s: %w", videoID, err)
	}

	return n, nil
}
