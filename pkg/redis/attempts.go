package redis

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/aster/pkg/metrics"
)

const attemptKeyPrefix = "aster:attempts:"

// AttemptTracker counts delivery attempts per message reference in Redis so
// the count survives consumer restarts and rebalances. Keys expire after the
// tracking TTL; an expired counter just restarts the count, which at worst
// delays quarantine.
type AttemptTracker struct {
	client *Client
	ttl    time.Duration
	logger ectologger.Logger
}

// NewAttemptTracker creates a new attempt tracker
func NewAttemptTracker(client *Client, ttl time.Duration, logger ectologger.Logger) *AttemptTracker {
	return &AttemptTracker{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Bump increments and returns the attempt count for the message reference.
func (t *AttemptTracker) Bump(ctx context.Context, ref string) (int64, error) {
	start := time.Now()
	defer func() {
		metrics.RedisOperationDuration.WithLabelValues("attempts.bump").Observe(time.Since(start).Seconds())
	}()

	key := attemptKeyPrefix + ref
	count, err := t.client.Incr(ctx, key)
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, t.ttl); err != nil {
			t.logger.WithContext(ctx).WithError(err).Warnf("Failed to set TTL on attempt counter %s", key)
		}
	}
	return count, nil
}

// Clear drops the attempt counter once the message is done with.
func (t *AttemptTracker) Clear(ctx context.Context, ref string) error {
	start := time.Now()
	defer func() {
		metrics.RedisOperationDuration.WithLabelValues("attempts.clear").Observe(time.Since(start).Seconds())
	}()

	return t.client.Del(ctx, attemptKeyPrefix+ref)
}
