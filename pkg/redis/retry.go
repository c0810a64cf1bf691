package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richxcame/fleet-analytics/pkg/resilience"
)

// RetryableOperation executes a Redis operation, repeating it on
// connection-level failures.
func RetryableOperation[T any](ctx context.Context, operation func(context.Context) (T, error), operationName string) (T, error) {
	policy := resilience.Policy{
		Attempts:  3,
		BaseDelay: 50 * time.Millisecond,
		MaxDelay:  time.Second,
		Jitter:    true,
		Classify:  classifyRedis,
	}
	return resilience.Do(ctx, policy, operationName, operation)
}

func classifyRedis(err error) resilience.ErrorClass {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ClassCanceled
	}
	if isRedisRetryable(err) {
		return resilience.ClassTransient
	}
	return resilience.ClassPermanent
}

// isRedisRetryable retries connection-level failures only. A cache miss is never retried.
func isRedisRetryable(err error) bool {
	if err == nil || errors.Is(err, redis.Nil) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, transient := range []string{"connection refused", "connection reset", "broken pipe", "i/o timeout", "eof", "loading"} {
		if strings.Contains(msg, transient) {
			return true
		}
	}
	return false
}
