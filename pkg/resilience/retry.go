package resilience

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"

	"github.com/richxcame/fleet-analytics/pkg/logger"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

// ErrorClass sorts a failed backend call by what another attempt could achieve.
type ErrorClass int

const (
	// ClassPermanent: the backend rejected the request (4xx). Same request, same answer.
	ClassPermanent ErrorClass = iota
	// ClassTransient: overload, 5xx, 408 or a network failure.
	ClassTransient
	// ClassCanceled: the caller's context ended.
	ClassCanceled
	// ClassBreakerOpen: the collection's breaker is shedding calls.
	ClassBreakerOpen
)

func (c ErrorClass) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassCanceled:
		return "canceled"
	case ClassBreakerOpen:
		return "breaker_open"
	default:
		return "permanent"
	}
}

// StatusCoder is implemented by errors that carry the backend's HTTP status.
type StatusCoder interface {
	HTTPStatus() int
}

// Classify sorts err for the fleet backend. Errors with a status follow
// IsRetryableHTTPStatus; anything else is a transport failure and transient.
func Classify(err error) ErrorClass {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ClassCanceled
	case errors.Is(err, ErrCircuitOpen):
		return ClassBreakerOpen
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		if IsRetryableHTTPStatus(sc.HTTPStatus()) {
			return ClassTransient
		}
		return ClassPermanent
	}
	return ClassTransient
}

// IsRetryableHTTPStatus reports the statuses the backend uses for
// momentary trouble.
func IsRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Policy says how often and how patiently a call is repeated. Delays double
// from BaseDelay up to MaxDelay; with Jitter each wait is drawn from [0, delay).
// A zero MaxDelay means no wait between attempts.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    bool

	// Classify overrides the fleet backend classification.
	Classify func(error) ErrorClass
	Clock    clockz.Clock
}

// ReadPolicy is used for GETs against the fleet backend. Collection reads
// are idempotent, so only the error class limits them.
func ReadPolicy(attempts int) Policy {
	if attempts <= 0 {
		attempts = 3
	}
	return Policy{
		Attempts:  attempts,
		BaseDelay: 200 * time.Millisecond,
		MaxDelay:  3 * time.Second,
		Jitter:    true,
	}
}

func (p Policy) classify(err error) ErrorClass {
	if p.Classify != nil {
		return p.Classify(err)
	}
	return Classify(err)
}

func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt && d < p.MaxDelay; i++ {
		d *= 2
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d > 0 {
		d = time.Duration(rand.Int63n(int64(d)))
	}
	return d
}

// Do runs op until it succeeds, fails with a non-transient error, runs out
// of attempts or ctx ends. name labels the logs and the retry metrics.
func Do[T any](ctx context.Context, p Policy, name string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	clock := p.Clock
	if clock == nil {
		clock = clockz.RealClock
	}

	start := clock.Now()
	elapsed := func() float64 { return clock.Now().Sub(start).Seconds() }
	log := logger.Named("resilience").With(zap.String("operation", name))

	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			RecordRetryOperation(name, elapsed(), attempt, false)
			return zero, err
		}

		result, err := op(ctx)
		if err == nil {
			RecordRetryAttempt(name, true)
			RecordRetryOperation(name, elapsed(), attempt, true)
			if attempt > 1 {
				log.Info("backend call recovered", zap.Int("attempt", attempt))
			}
			return result, nil
		}
		RecordRetryAttempt(name, false)
		lastErr = err

		if class := p.classify(err); class != ClassTransient {
			log.Debug("not retrying", zap.Stringer("class", class), zap.Error(err))
			RecordRetryOperation(name, elapsed(), attempt, false)
			return zero, err
		}
		if attempt == p.Attempts {
			log.Warn("backend call failed on every attempt", zap.Int("attempts", attempt), zap.Error(err))
			break
		}

		wait := p.delay(attempt)
		RecordRetryBackoff(name, wait.Seconds())
		log.Info("retrying backend call",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			RecordRetryOperation(name, elapsed(), attempt+1, false)
			return zero, ctx.Err()
		case <-clock.After(wait):
		}
	}

	RecordRetryOperation(name, elapsed(), p.Attempts, false)
	return zero, lastErr
}
