package base

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/flowgate-io/flowgate/pkg/errors"
)

// RetryPolicy implements exponential backoff with jitter. Only errors
// classified retryable by the errors package are retried.
type RetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	multiplier  float64
	jitter      float64
}

// NewRetryPolicy creates a retry policy with sane defaults for the
// unconfigured fields.
func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) *RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &RetryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		maxDelay:    30 * time.Second,
		multiplier:  2.0,
		jitter:      0.1,
	}
}

// Execute runs fn, retrying retryable failures up to maxAttempts times.
func (p *RetryPolicy) Execute(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := p.delayFor(attempt)
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "retry cancelled")
			case <-time.After(delay):
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !errors.IsRetryable(lastErr) {
			return lastErr
		}
	}

	return errors.Wrap(lastErr, errors.ErrorTypeInternal, "retry attempts exhausted")
}

// delayFor computes the backoff delay for the given attempt number.
func (p *RetryPolicy) delayFor(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(p.multiplier, float64(attempt-1))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	// spread retries so concurrent clients don't stampede
	jitter := delay * p.jitter * (rand.Float64()*2 - 1)
	return time.Duration(delay + jitter)
}
