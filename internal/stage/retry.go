package stage

import (
	"context"
	"math"
	"time"
)

// RetryPolicy bounds re-attempts of a single adapter call with exponential
// backoff. The zero value (and MaxAttempts <= 1) means a single attempt,
// preserving the pipeline's single-pass contract; retries never re-run
// earlier stages.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Do runs fn, retrying per the policy. It returns the last error once
// attempts are exhausted or the context is cancelled while waiting.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		delay := time.Duration(float64(p.BaseDelay) * math.Pow(2, float64(attempt-1)))
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return err
}
