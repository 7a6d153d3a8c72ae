package retry

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// Policy describes a retry budget for an outbound call: attempt cap plus the
// shape of the exponential backoff between attempts.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy matches the probe retry budget: 3 attempts, backoff starting
// at 2s and capped at 10s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// Transient marks err as retryable under Do.
func Transient(err error) error {
	return retry.RetryableError(err)
}

// Do runs fn under the policy. fn errors wrapped with Transient are retried
// until the attempt cap; any other error stops immediately. The error of the
// final attempt is returned once the budget is exhausted.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	b := retry.NewExponential(p.BaseDelay)
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	if p.MaxAttempts > 0 {
		// MaxRetries counts retries after the first attempt.
		b = retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
	}
	return retry.Do(ctx, b, fn)
}
