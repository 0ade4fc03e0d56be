package lifecycle

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryableError is satisfied by collaborator errors that know whether
// they should re-enter the retry policy. internal/controlplane.Error
// implements this.
type RetryableError interface {
	error
	Retryable() bool
}

// RetryPolicy is the collaborator retry policy: exponential
// backoff, base 1s, factor 2, capped at 10s, up to 3 retries, ~25% jitter.
type RetryPolicy struct {
	Base       time.Duration
	Max        time.Duration
	MaxRetries uint64
	Jitter     time.Duration
}

// DefaultRetryPolicy returns the standard collaborator retry policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Base:       1 * time.Second,
		Max:        10 * time.Second,
		MaxRetries: 3,
		Jitter:     250 * time.Millisecond, // ~25% of the 1s base
	}
}

// Retry wraps fn with the exponential-backoff-with-jitter policy,
// using github.com/sethvargo/go-retry as its backoff primitive (grounded
// on engine/auth/org/service.go's provisionTemporalNamespaceWithRetry).
// Non-retryable errors (per RetryableError.Retryable, or any error that
// does not implement the interface) abort immediately without consuming
// a retry attempt. The cancellation token (ctx) is observed between
// attempts, never mid-attempt.
func Retry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	backoff := retry.NewExponential(policy.Base)
	backoff = retry.WithCappedDuration(policy.Max, backoff)
	backoff = retry.WithJitter(policy.Jitter, backoff)
	backoff = retry.WithMaxRetries(policy.MaxRetries, backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if shouldRetry(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// shouldRetry inspects err for the RetryableError contract, unwrapping
// through any wrapper chain. Errors that don't implement the contract are
// treated as non-retryable (fail fast on the unexpected rather than churn
// through the full backoff schedule).
func shouldRetry(err error) bool {
	for err != nil {
		if re, ok := err.(RetryableError); ok {
			return re.Retryable()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
