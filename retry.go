package reqflow

import (
	"context"
	"time"
)

// RetryPolicy controls how WithRetry re-runs a failing reaction.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int

	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64

	// RetryIf decides whether an error is retried. Nil retries every error.
	RetryIf func(err error) bool
}

// backoff returns the delay before retry number attempt (1-based).
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	if d <= 0 {
		return 0
	}
	mult := p.BackoffMultiplier
	if mult <= 0 {
		mult = 1
	}
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * mult)
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// RetryBuilder provides a fluent way to construct RetryPolicy values
// for use with WithRetry.
type RetryBuilder struct {
	policy RetryPolicy
}

// Retry creates a RetryBuilder with the given maxAttempts.
//
// maxAttempts <= 0 is treated as 1 (no retries).
func Retry(maxAttempts int) RetryBuilder {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return RetryBuilder{
		policy: RetryPolicy{
			MaxAttempts: maxAttempts,
		},
	}
}

// WithExponentialBackoff configures exponential backoff:
//
//   - initial is the delay before the first retry.
//   - multiplier > 1 grows the delay each attempt (default 2.0 if <= 0).
//   - max caps the delay; if <= 0, there is no cap.
//
// Example:
//
//	Retry(3).WithExponentialBackoff(100*time.Millisecond, 2.0, 2*time.Second)
func (r RetryBuilder) WithExponentialBackoff(initial time.Duration, multiplier float64, max time.Duration) RetryBuilder {
	p := r.policy
	p.InitialBackoff = initial
	p.MaxBackoff = max
	if multiplier <= 0 {
		multiplier = 2.0
	}
	p.BackoffMultiplier = multiplier
	return RetryBuilder{policy: p}
}

// WithConstantBackoff configures a constant backoff between retries.
func (r RetryBuilder) WithConstantBackoff(delay time.Duration) RetryBuilder {
	p := r.policy
	p.InitialBackoff = delay
	p.MaxBackoff = 0
	p.BackoffMultiplier = 1.0
	return RetryBuilder{policy: p}
}

// If restricts retries to errors for which retryable returns true.
func (r RetryBuilder) If(retryable func(err error) bool) RetryBuilder {
	p := r.policy
	p.RetryIf = retryable
	return RetryBuilder{policy: p}
}

// Policy returns the underlying RetryPolicy.
func (r RetryBuilder) Policy() RetryPolicy {
	return r.policy
}

// Reaction wraps reaction with the policy, see WithRetry.
func (r RetryBuilder) Reaction(reaction Reaction) Reaction {
	return WithRetry(r.policy, reaction)
}

// WithRetry returns a reaction that re-runs reaction while it fails, up to
// p.MaxAttempts times, sleeping between attempts. Only the final error
// reaches the runner, so exception handlers see at most one error per
// event. Waiting stops early when ctx is done.
func WithRetry(p RetryPolicy, reaction Reaction) Reaction {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return func(ctx context.Context, event any) ([]any, error) {
		var err error
		for attempt := 1; ; attempt++ {
			var out []any
			out, err = reaction(ctx, event)
			if err == nil {
				return out, nil
			}
			if attempt >= attempts || (p.RetryIf != nil && !p.RetryIf(err)) {
				return nil, err
			}

			d := p.backoff(attempt)
			if d <= 0 {
				if ctx.Err() != nil {
					return nil, err
				}
				continue
			}
			t := time.NewTimer(d)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, err
			case <-t.C:
			}
		}
	}
}
