// Package retry provides the retry policy shared by every component that
// talks to the network: the database retrier and the rate feeds.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Policy describes how an operation is retried.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	// Retryable reports whether err is transient. Nil means every error is.
	Retryable func(err error) bool
	// OnRetry is called before each retry.
	OnRetry func(err error, attempt int, wait time.Duration)
	Logger  zerolog.Logger
}

// Default returns a policy of 3 attempts with exponential backoff.
func Default() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		MaxElapsedTime:  10 * time.Second,
		Logger:          zerolog.Nop(),
	}
}

// WithRetryable returns a copy of p using fn as the retryable predicate.
func (p Policy) WithRetryable(fn func(err error) bool) Policy {
	p.Retryable = fn
	return p
}

// Do runs op until it succeeds, returns a non-retryable error, the attempt
// budget is spent or ctx is done. The last error is returned unwrapped.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = p.MaxElapsedTime

	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		p.Logger.Warn().Err(err).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("retryable error, retrying")
		if p.OnRetry != nil {
			p.OnRetry(err, attempt, wait)
		}
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	return backoff.RetryNotify(operation, policy, notify)
}
