package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/walletrecon/internal/infrastructure/metrics"
	"github.com/iho/walletrecon/internal/infrastructure/retry"
)

// PostgreSQL error codes for retryable errors.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// Retrier retries database calls that lost a lock race.
type Retrier struct {
	policy retry.Policy
}

// NewRetrier builds a Retrier from the shared policy. Only deadlocks and
// serialization failures are retried.
func NewRetrier(policy retry.Policy, m *metrics.Metrics) *Retrier {
	policy = policy.WithRetryable(isRetryableError)

	onRetry := policy.OnRetry
	policy.OnRetry = func(err error, attempt int, wait time.Duration) {
		if m != nil {
			m.DBRetries.WithLabelValues(pgErrorCode(err)).Inc()
		}
		if onRetry != nil {
			onRetry(err, attempt, wait)
		}
	}

	return &Retrier{policy: policy}
}

// Retry executes operation, retrying on retryable errors.
func (r *Retrier) Retry(ctx context.Context, operation func(ctx context.Context) error) error {
	return r.policy.Do(ctx, operation)
}

// isRetryableError checks if a PostgreSQL error should trigger a retry.
func isRetryableError(err error) bool {
	switch pgErrorCode(err) {
	case pgErrDeadlock, pgErrSerializationFailure:
		return true
	}
	return false
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return "unknown"
}
