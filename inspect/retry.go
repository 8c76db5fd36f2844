package inspect

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RetryOptions controls reconnection behavior for transient startup
// failures, such as a database that is still warming up.
type RetryOptions struct {
	MaxAttempts int           `json:"max_attempts" yaml:"max_attempts"`
	BaseDelay   time.Duration `json:"base_delay" yaml:"base_delay"`
	MaxDelay    time.Duration `json:"max_delay" yaml:"max_delay"`
}

// retryConnect runs connect up to MaxAttempts times, doubling the delay
// between attempts and capping it at MaxDelay. Zero MaxAttempts means a
// single attempt.
func retryConnect(ctx context.Context, opts RetryOptions, connect func(context.Context) (*pgxpool.Pool, error)) (*pgxpool.Pool, error) {
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := opts.BaseDelay
	if delay == 0 {
		delay = time.Second // default
	}

	var pool *pgxpool.Pool
	var err error
	for i := 0; i < attempts; i++ {
		pool, err = connect(ctx)
		if err == nil {
			return pool, nil
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
			delay *= 2
			if opts.MaxDelay > 0 && delay > opts.MaxDelay {
				delay = opts.MaxDelay
			}
		}
	}
	return nil, err
}
