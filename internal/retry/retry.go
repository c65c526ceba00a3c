// Package retry wraps outbound calls that may fail due to provider-side
// rate limiting, retrying them with a linearly increasing delay.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// ErrMaxRetries marks a failure that persisted through every attempt.
var ErrMaxRetries = errors.New("max retries reached")

// RateLimited is implemented by errors that represent a provider-side
// throttle response. Only such errors are retried.
type RateLimited interface {
	RateLimited() bool
}

type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// OnRetry is invoked before each wait, with the attempt that just failed.
	OnRetry func(attempt int, err error)
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	return o
}

// Do executes fn, retrying rate-limited failures up to opts.MaxAttempts total
// attempts. The wait before retry n is opts.BaseDelay × n, with no jitter.
// Non-rate-limit failures propagate immediately.
func Do[T any](ctx context.Context, fn func() (T, error), opts Options) (T, error) {
	opts = opts.withDefaults()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		if !IsRateLimit(err) {
			return zero, err
		}
		lastErr = err
		if attempt == opts.MaxAttempts {
			break
		}
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, err)
		}
		select {
		case <-time.After(opts.BaseDelay * time.Duration(attempt)):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, fmt.Errorf("%w: %v", ErrMaxRetries, lastErr)
}

// IsRateLimit reports whether err carries a rate-limit classification
// anywhere in its chain.
func IsRateLimit(err error) bool {
	var rl RateLimited
	return errors.As(err, &rl) && rl.RateLimited()
}
