// Package retry runs fallible operations with bounded exponential backoff.
package retry

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// Policy controls how many times an operation runs and how long to wait
// between attempts.
type Policy struct {
	MaxAttempts  int           `koanf:"max_attempts" validate:"min=1"`
	InitialDelay time.Duration `koanf:"initial_delay"`
	MaxDelay     time.Duration `koanf:"max_delay"`
	Multiplier   float64       `koanf:"multiplier" validate:"gte=1"`
}

// DefaultPolicy is 3 attempts starting at 1s, doubling, capped at 10s
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
	}
}

// Delay returns the wait after the given 0-based failed attempt:
// min(InitialDelay * Multiplier^attempt, MaxDelay).
func (p Policy) Delay(attempt int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Option customises a single Do call
type Option func(*options)

type options struct {
	name    string
	logger  *slog.Logger
	onRetry func(attempt int, delay time.Duration, err error)
	sleep   func(ctx context.Context, d time.Duration) error
}

// WithName labels log entries for the wrapped operation
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger overrides slog.Default()
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// OnRetry is called before each wait with the 1-based attempt that failed
func OnRetry(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(o *options) { o.onRetry = fn }
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs op until it succeeds or the policy's attempts are used up.
// The error of the final attempt is returned as is. Attempts never overlap,
// and a running attempt is not interrupted; ctx is only observed while
// waiting between attempts.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error), opts ...Option) (T, error) {
	o := options{
		name:  "operation",
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		result T
		err    error
	)
	for attempt := 0; attempt < attempts; attempt++ {
		result, err = op(ctx)
		if err == nil {
			return result, nil
		}
		if attempt == attempts-1 {
			break
		}

		delay := p.Delay(attempt)
		o.logger.Warn("Attempt failed, retrying",
			"operation", o.name,
			"attempt", attempt+1,
			"max_attempts", attempts,
			"delay", delay,
			"err", err)
		if o.onRetry != nil {
			o.onRetry(attempt+1, delay, err)
		}

		if sleepErr := o.sleep(ctx, delay); sleepErr != nil {
			o.logger.Warn("Retry wait interrupted", "operation", o.name, "err", sleepErr)
			return result, err
		}
	}

	return result, err
}
