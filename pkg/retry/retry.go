package retry

import (
	"context"
	"time"
)

// OnRetryFunc is called after a failed attempt, before the backoff delay.
// It is an observation hook only and must not influence retry decisions.
type OnRetryFunc func(attempt int, err error, delay time.Duration)

// Options controls the backoff schedule.
// Delay after failed attempt n (1-indexed) is:
//
//	min(InitialDelay * Multiplier^(n-1), MaxDelay)
//
// No jitter is applied. Attempts are strictly sequential.
type Options struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	OnRetry      OnRetryFunc
}

// DefaultOptions keeps worst-case added latency low enough for an
// inline order-creation call (100ms + 200ms with 3 attempts).
func DefaultOptions() Options {
	return Options{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2,
	}
}

func (o Options) normalized() Options {
	if o.MaxAttempts < 1 {
		o.MaxAttempts = 1
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = 100 * time.Millisecond
	}
	if o.Multiplier < 1 {
		o.Multiplier = 1
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = o.InitialDelay
	}
	return o
}

// Do runs op up to opts.MaxAttempts times with exponential backoff between
// attempts. The error from the final attempt is returned unmodified so
// callers can inspect the root cause. If the context is cancelled during a
// backoff delay, the last attempt's error is returned without further tries.
func Do[T any](ctx context.Context, opts Options, op func(ctx context.Context) (T, error)) (T, error) {
	opts = opts.normalized()

	var result T
	var lastErr error

	delay := opts.InitialDelay
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result, lastErr = op(ctx)
		if lastErr == nil {
			return result, nil
		}

		if attempt == opts.MaxAttempts {
			break
		}

		wait := delay
		if wait > opts.MaxDelay {
			wait = opts.MaxDelay
		}

		if opts.OnRetry != nil {
			opts.OnRetry(attempt, lastErr, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			var zero T
			return zero, lastErr
		}

		delay = time.Duration(float64(delay) * opts.Multiplier)
	}

	var zero T
	return zero, lastErr
}
