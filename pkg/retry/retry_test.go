package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastOptions(3), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestDo_RecoversAfterTransientFailure(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastOptions(3), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("network blip")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 3, calls)
}

func TestDo_BackoffSchedule(t *testing.T) {
	opts := Options{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     60 * time.Second,
		Multiplier:   2,
	}

	var attempts []int
	var delays []time.Duration
	opts.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
		delays = append(delays, delay)
	}
	boom := errors.New("boom")

	calls := 0
	start := time.Now()
	_, err := Do(context.Background(), opts, func(ctx context.Context) (struct{}, error) {
		calls++
		return struct{}{}, boom
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, 3, calls, "a 4th attempt must never be made")
	assert.Equal(t, []int{1, 2}, attempts)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, delays)
	// Two sleeps of 100ms and 200ms; no delay before the first attempt and
	// none after the last.
	assert.GreaterOrEqual(t, elapsed, 300*time.Millisecond)
	assert.Less(t, elapsed, 600*time.Millisecond)
}

func TestDo_DelayCappedAtMaxDelay(t *testing.T) {
	opts := Options{
		MaxAttempts:  4,
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   10,
	}

	var delays []time.Duration
	opts.OnRetry = func(attempt int, err error, delay time.Duration) {
		delays = append(delays, delay)
	}

	_, err := Do(context.Background(), opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, errors.New("always fails")
	})

	require.Error(t, err)
	require.Len(t, delays, 3)
	assert.Equal(t, 1*time.Millisecond, delays[0])
	assert.Equal(t, 2*time.Millisecond, delays[1])
	assert.Equal(t, 2*time.Millisecond, delays[2])
}

func TestDo_FinalErrorUnmodified(t *testing.T) {
	rootCause := errors.New("gateway timeout")

	_, err := Do(context.Background(), fastOptions(3), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, rootCause
	})

	// Callers inspect the root cause, so the exact error value must come
	// back without wrapping.
	assert.Same(t, rootCause, err)
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	opts := Options{
		MaxAttempts:  5,
		InitialDelay: 5 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
	}

	opErr := errors.New("still down")
	calls := 0
	done := make(chan struct{})

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	var err error
	go func() {
		_, err = Do(ctx, opts, func(ctx context.Context) (struct{}, error) {
			calls++
			return struct{}{}, opErr
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after context cancellation")
	}

	assert.Equal(t, 1, calls)
	assert.Same(t, opErr, err)
}

func TestDo_OnRetryDoesNotAlterSchedule(t *testing.T) {
	opts := fastOptions(3)
	opts.OnRetry = func(attempt int, err error, delay time.Duration) {
		// observation only; attempt count must stay at MaxAttempts
	}

	calls := 0
	_, err := Do(context.Background(), opts, func(ctx context.Context) (struct{}, error) {
		calls++
		return struct{}{}, errors.New("nope")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func fastOptions(attempts int) Options {
	return Options{
		MaxAttempts:  attempts,
		InitialDelay: 1 * time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}
