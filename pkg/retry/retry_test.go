package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "tagharvest/pkg/errors"
	"tagharvest/pkg/logger"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   1 * time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoff.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestDoublingIsUncapped(t *testing.T) {
	b := Doubling(10*time.Second, 2)
	assert.Equal(t, 10*time.Second, b.NextDelay(1))
	assert.Equal(t, 20*time.Second, b.NextDelay(2))
	assert.Equal(t, 160*time.Second, b.NextDelay(5))

	assert.Equal(t, 2.0, Doubling(time.Second, 0).Multiplier)

	flat := Doubling(time.Second, 1)
	assert.Equal(t, time.Duration(0), flat.NextDelay(0))
	assert.Equal(t, time.Second, flat.NextDelay(1))
	assert.Equal(t, time.Second, flat.NextDelay(4))
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 20; i++ {
		delay := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, delay, 140*time.Millisecond)
		assert.LessOrEqual(t, delay, 260*time.Millisecond)
	}
}

func TestJittered(t *testing.T) {
	assert.Equal(t, time.Second, Jittered(time.Second, 0))
	for i := 0; i < 20; i++ {
		d := Jittered(time.Second, 400*time.Millisecond)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 1400*time.Millisecond)
	}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	attempts := 0
	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     Doubling(5*time.Millisecond, 1),
		RetryIf:     RetryAll,
		Logger:      logger.NewNopLogger(),
	}

	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoNoSleepAfterLastAttempt(t *testing.T) {
	attempts := 0
	var retries []int
	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     Doubling(50*time.Millisecond, 1),
		RetryIf:     RetryAll,
		OnRetry:     func(attempt int, err error, delay time.Duration) { retries = append(retries, attempt) },
		Logger:      logger.NewNopLogger(),
	}

	start := time.Now()
	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("persistent error")
	}, cfg)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, retries)
	assert.Less(t, elapsed, 140*time.Millisecond)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	attempts := 0
	notFound := errs.New(errs.ErrorTypeNotFound, "video removed")

	err := Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return notFound
	}, &Config{MaxAttempts: 5, Backoff: Doubling(time.Millisecond, 1)})

	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, notFound)
}

func TestDoHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	attempts := 0
	err := Do(ctx, func(ctx context.Context) error {
		attempts++
		return errors.New("fail")
	}, &Config{
		MaxAttempts: 10,
		Backoff:     Doubling(time.Second, 1),
		RetryIf:     RetryAll,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, attempts)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.True(t, DefaultRetryIf(errors.New("boom")))
	assert.True(t, DefaultRetryIf(errs.New(errs.ErrorTypeRateLimit, "slow down")))
	assert.False(t, DefaultRetryIf(errs.New(errs.ErrorTypeAuth, "login")))
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("first")
		}
		return "ok", nil
	}, &Config{MaxAttempts: 2, Backoff: Doubling(0, 1), RetryIf: RetryAll})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}
