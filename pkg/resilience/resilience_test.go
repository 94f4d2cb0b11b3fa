package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-ranking-core/pkg/errors"
)

var errFlaky = errors.New("flaky")

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "load", fastRetry(), func() error {
		calls++
		if calls < 3 {
			return errFlaky
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "load", fastRetry(), func() error {
		calls++
		return errFlaky
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, calls)
}

func TestRetryIfStopsEarly(t *testing.T) {
	cfg := fastRetry()
	cfg.RetryIf = func(err error) bool { return !errors.Is(err, apperrors.ErrInvalidInput) }

	calls := 0
	err := Retry(context.Background(), "load", cfg, func() error {
		calls++
		return apperrors.InvalidArgf("bad row")
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, 1, calls)
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, "load", fastRetry(), func() error { return errFlaky })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, "slow", func(context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	err = WithTimeout(context.Background(), time.Second, "fast", func(context.Context) error { return nil })
	assert.NoError(t, err)

	err = WithTimeout(context.Background(), 0, "unbounded", func(context.Context) error { return errFlaky })
	assert.ErrorIs(t, err, errFlaky)
}

func TestBreakerTransitions(t *testing.T) {
	b := NewBreaker("redis", BreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	clock := time.Unix(1000, 0)
	b.now = func() time.Time { return clock }

	fail := func() error { return errFlaky }
	ok := func() error { return nil }

	assert.ErrorIs(t, b.Execute(fail), errFlaky)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Execute(fail), errFlaky)
	assert.Equal(t, StateOpen, b.State())

	assert.ErrorIs(t, b.Execute(ok), ErrCircuitOpen)

	clock = clock.Add(time.Minute)
	assert.ErrorIs(t, b.Execute(fail), errFlaky)
	assert.Equal(t, StateOpen, b.State())

	clock = clock.Add(time.Minute)
	require.NoError(t, b.Execute(ok))
	assert.Equal(t, StateClosed, b.State())
}
