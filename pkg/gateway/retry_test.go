package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicy_StopsAfterMaxAttempts(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3}
	calls := 0
	var notified []int

	attempts, err := policy.Do(context.Background(), func() error {
		calls++
		return errors.New("processor unavailable")
	}, func(_ error, attempt int) {
		notified = append(notified, attempt)
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, notified)
}

func TestRetryPolicy_SucceedsOnLaterAttempt(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3}
	calls := 0

	attempts, err := policy.Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRetryPolicy_PermanentErrorIsNotRetried(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5}
	cause := errors.New("charge already refunded")

	attempts, err := policy.Do(context.Background(), func() error {
		return Permanent(cause)
	}, nil)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, attempts)
}

func TestRetryPolicy_ExponentialWaits(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 2, InitialInterval: 5 * time.Millisecond, MaxInterval: 10 * time.Millisecond}

	start := time.Now()
	attempts, err := policy.Do(context.Background(), func() error {
		return errors.New("down")
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 2, attempts)
	assert.GreaterOrEqual(t, time.Since(start), 2*time.Millisecond)
}

func TestRetryPolicy_ZeroAttemptsRunsOnce(t *testing.T) {
	attempts, err := RetryPolicy{}.Do(context.Background(), func() error { return nil }, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}
