package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fast = RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "flaky", fast, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_GivesUp(t *testing.T) {
	boom := errors.New("down")
	calls := 0
	err := Retry(context.Background(), "down", fast, func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetry_PermanentStopsImmediately(t *testing.T) {
	bad := errors.New("schema mismatch")
	calls := 0
	err := Retry(context.Background(), "perm", fast, func(context.Context) error {
		calls++
		return Permanent(bad)
	})
	assert.Equal(t, bad, err)
	assert.Equal(t, 1, calls)
	assert.Nil(t, Permanent(nil))
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, "cancelled", fast, func(context.Context) error {
		return errors.New("x")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputeDelay_Capped(t *testing.T) {
	cfg := withDefaults(RetryConfig{InitialDelay: time.Second, MaxDelay: 3 * time.Second})
	assert.LessOrEqual(t, computeDelay(10, cfg), 3*time.Second)
	assert.Greater(t, computeDelay(1, cfg), time.Duration(0))
}
