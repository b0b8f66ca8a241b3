package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedInterval(t *testing.T) {
	p := FixedInterval(10 * time.Second)

	for attempt := 0; attempt < 5; attempt++ {
		assert.Equal(t, 10*time.Second, p.Interval(attempt))
	}
}

func TestExponentialBackoff_Interval(t *testing.T) {
	p := ExponentialBackoff{
		Base: 2 * time.Second,
		Cap:  60 * time.Second,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 2 * time.Second},
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{3, 16 * time.Second},
		{4, 32 * time.Second},
		{5, 60 * time.Second}, // capped
		{10, 60 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Interval(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestExponentialBackoff_Jitter(t *testing.T) {
	p := ExponentialBackoff{
		Base:      2 * time.Second,
		Cap:       60 * time.Second,
		MaxJitter: 5 * time.Second,
	}

	// Jitter is random; check bounds over repeated draws.
	for i := 0; i < 100; i++ {
		d := p.Interval(3)
		assert.GreaterOrEqual(t, d, 16*time.Second)
		assert.Less(t, d, 21*time.Second)
	}

	// The cap bounds the base delay, not the jitter.
	for i := 0; i < 100; i++ {
		d := p.Interval(20)
		assert.GreaterOrEqual(t, d, 60*time.Second)
		assert.Less(t, d, 65*time.Second)
	}
}

// fakeSleep records requested delays without waiting.
func fakeSleep(delays *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestPoller_DoneOnFirstAttempt(t *testing.T) {
	var delays []time.Duration
	p := NewPoller(FixedInterval(10*time.Second), 30, 10*time.Second)
	p.Sleep = fakeSleep(&delays)

	calls := 0
	err := p.Run(context.Background(), func(_ context.Context, attempt int) (bool, error) {
		calls++
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	// The first attempt still waits the initial delay.
	assert.Equal(t, []time.Duration{10 * time.Second}, delays)
}

func TestPoller_DoneOnLastAttempt(t *testing.T) {
	var delays []time.Duration
	p := NewPoller(FixedInterval(10*time.Second), 30, 10*time.Second)
	p.Sleep = fakeSleep(&delays)

	calls := 0
	err := p.Run(context.Background(), func(_ context.Context, attempt int) (bool, error) {
		calls++
		return calls == 30, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 30, calls)
	assert.Len(t, delays, 30)
}

func TestPoller_AttemptsExhausted(t *testing.T) {
	var delays []time.Duration
	p := NewPoller(FixedInterval(10*time.Second), 30, 10*time.Second)
	p.Sleep = fakeSleep(&delays)

	calls := 0
	err := p.Run(context.Background(), func(_ context.Context, attempt int) (bool, error) {
		calls++
		return false, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, 30, calls)
}

func TestPoller_AbortsOnError(t *testing.T) {
	var delays []time.Duration
	p := NewPoller(FixedInterval(time.Second), 30, time.Second)
	p.Sleep = fakeSleep(&delays)

	wantErr := errors.New("provider exploded")
	calls := 0
	err := p.Run(context.Background(), func(_ context.Context, attempt int) (bool, error) {
		calls++
		if calls == 3 {
			return false, wantErr
		}
		return false, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
}

func TestPoller_PassesAttemptNumber(t *testing.T) {
	p := NewPoller(ExponentialBackoff{Base: time.Second, Cap: 8 * time.Second}, 4, time.Second)
	var delays []time.Duration
	p.Sleep = fakeSleep(&delays)

	var attempts []int
	err := p.Run(context.Background(), func(_ context.Context, attempt int) (bool, error) {
		attempts = append(attempts, attempt)
		return false, nil
	})

	require.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, []int{0, 1, 2, 3}, attempts)
	// Attempt 0 uses the initial delay, later attempts the policy.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, delays)
}

func TestPoller_ContextCancelledDuringSleep(t *testing.T) {
	p := NewPoller(FixedInterval(time.Minute), 30, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx, func(_ context.Context, attempt int) (bool, error) {
		t.Fatal("poll function must not run after cancellation")
		return false, nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
