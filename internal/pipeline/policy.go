package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrAttemptsExhausted is returned by Poller.Run when the attempt budget is
// spent without reaching a terminal state.
var ErrAttemptsExhausted = errors.New("pipeline: polling attempt budget exhausted")

// PollingPolicy computes the delay before a given poll attempt.
// Attempt numbering starts at zero.
type PollingPolicy interface {
	Interval(attempt int) time.Duration
}

// FixedInterval is a PollingPolicy with a constant delay between polls.
type FixedInterval time.Duration

// Interval returns the fixed delay regardless of attempt number.
func (f FixedInterval) Interval(int) time.Duration {
	return time.Duration(f)
}

// ExponentialBackoff is a PollingPolicy that doubles the delay each attempt,
// capped at Cap, with uniform random jitter of up to MaxJitter added so
// concurrent runs do not poll in lockstep.
type ExponentialBackoff struct {
	Base      time.Duration
	Cap       time.Duration
	MaxJitter time.Duration
}

// Interval returns Base*2^attempt capped at Cap, plus jitter.
func (b ExponentialBackoff) Interval(attempt int) time.Duration {
	d := b.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= b.Cap {
			d = b.Cap
			break
		}
	}
	if b.Cap > 0 && d > b.Cap {
		d = b.Cap
	}
	if b.MaxJitter > 0 {
		d += time.Duration(rand.Int63n(int64(b.MaxJitter))) // #nosec G404 - jitter, not crypto
	}
	return d
}

// PollFunc is one poll attempt. It returns done=true when a terminal state
// with a usable result was reached, or an error to abort polling.
type PollFunc func(ctx context.Context, attempt int) (done bool, err error)

// Poller drives a polling loop against a PollingPolicy with a bounded
// attempt budget. Sleep is injectable so tests never wait on real timers.
type Poller struct {
	Policy       PollingPolicy
	MaxAttempts  int
	InitialDelay time.Duration
	Sleep        func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a Poller with a context-aware sleep function.
func NewPoller(policy PollingPolicy, maxAttempts int, initialDelay time.Duration) *Poller {
	return &Poller{
		Policy:       policy,
		MaxAttempts:  maxAttempts,
		InitialDelay: initialDelay,
		Sleep:        sleepContext,
	}
}

// Run polls fn until it reports done, returns an error, or the attempt
// budget is exhausted. The first attempt waits InitialDelay (a job that was
// just submitted is never ready immediately); later attempts wait
// Policy.Interval(attempt).
func (p *Poller) Run(ctx context.Context, fn PollFunc) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		delay := p.InitialDelay
		if attempt > 0 {
			delay = p.Policy.Interval(attempt)
		}
		if delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}

		done, err := fn(ctx, attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}

	return fmt.Errorf("%w after %d attempts", ErrAttemptsExhausted, p.MaxAttempts)
}

// sleepContext waits for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("pipeline: context cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
