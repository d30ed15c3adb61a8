package network

import (
	"context"
	"math/rand"
	"time"
)

// Backoff is the retry delay policy: exponential growth from Base,
// capped at Max, with multiplicative jitter.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64 // fraction of the delay randomized in each direction
}

func DefaultBackoff() Backoff {
	return Backoff{Base: time.Second, Max: 30 * time.Second, Jitter: 0.3}
}

// Delay computes the wait before retry number retry (1-based).
func (b Backoff) Delay(retry int, rng *rand.Rand) time.Duration {
	if retry < 1 {
		retry = 1
	}
	delay := b.Base
	for i := 1; i < retry; i++ {
		delay *= 2
		if delay >= b.Max {
			delay = b.Max
			break
		}
	}
	if delay > b.Max {
		delay = b.Max
	}
	if b.Jitter > 0 && rng != nil {
		factor := 1 + b.Jitter*(2*rng.Float64()-1)
		delay = time.Duration(float64(delay) * factor)
	}
	return delay
}

// Sleeper waits out a delay, honoring cancellation. Tests inject a
// no-op implementation so retries run without real sleeps.
type Sleeper func(ctx context.Context, d time.Duration) error

// WallClockSleeper sleeps for real.
func WallClockSleeper(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
