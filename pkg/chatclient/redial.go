package chatclient

import (
	"context"
	"math/rand"
	"time"
)

// Redialer retries Dial with capped exponential backoff. It is a policy
// layered on top of the session primitives: a Session itself never
// reconnects, so callers that want the original manual-reopen behavior
// simply don't use a Redialer.
type Redialer struct {
	// Dial performs one connection attempt.
	Dial func(ctx context.Context) (*Session, error)

	// InitialDelay is the wait after the first failure. Default 500ms.
	InitialDelay time.Duration
	// MaxDelay caps the backoff. Default 30s.
	MaxDelay time.Duration
	// MaxAttempts limits the number of attempts; 0 means unlimited.
	MaxAttempts int
}

// NextDelay returns the backoff before the given retry (attempt 1 is
// the first retry). Jittered to half-to-full of the exponential step.
func (r *Redialer) NextDelay(attempt int) time.Duration {
	initial := r.InitialDelay
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	max := r.MaxDelay
	if max <= 0 {
		max = 30 * time.Second
	}

	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			delay = max
			break
		}
	}
	half := delay / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}

// Run dials until an attempt succeeds, the attempt budget is spent, or
// ctx is cancelled.
func (r *Redialer) Run(ctx context.Context) (*Session, error) {
	var lastErr error
	for attempt := 1; r.MaxAttempts == 0 || attempt <= r.MaxAttempts; attempt++ {
		session, err := r.Dial(ctx)
		if err == nil {
			return session, nil
		}
		lastErr = err

		if r.MaxAttempts != 0 && attempt == r.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.NextDelay(attempt)):
		}
	}
	return nil, lastErr
}
