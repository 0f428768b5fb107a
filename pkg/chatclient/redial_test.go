package chatclient

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNextDelayGrowsAndCaps(t *testing.T) {
	t.Parallel()
	r := &Redialer{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second}

	// Jitter keeps each delay within half-to-full of the exponential
	// step, capped at MaxDelay.
	steps := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second, // stays capped
	}
	for attempt, step := range steps {
		for i := 0; i < 50; i++ {
			got := r.NextDelay(attempt + 1)
			if got < step/2 || got > step {
				t.Fatalf("NextDelay(%d) = %v, want within [%v, %v]", attempt+1, got, step/2, step)
			}
		}
	}
}

func TestNextDelayDefaults(t *testing.T) {
	t.Parallel()
	r := &Redialer{}
	got := r.NextDelay(1)
	if got < 250*time.Millisecond || got > 500*time.Millisecond {
		t.Fatalf("NextDelay(1) with defaults = %v, want within [250ms, 500ms]", got)
	}
}

func TestRunSucceedsAfterFailures(t *testing.T) {
	t.Parallel()
	attempts := 0
	want := &Session{}
	r := &Redialer{
		InitialDelay: time.Millisecond,
		Dial: func(ctx context.Context) (*Session, error) {
			attempts++
			if attempts < 3 {
				return nil, ErrTransport
			}
			return want, nil
		},
	}

	got, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != want {
		t.Fatal("Run returned a different session")
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestRunRespectsAttemptBudget(t *testing.T) {
	t.Parallel()
	attempts := 0
	r := &Redialer{
		InitialDelay: time.Millisecond,
		MaxAttempts:  3,
		Dial: func(ctx context.Context) (*Session, error) {
			attempts++
			return nil, ErrTransport
		},
	}

	_, err := r.Run(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	r := &Redialer{
		InitialDelay: time.Hour, // Run should never actually wait this out
		Dial: func(ctx context.Context) (*Session, error) {
			return nil, ErrTransport
		},
	}

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(ctx)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
