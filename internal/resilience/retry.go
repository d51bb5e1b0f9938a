package resilience

import (
	"context"
	"errors"
	"time"
)

// Permanent marks an error that must not be retried.
type Permanent struct {
	Err error
}

func (p Permanent) Error() string { return p.Err.Error() }

func (p Permanent) Unwrap() error { return p.Err }

// Retry calls fn up to attempts times, sleeping with jittered exponential
// backoff between failures. It stops early on success, on a Permanent error,
// on ErrOpenCircuit and when ctx is done.
func Retry(ctx context.Context, attempts int, base time.Duration, jitter float64, fn func(context.Context) error) error {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		var perm Permanent
		if errors.As(err, &perm) {
			return perm.Err
		}
		if errors.Is(err, ErrOpenCircuit) || attempt == attempts {
			break
		}
		timer := time.NewTimer(Backoff(base, attempt, jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
