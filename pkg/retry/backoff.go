package retry

import (
	"context"
	"time"

	errs "followsync/pkg/errors"
)

// BackoffStrategy decides how long to wait after a failed attempt
type BackoffStrategy interface {
	// NextDelay returns the delay following the given failed attempt
	NextDelay(attempt int, err error) time.Duration
}

// ErrorTypeBackoff picks a fixed delay from the error type of the failure.
// Types without an entry use Default.
type ErrorTypeBackoff struct {
	Delays  map[errs.ErrorType]time.Duration
	Default time.Duration
}

// NewMutationBackoff waits rateLimit after a rate-limited attempt and
// failure after anything else
func NewMutationBackoff(rateLimit, failure time.Duration) *ErrorTypeBackoff {
	return &ErrorTypeBackoff{
		Delays: map[errs.ErrorType]time.Duration{
			errs.ErrorTypeRateLimit: rateLimit,
		},
		Default: failure,
	}
}

// NextDelay returns the delay configured for err's type
func (eb *ErrorTypeBackoff) NextDelay(attempt int, err error) time.Duration {
	if attempt <= 0 {
		return 0
	}
	if d, ok := eb.Delays[errs.TypeOf(err)]; ok {
		return d
	}
	return eb.Default
}

// SleepFunc pauses for delay or until ctx is done
type SleepFunc func(ctx context.Context, delay time.Duration) error

// Wait waits for the specified duration or until context is cancelled
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
