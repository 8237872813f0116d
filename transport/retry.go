package transport

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures retries of idempotent requests.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first.
	// Default: 1 (no retries).
	MaxAttempts int

	// InitialDelay is the delay before the first retry. Default: 100ms.
	InitialDelay time.Duration

	// MaxDelay caps the delay between attempts. Default: 5s.
	MaxDelay time.Duration

	// Multiplier grows the delay each attempt. Default: 2.
	Multiplier float64

	// Jitter adds up to 25% random delay.
	Jitter bool

	// OnRetry is called before each retry.
	OnRetry func(attempt int, err error, delay time.Duration)
}

func (r RetryConfig) withDefaults() RetryConfig {
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = 100 * time.Millisecond
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = 5 * time.Second
	}
	if r.Multiplier <= 0 {
		r.Multiplier = 2
	}
	return r
}

func (r RetryConfig) delay(attempt int) time.Duration {
	d := time.Duration(float64(r.InitialDelay) * math.Pow(r.Multiplier, float64(attempt-1)))
	if d > r.MaxDelay || d <= 0 {
		d = r.MaxDelay
	}
	if r.Jitter && d >= 4 {
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		d += time.Duration(rand.Int64N(int64(d / 4)))
	}
	return d
}

// Retryable reports whether err is worth another attempt: transport
// failures, per-attempt timeouts, 5xx and 429. Status errors in the 4xx
// range, decode errors, open circuits and caller cancellation are final.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrDecode) || errors.Is(err, ErrInvalidHref) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

// retry runs op up to cfg.MaxAttempts times.
func retry(ctx context.Context, cfg RetryConfig, op func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !Retryable(err) || attempt >= cfg.MaxAttempts {
			break
		}

		d := cfg.delay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, d)
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return lastErr
}
