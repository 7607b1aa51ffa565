package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Backoff controls retries with exponential backoff and jitter.
type Backoff struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// Initial is the delay before the first retry.
	Initial time.Duration

	// Max caps any single delay.
	Max time.Duration

	// Multiplier scales the delay after each attempt.
	Multiplier float64

	// Jitter is the random spread as a fraction of the delay (0.25 = ±25%).
	Jitter float64

	// Retryable decides whether an error is worth another attempt.
	// IsTransient is used when nil.
	Retryable func(err error) bool

	// OnRetry runs before each retry sleep.
	OnRetry func(attempt int, err error)
}

// DefaultBackoff returns the backoff used for quote requests.
func DefaultBackoff() Backoff {
	return Backoff{
		MaxAttempts: 3,
		Initial:     500 * time.Millisecond,
		Max:         10 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.25,
	}
}

// Retry runs fn until it succeeds, returns a non-retryable error, the
// attempts are exhausted or ctx is done. The last error is returned.
func Retry[T any](ctx context.Context, b Backoff, fn func(ctx context.Context) (T, error)) (T, error) {
	b = b.withDefaults()
	retryable := b.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < b.MaxAttempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !retryable(err) || attempt == b.MaxAttempts-1 {
			break
		}

		if b.OnRetry != nil {
			b.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(b.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

func (b Backoff) withDefaults() Backoff {
	d := DefaultBackoff()
	if b.MaxAttempts <= 0 {
		b.MaxAttempts = d.MaxAttempts
	}
	if b.Initial <= 0 {
		b.Initial = d.Initial
	}
	if b.Max <= 0 {
		b.Max = d.Max
	}
	if b.Multiplier <= 0 {
		b.Multiplier = d.Multiplier
	}
	if b.Jitter < 0 {
		b.Jitter = 0
	}
	return b
}

func (b Backoff) delay(attempt int) time.Duration {
	d := float64(b.Initial) * math.Pow(b.Multiplier, float64(attempt))
	d = math.Min(d, float64(b.Max))
	if b.Jitter > 0 {
		spread := d * b.Jitter
		d += (rand.Float64()*2 - 1) * spread
	}
	return time.Duration(math.Max(d, 0))
}

// LogRetry returns an OnRetry callback that logs the symbol being fetched.
func LogRetry(symbol string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("market: retrying request",
			zap.String("symbol", symbol),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
