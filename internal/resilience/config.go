package resilience

import (
	"time"

	"github.com/sells-group/strategy-cli/internal/config"
)

// BackoffFromConfig builds a Backoff from market settings, keeping the
// defaults for anything unset.
func BackoffFromConfig(cfg config.MarketConfig) Backoff {
	b := DefaultBackoff()
	if cfg.RetryMaxAttempts > 0 {
		b.MaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.RetryInitialBackoffMs > 0 {
		b.Initial = time.Duration(cfg.RetryInitialBackoffMs) * time.Millisecond
	}
	return b
}

// BreakerFromConfig builds a BreakerConfig for the quote API.
func BreakerFromConfig(cfg config.MarketConfig) BreakerConfig {
	bc := BreakerConfig{Name: "yahoo", Failures: 5, Cooldown: 30 * time.Second}
	if cfg.CircuitFailures > 0 {
		bc.Failures = cfg.CircuitFailures
	}
	if cfg.CircuitResetSecs > 0 {
		bc.Cooldown = time.Duration(cfg.CircuitResetSecs) * time.Second
	}
	return bc
}
