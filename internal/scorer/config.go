// Package scorer implements the weighted risk scoring and recommendation engine.
package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/strategy-cli/internal/config"
)

// DefaultConfig returns the standard policy. Cross-dimension weights sum to 1.
func DefaultConfig() config.ScoringConfig {
	return config.DefaultScoring()
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
// Broken cross-dimension weights are reported as ErrInvalidWeight.
func ValidateConfig(c config.ScoringConfig) error {
	weights := []struct {
		name  string
		value float64
	}{
		{"geopolitical_weight", c.GeopoliticalWeight},
		{"supply_chain_weight", c.SupplyChainWeight},
		{"capital_flow_weight", c.CapitalFlowWeight},
	}
	for _, w := range weights {
		if !validWeight(w.value) {
			return eris.Wrapf(ErrInvalidWeight, "scorer: %s = %v", w.name, w.value)
		}
	}
	if math.Max(c.GeopoliticalWeight, math.Max(c.SupplyChainWeight, c.CapitalFlowWeight)) <= 0 {
		return eris.Wrap(ErrInvalidWeight, "scorer: cross-dimension weights sum to zero")
	}

	var errs []string

	if !inUnit(c.BuyThreshold) || !inUnit(c.SellThreshold) {
		errs = append(errs, "buy_threshold and sell_threshold must be between 0 and 1")
	} else if c.SellThreshold >= c.BuyThreshold {
		errs = append(errs, fmt.Sprintf("sell_threshold (%.2f) must be below buy_threshold (%.2f)", c.SellThreshold, c.BuyThreshold))
	}

	if c.LowVolatility < 0 || c.HighVolatility < 0 {
		errs = append(errs, "volatility bands must be >= 0")
	} else if c.LowVolatility > c.HighVolatility {
		errs = append(errs, "low_volatility must be <= high_volatility")
	}

	if c.MediumConfidenceMargin < 0 || c.HighConfidenceMargin < 0 {
		errs = append(errs, "confidence margins must be >= 0")
	} else if c.MediumConfidenceMargin > c.HighConfidenceMargin {
		errs = append(errs, "medium_confidence_margin must be <= high_confidence_margin")
	}

	if !inUnit(c.WeakOutlook) || !inUnit(c.StrongOutlook) || c.WeakOutlook > c.StrongOutlook {
		errs = append(errs, "weak_outlook and strong_outlook must be ordered within [0, 1]")
	}

	if c.DeepDrawdownPct > 0 {
		errs = append(errs, "deep_drawdown_pct must be <= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validWeight(w float64) bool {
	return !math.IsNaN(w) && !math.IsInf(w, 0) && w >= 0
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
