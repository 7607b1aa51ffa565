package scorer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/strategy-cli/internal/config"
	"github.com/sells-group/strategy-cli/internal/model"
)

// neutralScore is used for a dimension with no applicable factors.
const neutralScore = 0.5

// marginTolerance absorbs floating point error when comparing a score's
// distance from a threshold against the confidence margins.
const marginTolerance = 1e-9

// Engine evaluates companies against their sector profile. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	cfg config.ScoringConfig
}

// NewEngine creates an Engine after validating the scoring policy.
func NewEngine(cfg config.ScoringConfig) (*Engine, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Evaluate scores a company and maps the result to a recommendation.
// metrics may be nil; missing metrics lower confidence rather than failing.
func (e *Engine) Evaluate(company model.CompanyRecord, profile *model.SectorProfile, metrics *model.FinancialMetrics) (*model.ScoreResult, error) {
	if profile == nil || company.Sector == "" || !strings.EqualFold(profile.Sector, company.Sector) {
		return nil, eris.Wrapf(ErrUnknownSector, "scorer: sector %q for %s", company.Sector, company.Ticker)
	}
	if err := ValidateProfile(profile); err != nil {
		return nil, err
	}

	subs := model.SubScores{
		Geopolitical: weightedAverage(profile.FactorsFor(model.DimensionGeopolitical)),
		SupplyChain:  weightedAverage(profile.FactorsFor(model.DimensionSupplyChain)),
		CapitalFlow:  weightedAverage(profile.FactorsFor(model.DimensionCapitalFlow)),
	}
	overall := e.combine(subs)

	var vol *float64
	if metrics != nil {
		vol = metrics.VolatilityPct
	}
	missing := metrics.Missing()

	rec := e.recommend(overall, vol)
	conf := e.confidence(overall)
	if len(missing) > 0 {
		conf = conf.Lower()
	}

	return &model.ScoreResult{
		Ticker:         company.Ticker,
		Sector:         profile.Sector,
		SubScores:      subs,
		Overall:        overall,
		Recommendation: rec,
		Confidence:     conf,
		Insights:       e.insights(subs, metrics, missing),
		MissingMetrics: missing,
	}, nil
}

// ValidateProfile checks every factor weight in the profile. It fails with
// ErrInvalidWeight on the first negative or non-finite weight.
func ValidateProfile(profile *model.SectorProfile) error {
	if profile == nil {
		return eris.Wrap(ErrUnknownSector, "scorer: nil profile")
	}
	for _, d := range model.Dimensions() {
		for _, f := range profile.FactorsFor(d) {
			if !validWeight(f.Weight) {
				return eris.Wrapf(ErrInvalidWeight, "scorer: %s/%s factor %q weight %v",
					profile.Sector, d, f.Name, f.Weight)
			}
		}
	}
	return nil
}

// weightedAverage returns Σ(wᵢ·vᵢ)/Σwᵢ over factors, or the neutral midpoint
// when there is nothing to average. Weights must already be validated.
// They are scaled by the largest weight first so huge finite weights cannot
// overflow the sums.
func weightedAverage(factors []model.RiskFactor) float64 {
	var maxW float64
	for _, f := range factors {
		maxW = math.Max(maxW, f.Weight)
	}
	if maxW <= 0 {
		return neutralScore
	}

	var num, den float64
	for _, f := range factors {
		w := f.Weight / maxW
		num += w * normalizeValue(f.Value)
		den += w
	}
	return clampUnit(num / den)
}

func (e *Engine) combine(s model.SubScores) float64 {
	c := e.cfg
	maxW := math.Max(c.GeopoliticalWeight, math.Max(c.SupplyChainWeight, c.CapitalFlowWeight))
	if maxW <= 0 {
		return neutralScore
	}
	g, sc, cf := c.GeopoliticalWeight/maxW, c.SupplyChainWeight/maxW, c.CapitalFlowWeight/maxW
	total := g*s.Geopolitical + sc*s.SupplyChain + cf*s.CapitalFlow
	return clampUnit(total / (g + sc + cf))
}

// recommend maps an overall score and daily volatility to a recommendation.
// High volatility always sells; a missing volatility never gates a decision.
func (e *Engine) recommend(overall float64, volatility *float64) model.Recommendation {
	c := e.cfg
	if volatility != nil && *volatility >= c.HighVolatility {
		return model.RecommendationSell
	}
	if overall <= c.SellThreshold {
		return model.RecommendationSell
	}
	if overall >= c.BuyThreshold && (volatility == nil || *volatility <= c.LowVolatility) {
		return model.RecommendationBuy
	}
	return model.RecommendationHold
}

// confidence grades how far the overall score sits from the nearest threshold.
func (e *Engine) confidence(overall float64) model.Confidence {
	c := e.cfg
	margin := math.Min(math.Abs(overall-c.BuyThreshold), math.Abs(overall-c.SellThreshold))
	// 0.4*0.8 + 0.3*0.5 + 0.3*0.6 is 0.65000000000000013, not 0.65.
	margin += marginTolerance
	switch {
	case margin >= c.HighConfidenceMargin:
		return model.ConfidenceHigh
	case margin >= c.MediumConfidenceMargin:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func (e *Engine) insights(subs model.SubScores, metrics *model.FinancialMetrics, missing []string) []string {
	c := e.cfg
	var out []string

	for _, d := range model.Dimensions() {
		v := subs.Get(d)
		switch {
		case v < c.WeakOutlook:
			out = append(out, fmt.Sprintf("Weak %s outlook (%.2f)", d.Label(), v))
		case v >= c.StrongOutlook:
			out = append(out, fmt.Sprintf("Strong %s outlook (%.2f)", d.Label(), v))
		}
	}

	if metrics != nil {
		if metrics.VolatilityPct != nil && *metrics.VolatilityPct >= c.HighVolatility {
			out = append(out, fmt.Sprintf("Elevated price volatility (%.2f%% daily)", *metrics.VolatilityPct))
		}
		if metrics.AnnualizedReturnPct != nil && *metrics.AnnualizedReturnPct < 0 {
			out = append(out, fmt.Sprintf("Negative annualized return (%.1f%%)", *metrics.AnnualizedReturnPct))
		}
		if metrics.MaxDrawdownPct != nil && *metrics.MaxDrawdownPct <= c.DeepDrawdownPct {
			out = append(out, fmt.Sprintf("Deep drawdown (%.1f%%)", *metrics.MaxDrawdownPct))
		}
	}

	if len(missing) > 0 {
		out = append(out, "Incomplete market data: "+strings.Join(missing, ", "))
	}
	return out
}

// normalizeValue maps a factor value into [0,1]. NaN is treated as neutral.
func normalizeValue(v float64) float64 {
	if math.IsNaN(v) {
		return neutralScore
	}
	return clampUnit(v)
}

// clampUnit bounds v to [0,1]; NaN becomes the neutral midpoint.
func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return neutralScore
	}
	return math.Max(0, math.Min(1, v))
}
