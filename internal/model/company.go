package model

// CompanyRecord identifies a company resolved from the catalog.
type CompanyRecord struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Sector string `json:"sector"`
}

// FinancialMetrics holds market-derived metrics for a single ticker.
// Volatility, return and drawdown are nil when they could not be computed.
type FinancialMetrics struct {
	CurrentPrice        float64  `json:"current_price"`
	PriceChangePct      float64  `json:"price_change_pct"`
	VolatilityPct       *float64 `json:"volatility_pct,omitempty"`        // std-dev of daily returns, in percent
	AnnualizedReturnPct *float64 `json:"annualized_return_pct,omitempty"` // mean daily return * 252, in percent
	SharpeRatio         *float64 `json:"sharpe_ratio,omitempty"`
	MaxDrawdownPct      *float64 `json:"max_drawdown_pct,omitempty"` // <= 0
	Observations        int      `json:"observations"`
}

// Metric names reported in ScoreResult.MissingMetrics.
const (
	MetricVolatility  = "volatility"
	MetricReturn      = "return"
	MetricMaxDrawdown = "max_drawdown"
)

// Missing returns the names of the metrics the scorer relies on that are
// absent. A nil receiver reports every metric as missing.
func (m *FinancialMetrics) Missing() []string {
	if m == nil {
		return []string{MetricVolatility, MetricReturn, MetricMaxDrawdown}
	}
	var missing []string
	if m.VolatilityPct == nil {
		missing = append(missing, MetricVolatility)
	}
	if m.AnnualizedReturnPct == nil {
		missing = append(missing, MetricReturn)
	}
	if m.MaxDrawdownPct == nil {
		missing = append(missing, MetricMaxDrawdown)
	}
	return missing
}

// Float64 returns a pointer to v. Handy for building FinancialMetrics literals.
func Float64(v float64) *float64 { return &v }
