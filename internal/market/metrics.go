// Package market turns daily price history into the financial metrics the
// scoring engine consumes.
package market

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sells-group/strategy-cli/internal/model"
)

// TradingDays is the number of trading days used to annualize.
const TradingDays = 252

// ErrInsufficientData is returned when a series is too short for statistics.
var ErrInsufficientData = eris.New("insufficient price history")

// DailyReturns converts closes into simple returns. A zero previous close
// yields a zero return.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			out[i-1] = (closes[i] - closes[i-1]) / closes[i-1]
		}
	}
	return out
}

// ComputeMetrics derives FinancialMetrics from closes, oldest first.
// Metrics that need more history than is available are left nil. It returns
// nil when there are no closes at all.
func ComputeMetrics(closes []float64) *model.FinancialMetrics {
	n := len(closes)
	if n == 0 {
		return nil
	}

	m := &model.FinancialMetrics{
		CurrentPrice: closes[n-1],
		Observations: n,
	}
	if n < 2 {
		return m
	}

	if prev := closes[n-2]; prev != 0 {
		m.PriceChangePct = (closes[n-1] - prev) / prev * 100
	}

	returns := DailyReturns(closes)
	mean := stat.Mean(returns, nil)
	m.AnnualizedReturnPct = model.Float64(mean * TradingDays * 100)
	m.MaxDrawdownPct = model.Float64(MaxDrawdown(closes) * 100)

	if len(returns) >= 2 {
		sd := stat.StdDev(returns, nil)
		m.VolatilityPct = model.Float64(sd * 100)
		if sd > 0 {
			m.SharpeRatio = model.Float64(mean / sd * math.Sqrt(TradingDays))
		}
	}
	return m
}

// MaxDrawdown returns the deepest fall from a running peak as a fraction
// (0 or negative).
func MaxDrawdown(closes []float64) float64 {
	var peak, worst float64
	for i, c := range closes {
		if i == 0 || c > peak {
			peak = c
		}
		if peak > 0 {
			worst = math.Min(worst, c/peak-1)
		}
	}
	return worst
}

// ReturnStats summarizes a series of daily returns. Percentages are in
// percent units.
type ReturnStats struct {
	Observations            int     `json:"observations"`
	MeanDailyReturnPct      float64 `json:"mean_daily_return_pct"`
	StdDevPct               float64 `json:"std_dev_pct"`
	AnnualizedReturnPct     float64 `json:"annualized_return_pct"`
	AnnualizedVolatilityPct float64 `json:"annualized_volatility_pct"`
	SharpeRatio             float64 `json:"sharpe_ratio"`
	MinDailyReturnPct       float64 `json:"min_daily_return_pct"`
	MaxDailyReturnPct       float64 `json:"max_daily_return_pct"`
	TotalReturnPct          float64 `json:"total_return_pct"`
}

// ComputeReturnStats summarizes the daily returns of closes. It needs at
// least three closes so the standard deviation is defined.
func ComputeReturnStats(closes []float64) (*ReturnStats, error) {
	returns := DailyReturns(closes)
	if len(returns) < 2 {
		return nil, eris.Wrapf(ErrInsufficientData, "market: %d closes", len(closes))
	}

	mean, sd := stat.MeanStdDev(returns, nil)
	total := 1.0
	for _, r := range returns {
		total *= 1 + r
	}

	s := &ReturnStats{
		Observations:            len(returns),
		MeanDailyReturnPct:      mean * 100,
		StdDevPct:               sd * 100,
		AnnualizedReturnPct:     mean * TradingDays * 100,
		AnnualizedVolatilityPct: sd * math.Sqrt(TradingDays) * 100,
		MinDailyReturnPct:       floats.Min(returns) * 100,
		MaxDailyReturnPct:       floats.Max(returns) * 100,
		TotalReturnPct:          (total - 1) * 100,
	}
	if sd > 0 {
		s.SharpeRatio = mean / sd * math.Sqrt(TradingDays)
	}
	return s, nil
}
