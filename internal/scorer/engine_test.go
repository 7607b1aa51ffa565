package scorer

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/strategy-cli/internal/model"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return e
}

// uniformProfile gives every dimension a single factor with value v.
func uniformProfile(sector string, v float64) *model.SectorProfile {
	return &model.SectorProfile{
		Sector: sector,
		Factors: map[model.Dimension][]model.RiskFactor{
			model.DimensionGeopolitical: {{Name: "geo", Weight: 1, Value: v}},
			model.DimensionSupplyChain:  {{Name: "supply", Weight: 1, Value: v}},
			model.DimensionCapitalFlow:  {{Name: "capital", Weight: 1, Value: v}},
		},
	}
}

func completeMetrics(vol float64) *model.FinancialMetrics {
	return &model.FinancialMetrics{
		CurrentPrice:        100,
		VolatilityPct:       model.Float64(vol),
		AnnualizedReturnPct: model.Float64(6),
		MaxDrawdownPct:      model.Float64(-8),
	}
}

var testCompany = model.CompanyRecord{Ticker: "TST.L", Name: "Test plc", Sector: "Technology"}

func TestEvaluate_WorkedExample(t *testing.T) {
	e := newTestEngine(t)
	profile := &model.SectorProfile{
		Sector: "Technology",
		Factors: map[model.Dimension][]model.RiskFactor{
			model.DimensionGeopolitical: {{Name: "Brexit Impact", Weight: 1.0, Value: 0.8}},
			model.DimensionSupplyChain:  {{Name: "Shipping Costs", Weight: 1.0, Value: 0.5}},
			model.DimensionCapitalFlow:  {{Name: "FDI Inflows", Weight: 1.0, Value: 0.6}},
		},
	}

	res, err := e.Evaluate(testCompany, profile, completeMetrics(1.0))
	require.NoError(t, err)

	assert.InDelta(t, 0.8, res.SubScores.Geopolitical, 1e-9)
	assert.InDelta(t, 0.5, res.SubScores.SupplyChain, 1e-9)
	assert.InDelta(t, 0.6, res.SubScores.CapitalFlow, 1e-9)
	assert.InDelta(t, 0.65, res.Overall, 1e-9)
	assert.Equal(t, model.RecommendationHold, res.Recommendation)
	assert.Equal(t, model.ConfidenceMedium, res.Confidence, "0.65 sits exactly 0.05 from the buy threshold")
	assert.Equal(t, "TST.L", res.Ticker)
	assert.Equal(t, "Technology", res.Sector)
	assert.Empty(t, res.MissingMetrics)
}

func TestEvaluate_WeightedAverageUsesWeights(t *testing.T) {
	e := newTestEngine(t)
	profile := uniformProfile("Technology", 0.5)
	profile.Factors[model.DimensionGeopolitical] = []model.RiskFactor{
		{Name: "a", Weight: 3, Value: 1.0},
		{Name: "b", Weight: 1, Value: 0.0},
	}

	res, err := e.Evaluate(testCompany, profile, completeMetrics(1.0))
	require.NoError(t, err)
	assert.InDelta(t, 0.75, res.SubScores.Geopolitical, 1e-9)
}

func TestEvaluate_HugeFactorWeights(t *testing.T) {
	e := newTestEngine(t)
	profile := uniformProfile("Technology", 0.5)
	profile.Factors[model.DimensionGeopolitical] = []model.RiskFactor{
		{Name: "a", Weight: 1e308, Value: 0.9},
		{Name: "b", Weight: 1e308, Value: 0.3},
	}

	res, err := e.Evaluate(testCompany, profile, completeMetrics(1.0))
	require.NoError(t, err)
	assert.InDelta(t, 0.6, res.SubScores.Geopolitical, 1e-9)
	assert.False(t, math.IsNaN(res.Overall))
	assert.InDelta(t, 0.54, res.Overall, 1e-9)
}

func TestEvaluate_HugeCrossWeights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GeopoliticalWeight = 1e308
	cfg.SupplyChainWeight = 1e308
	cfg.CapitalFlowWeight = 1e308
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	profile := uniformProfile("Technology", 0.5)
	profile.Factors[model.DimensionGeopolitical] = []model.RiskFactor{{Name: "geo", Weight: 1, Value: 0.8}}

	res, err := e.Evaluate(testCompany, profile, completeMetrics(1.0))
	require.NoError(t, err)
	assert.InDelta(t, 0.6, res.Overall, 1e-9)
	assert.Equal(t, model.RecommendationHold, res.Recommendation)
}

func TestClampUnit(t *testing.T) {
	assert.Equal(t, 0.5, clampUnit(math.NaN()))
	assert.Equal(t, 1.0, clampUnit(math.Inf(1)))
	assert.Equal(t, 0.0, clampUnit(math.Inf(-1)))
	assert.Equal(t, 0.25, clampUnit(0.25))
}

func TestEvaluate_AllZeroAndAllOne(t *testing.T) {
	e := newTestEngine(t)

	for _, v := range []float64{0, 1} {
		profile := &model.SectorProfile{
			Sector: "Technology",
			Factors: map[model.Dimension][]model.RiskFactor{
				model.DimensionGeopolitical: {
					{Name: "a", Weight: 0.8, Value: v},
					{Name: "b", Weight: 0.7, Value: v},
					{Name: "c", Weight: 0.9, Value: v},
				},
				model.DimensionSupplyChain: {
					{Name: "d", Weight: 0.6, Value: v},
					{Name: "e", Weight: 0.2, Value: v},
				},
				model.DimensionCapitalFlow: {
					{Name: "f", Weight: 0.5, Value: v},
				},
			},
		}
		res, err := e.Evaluate(testCompany, profile, completeMetrics(1.0))
		require.NoError(t, err)
		assert.InDelta(t, v, res.SubScores.Geopolitical, 1e-9)
		assert.InDelta(t, v, res.SubScores.SupplyChain, 1e-9)
		assert.InDelta(t, v, res.SubScores.CapitalFlow, 1e-9)
		assert.InDelta(t, v, res.Overall, 1e-9)
	}
}

func TestEvaluate_EmptyDimensionIsNeutral(t *testing.T) {
	e := newTestEngine(t)
	profile := uniformProfile("Technology", 0.9)
	delete(profile.Factors, model.DimensionSupplyChain)
	profile.Factors[model.DimensionCapitalFlow] = []model.RiskFactor{{Name: "zero weight", Weight: 0, Value: 1}}

	res, err := e.Evaluate(testCompany, profile, completeMetrics(1.0))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.SubScores.SupplyChain, 1e-9)
	assert.InDelta(t, 0.5, res.SubScores.CapitalFlow, 1e-9)
	assert.InDelta(t, 0.9, res.SubScores.Geopolitical, 1e-9)
}

func TestEvaluate_OutOfRangeValuesAreNormalized(t *testing.T) {
	e := newTestEngine(t)
	profile := &model.SectorProfile{
		Sector: "Technology",
		Factors: map[model.Dimension][]model.RiskFactor{
			model.DimensionGeopolitical: {{Name: "over", Weight: 1, Value: 1.7}},
			model.DimensionSupplyChain:  {{Name: "under", Weight: 1, Value: -0.4}},
			model.DimensionCapitalFlow:  {{Name: "nan", Weight: 1, Value: math.NaN()}},
		},
	}

	res, err := e.Evaluate(testCompany, profile, completeMetrics(1.0))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.SubScores.Geopolitical, 1e-9)
	assert.InDelta(t, 0.0, res.SubScores.SupplyChain, 1e-9)
	assert.InDelta(t, 0.5, res.SubScores.CapitalFlow, 1e-9)
}

func TestEvaluate_UnknownSector(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name    string
		company model.CompanyRecord
		profile *model.SectorProfile
	}{
		{"nil profile", testCompany, nil},
		{"mismatched sector", testCompany, uniformProfile("Energy", 0.5)},
		{"empty company sector", model.CompanyRecord{Ticker: "X"}, uniformProfile("", 0.5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Evaluate(tt.company, tt.profile, completeMetrics(1.0))
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, IsUnknownSector(err))
			assert.False(t, IsInvalidWeight(err))
		})
	}
}

func TestEvaluate_SectorMatchIsCaseInsensitive(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Evaluate(testCompany, uniformProfile("technology", 0.5), nil)
	assert.NoError(t, err)
}

func TestEvaluate_InvalidWeight(t *testing.T) {
	e := newTestEngine(t)

	for _, w := range []float64{-0.1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		profile := uniformProfile("Technology", 0.5)
		profile.Factors[model.DimensionCapitalFlow] = []model.RiskFactor{
			{Name: "ok", Weight: 1, Value: 0.5},
			{Name: "broken", Weight: w, Value: 0.5},
		}
		res, err := e.Evaluate(testCompany, profile, completeMetrics(1.0))
		require.Error(t, err, "weight %v", w)
		assert.Nil(t, res)
		assert.True(t, IsInvalidWeight(err))
		assert.Contains(t, err.Error(), "broken")
	}
}

func TestEvaluate_Recommendation(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name    string
		value   float64
		metrics *model.FinancialMetrics
		want    model.Recommendation
	}{
		{"high score low vol", 0.9, completeMetrics(1.0), model.RecommendationBuy},
		{"high score mid vol", 0.9, completeMetrics(3.0), model.RecommendationHold},
		{"high score high vol", 0.9, completeMetrics(5.0), model.RecommendationSell},
		{"middle score", 0.55, completeMetrics(1.0), model.RecommendationHold},
		{"low score", 0.2, completeMetrics(1.0), model.RecommendationSell},
		{"high score no metrics", 0.9, nil, model.RecommendationBuy},
		{"low score no metrics", 0.1, nil, model.RecommendationSell},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Evaluate(testCompany, uniformProfile("Technology", tt.value), tt.metrics)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Recommendation)
		})
	}
}

func TestEvaluate_Confidence(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name    string
		value   float64
		metrics *model.FinancialMetrics
		want    model.Confidence
	}{
		{"far above buy", 0.95, completeMetrics(1.0), model.ConfidenceHigh},
		{"far below sell", 0.1, completeMetrics(1.0), model.ConfidenceHigh},
		{"moderately inside hold band", 0.62, completeMetrics(1.0), model.ConfidenceMedium},
		{"near buy threshold", 0.68, completeMetrics(1.0), model.ConfidenceLow},
		{"far above buy, no metrics", 0.95, nil, model.ConfidenceMedium},
		{"moderate, partial metrics", 0.62, &model.FinancialMetrics{VolatilityPct: model.Float64(1)}, model.ConfidenceLow},
		{"near threshold stays low", 0.68, nil, model.ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Evaluate(testCompany, uniformProfile("Technology", tt.value), tt.metrics)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Confidence)
		})
	}
}

func TestEvaluate_MissingMetricsReported(t *testing.T) {
	e := newTestEngine(t)

	res, err := e.Evaluate(testCompany, uniformProfile("Technology", 0.5), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{model.MetricVolatility, model.MetricReturn, model.MetricMaxDrawdown}, res.MissingMetrics)
	assert.Contains(t, res.Insights, "Incomplete market data: volatility, return, max_drawdown")
}

func TestEvaluate_Insights(t *testing.T) {
	e := newTestEngine(t)
	profile := &model.SectorProfile{
		Sector: "Technology",
		Factors: map[model.Dimension][]model.RiskFactor{
			model.DimensionGeopolitical: {{Name: "a", Weight: 1, Value: 0.2}},
			model.DimensionSupplyChain:  {{Name: "b", Weight: 1, Value: 0.55}},
			model.DimensionCapitalFlow:  {{Name: "c", Weight: 1, Value: 0.9}},
		},
	}
	metrics := &model.FinancialMetrics{
		VolatilityPct:       model.Float64(4.5),
		AnnualizedReturnPct: model.Float64(-12.5),
		MaxDrawdownPct:      model.Float64(-35),
	}

	res, err := e.Evaluate(testCompany, profile, metrics)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Weak geopolitical outlook (0.20)",
		"Strong capital-flow outlook (0.90)",
		"Elevated price volatility (4.50% daily)",
		"Negative annualized return (-12.5%)",
		"Deep drawdown (-35.0%)",
	}, res.Insights)
}

func TestEvaluate_BoundsHoldForRandomInputs(t *testing.T) {
	e := newTestEngine(t)
	rng := rand.New(rand.NewPCG(42, 7))

	for i := 0; i < 500; i++ {
		profile := &model.SectorProfile{Sector: "Technology", Factors: map[model.Dimension][]model.RiskFactor{}}
		for _, d := range model.Dimensions() {
			n := rng.IntN(6)
			for j := 0; j < n; j++ {
				profile.Factors[d] = append(profile.Factors[d], model.RiskFactor{
					Name:   "f",
					Weight: rng.Float64() * 2,
					Value:  rng.Float64()*1.6 - 0.3,
				})
			}
		}
		res, err := e.Evaluate(testCompany, profile, completeMetrics(rng.Float64()*6))
		require.NoError(t, err)
		for _, d := range model.Dimensions() {
			v := res.SubScores.Get(d)
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
		assert.GreaterOrEqual(t, res.Overall, 0.0)
		assert.LessOrEqual(t, res.Overall, 1.0)
	}
}

func TestEvaluate_RecommendationMonotonicInScore(t *testing.T) {
	e := newTestEngine(t)

	for _, vol := range []*float64{nil, model.Float64(0.5), model.Float64(2.0), model.Float64(3.0), model.Float64(4.0), model.Float64(8.0)} {
		metrics := &model.FinancialMetrics{VolatilityPct: vol}
		prev := -1
		for step := 0; step <= 100; step++ {
			v := float64(step) / 100
			res, err := e.Evaluate(testCompany, uniformProfile("Technology", v), metrics)
			require.NoError(t, err)
			rank := res.Recommendation.Rank()
			assert.GreaterOrEqual(t, rank, prev, "score %.2f moved toward Sell", v)
			prev = rank
		}
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := newTestEngine(t)
	profile := uniformProfile("Technology", 0.63)
	profile.Factors[model.DimensionGeopolitical] = append(profile.Factors[model.DimensionGeopolitical],
		model.RiskFactor{Name: "extra", Weight: 0.4, Value: 0.1})
	metrics := completeMetrics(2.5)

	first, err := e.Evaluate(testCompany, profile, metrics)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := e.Evaluate(testCompany, profile, metrics)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNewEngine_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SupplyChainWeight = -1

	e, err := NewEngine(cfg)
	require.Error(t, err)
	assert.Nil(t, e)
	assert.True(t, IsInvalidWeight(err))
}

func TestValidateProfile(t *testing.T) {
	assert.NoError(t, ValidateProfile(uniformProfile("Energy", 0.3)))
	assert.True(t, IsUnknownSector(ValidateProfile(nil)))

	bad := uniformProfile("Energy", 0.3)
	bad.Factors[model.DimensionGeopolitical][0].Weight = -2
	assert.True(t, IsInvalidWeight(ValidateProfile(bad)))
}
