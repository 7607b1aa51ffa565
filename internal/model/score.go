package model

// Recommendation is the discrete buy/hold/sell suggestion.
type Recommendation string

const (
	RecommendationBuy  Recommendation = "Buy"
	RecommendationHold Recommendation = "Hold"
	RecommendationSell Recommendation = "Sell"
)

// Rank orders recommendations from Sell (0) to Buy (2).
func (r Recommendation) Rank() int {
	switch r {
	case RecommendationSell:
		return 0
	case RecommendationHold:
		return 1
	case RecommendationBuy:
		return 2
	default:
		return -1
	}
}

// Confidence is a qualitative reliability indicator for a recommendation.
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// Lower returns the next lower confidence level. Low stays Low.
func (c Confidence) Lower() Confidence {
	switch c {
	case ConfidenceHigh:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// SubScores holds the per-dimension weighted averages.
type SubScores struct {
	Geopolitical float64 `json:"geopolitical"`
	SupplyChain  float64 `json:"supply_chain"`
	CapitalFlow  float64 `json:"capital_flow"`
}

// Get returns the sub-score for dimension d.
func (s SubScores) Get(d Dimension) float64 {
	switch d {
	case DimensionGeopolitical:
		return s.Geopolitical
	case DimensionSupplyChain:
		return s.SupplyChain
	case DimensionCapitalFlow:
		return s.CapitalFlow
	default:
		return 0
	}
}

// ScoreResult is produced fresh for every evaluation and never persisted.
type ScoreResult struct {
	Ticker         string         `json:"ticker"`
	Sector         string         `json:"sector"`
	SubScores      SubScores      `json:"sub_scores"`
	Overall        float64        `json:"overall"`
	Recommendation Recommendation `json:"recommendation"`
	Confidence     Confidence     `json:"confidence"`
	Insights       []string       `json:"insights,omitempty"`
	MissingMetrics []string       `json:"missing_metrics,omitempty"`
}
