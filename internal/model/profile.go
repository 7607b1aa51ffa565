package model

// Dimension is one of the three risk axes a sector profile is scored on.
type Dimension string

const (
	DimensionGeopolitical Dimension = "geopolitical"
	DimensionSupplyChain  Dimension = "supply_chain"
	DimensionCapitalFlow  Dimension = "capital_flow"
)

// Dimensions returns the scoring dimensions in their canonical order.
func Dimensions() []Dimension {
	return []Dimension{DimensionGeopolitical, DimensionSupplyChain, DimensionCapitalFlow}
}

// Label returns a human-readable name for the dimension.
func (d Dimension) Label() string {
	switch d {
	case DimensionGeopolitical:
		return "geopolitical"
	case DimensionSupplyChain:
		return "supply-chain"
	case DimensionCapitalFlow:
		return "capital-flow"
	default:
		return string(d)
	}
}

// Valid reports whether d is a known dimension.
func (d Dimension) Valid() bool {
	switch d {
	case DimensionGeopolitical, DimensionSupplyChain, DimensionCapitalFlow:
		return true
	}
	return false
}

// RiskFactor is a single analyst-assigned factor within a dimension.
type RiskFactor struct {
	Name   string  `json:"name" yaml:"name"`
	Weight float64 `json:"weight" yaml:"weight"`
	Value  float64 `json:"value" yaml:"value"`
}

// SectorProfile holds the risk factors that apply to a sector, per dimension.
type SectorProfile struct {
	Sector  string                     `json:"sector"`
	Factors map[Dimension][]RiskFactor `json:"factors"`
}

// FactorsFor returns the factors configured for dimension d.
func (p *SectorProfile) FactorsFor(d Dimension) []RiskFactor {
	if p == nil || p.Factors == nil {
		return nil
	}
	return p.Factors[d]
}
