// Package catalog loads the static strategy catalog: sector risk profiles,
// the company-to-ticker map, market indices and strategy commentary.
package catalog

import (
	_ "embed"
	"math"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/strategy-cli/internal/model"
	"github.com/sells-group/strategy-cli/internal/scorer"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// SectorOther is the classification for names that match no sector keyword.
// It has no profile.
const SectorOther = "Other"

// ErrCompanyNotFound is returned when a query matches no catalog company.
var ErrCompanyNotFound = eris.New("company not found")

// IsCompanyNotFound reports whether err is (or wraps) ErrCompanyNotFound.
func IsCompanyNotFound(err error) bool {
	return eris.Is(err, ErrCompanyNotFound)
}

// Index is a market index or currency pair shown in the market overview.
type Index struct {
	Name   string `yaml:"name" json:"name"`
	Symbol string `yaml:"symbol" json:"symbol"`
}

// Sector is a sector definition as written in the catalog.
type Sector struct {
	Name             string                                 `yaml:"name" json:"name"`
	SupplyChainGroup string                                 `yaml:"supply_chain_group" json:"supply_chain_group,omitempty"`
	Adjustments      map[model.Dimension]float64            `yaml:"adjustments" json:"adjustments,omitempty"`
	Factors          map[model.Dimension][]model.RiskFactor `yaml:"factors" json:"factors,omitempty"`
	Keywords         []string                               `yaml:"keywords" json:"keywords,omitempty"`
	Indicators       []model.RiskFactor                     `yaml:"indicators" json:"indicators,omitempty"`
}

// Adjustment returns the multiplier for dimension d (1 when unset).
func (s Sector) Adjustment(d model.Dimension) float64 {
	if v, ok := s.Adjustments[d]; ok {
		return v
	}
	return 1
}

// Company is a catalog entry mapping a name (and aliases) to a ticker.
type Company struct {
	Name    string   `yaml:"name" json:"name"`
	Aliases []string `yaml:"aliases" json:"aliases,omitempty"`
	Ticker  string   `yaml:"ticker" json:"ticker"`
	Sector  string   `yaml:"sector" json:"sector,omitempty"`
}

// ConvictionGroup lists strategy recommendations at one conviction level.
type ConvictionGroup struct {
	Level string   `yaml:"level" json:"level"`
	Items []string `yaml:"items" json:"items"`
}

// MitigationGroup lists mitigation strategies for one risk type.
type MitigationGroup struct {
	Risk       string   `yaml:"risk" json:"risk"`
	Strategies []string `yaml:"strategies" json:"strategies"`
}

// Commentary is the editorial strategy guidance.
type Commentary struct {
	Recommendations []ConvictionGroup `yaml:"recommendations" json:"recommendations"`
	Mitigation      []MitigationGroup `yaml:"mitigation" json:"mitigation"`
}

// ScalePoint anchors the linear mapping from a catalog risk value to the
// outlook score the engine consumes.
type ScalePoint struct {
	Risk    float64 `yaml:"risk" json:"risk"`
	Outlook float64 `yaml:"outlook" json:"outlook"`
}

type document struct {
	Indices           []Index                                `yaml:"indices"`
	RiskScale         []ScalePoint                           `yaml:"risk_scale"`
	Base              map[model.Dimension][]model.RiskFactor `yaml:"base"`
	SupplyChainGroups map[string][]model.RiskFactor          `yaml:"supply_chain_groups"`
	Sectors           []Sector                               `yaml:"sectors"`
	Companies         []Company                              `yaml:"companies"`
	Commentary        Commentary                             `yaml:"commentary"`
}

// Catalog is the immutable, parsed catalog. It is safe for concurrent use.
type Catalog struct {
	doc       document
	profiles  map[string]*model.SectorProfile // keyed by folded sector name
	sectors   map[string]int                  // folded name -> index into doc.Sectors
	companies []companyEntry
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document. Every sector profile is
// materialized and checked for invalid weights up front.
func Parse(data []byte) (*Catalog, error) {
	// The YAML has a top-level "catalog" key
	var wrapper struct {
		Catalog document `yaml:"catalog"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "catalog: parse")
	}
	doc := wrapper.Catalog
	if len(doc.Sectors) == 0 {
		return nil, eris.New("catalog: no sectors defined")
	}

	c := &Catalog{
		doc:      doc,
		profiles: make(map[string]*model.SectorProfile, len(doc.Sectors)),
		sectors:  make(map[string]int, len(doc.Sectors)),
	}

	for d := range doc.Base {
		if !d.Valid() {
			return nil, eris.Errorf("catalog: unknown dimension %q in base factors", d)
		}
	}

	scale, err := newRiskScale(doc.RiskScale)
	if err != nil {
		return nil, err
	}

	for i, s := range doc.Sectors {
		key := fold(s.Name)
		if key == "" {
			return nil, eris.Errorf("catalog: sector %d has no name", i)
		}
		if key == fold(SectorOther) {
			return nil, eris.Errorf("catalog: sector name %q is reserved", SectorOther)
		}
		if _, dup := c.sectors[key]; dup {
			return nil, eris.Errorf("catalog: duplicate sector %q", s.Name)
		}
		profile, err := doc.materialize(s, scale)
		if err != nil {
			return nil, err
		}
		if err := scorer.ValidateProfile(profile); err != nil {
			return nil, eris.Wrapf(err, "catalog: sector %q", s.Name)
		}
		c.sectors[key] = i
		c.profiles[key] = profile
	}

	for i, co := range doc.Companies {
		if co.Name == "" || co.Ticker == "" {
			return nil, eris.Errorf("catalog: company %d needs both name and ticker", i)
		}
		if co.Sector != "" {
			if _, ok := c.sectors[fold(co.Sector)]; !ok {
				return nil, eris.Errorf("catalog: company %q references unknown sector %q", co.Name, co.Sector)
			}
		}
		c.companies = append(c.companies, newCompanyEntry(co))
	}

	return c, nil
}

// materialize builds the SectorProfile for s: the sector's supply-chain group,
// adjusted base factors, then the sector's own factors. Catalog values are
// risks (higher is worse); every factor leaves here as an outlook.
func (doc document) materialize(s Sector, scale riskScale) (*model.SectorProfile, error) {
	for d, adj := range s.Adjustments {
		if !d.Valid() {
			return nil, eris.Errorf("catalog: sector %q: unknown dimension %q", s.Name, d)
		}
		if math.IsNaN(adj) || math.IsInf(adj, 0) || adj < 0 {
			return nil, eris.Errorf("catalog: sector %q: invalid %s adjustment %v", s.Name, d, adj)
		}
	}
	for d := range s.Factors {
		if !d.Valid() {
			return nil, eris.Errorf("catalog: sector %q: unknown dimension %q", s.Name, d)
		}
	}

	var group []model.RiskFactor
	if s.SupplyChainGroup != "" {
		g, ok := doc.SupplyChainGroups[s.SupplyChainGroup]
		if !ok {
			return nil, eris.Errorf("catalog: sector %q: unknown supply chain group %q", s.Name, s.SupplyChainGroup)
		}
		group = g
	}

	p := &model.SectorProfile{
		Sector:  s.Name,
		Factors: make(map[model.Dimension][]model.RiskFactor, 3),
	}
	for _, d := range model.Dimensions() {
		adj := s.Adjustment(d)
		var factors []model.RiskFactor
		if d == model.DimensionSupplyChain {
			factors = appendOutlook(factors, group, adj, scale)
		}
		factors = appendOutlook(factors, doc.Base[d], adj, scale)
		factors = appendOutlook(factors, s.Factors[d], 1, scale)
		if len(factors) > 0 {
			p.Factors[d] = factors
		}
	}
	return p, nil
}

// appendOutlook scales each risk by adj, caps it at 1 and converts it to an
// outlook. NaN values pass through for the engine to neutralize.
func appendOutlook(dst, src []model.RiskFactor, adj float64, scale riskScale) []model.RiskFactor {
	for _, f := range src {
		f.Value = scale.outlook(unit(f.Value * adj))
		dst = append(dst, f)
	}
	return dst
}

// riskScale maps risk to outlook as intercept + slope*risk. The slope is
// always negative so a riskier factor never scores better.
type riskScale struct {
	slope, intercept float64
}

// newRiskScale builds the scale from the catalog anchors. With no anchors a
// risk r becomes 1 - r.
func newRiskScale(points []ScalePoint) (riskScale, error) {
	if len(points) == 0 {
		return riskScale{slope: -1, intercept: 1}, nil
	}
	if len(points) != 2 {
		return riskScale{}, eris.Errorf("catalog: risk_scale needs exactly 2 points, got %d", len(points))
	}
	for _, p := range points {
		if !finite(p.Risk) || !finite(p.Outlook) {
			return riskScale{}, eris.Errorf("catalog: risk_scale point %+v is not finite", p)
		}
	}
	a, b := points[0], points[1]
	if a.Risk == b.Risk {
		return riskScale{}, eris.Errorf("catalog: risk_scale points share risk %v", a.Risk)
	}
	slope := (b.Outlook - a.Outlook) / (b.Risk - a.Risk)
	if slope >= 0 {
		return riskScale{}, eris.New("catalog: risk_scale must lower the outlook as risk rises")
	}
	return riskScale{slope: slope, intercept: a.Outlook - slope*a.Risk}, nil
}

func (s riskScale) outlook(risk float64) float64 {
	return unit(s.intercept + s.slope*risk)
}

// unit bounds v to [0,1], leaving NaN alone.
func unit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Profile returns the SectorProfile for sector. Matching is case-insensitive.
// The returned profile is a copy the caller may keep.
func (c *Catalog) Profile(sector string) (*model.SectorProfile, error) {
	p, ok := c.profiles[fold(sector)]
	if !ok {
		return nil, eris.Wrapf(scorer.ErrUnknownSector, "catalog: no profile for sector %q", sector)
	}
	return cloneProfile(p), nil
}

// Sector returns the catalog definition for a sector name.
func (c *Catalog) Sector(name string) (Sector, bool) {
	i, ok := c.sectors[fold(name)]
	if !ok {
		return Sector{}, false
	}
	return c.doc.Sectors[i], true
}

// Sectors returns all sector definitions in catalog order.
func (c *Catalog) Sectors() []Sector {
	out := make([]Sector, len(c.doc.Sectors))
	copy(out, c.doc.Sectors)
	return out
}

// SectorNames returns the configured sector names, sorted.
func (c *Catalog) SectorNames() []string {
	names := make([]string, 0, len(c.doc.Sectors))
	for _, s := range c.doc.Sectors {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// Companies returns all company entries in catalog order.
func (c *Catalog) Companies() []Company {
	out := make([]Company, 0, len(c.companies))
	for _, e := range c.companies {
		out = append(out, e.Company)
	}
	return out
}

// Indices returns the market indices in catalog order.
func (c *Catalog) Indices() []Index {
	out := make([]Index, len(c.doc.Indices))
	copy(out, c.doc.Indices)
	return out
}

// Commentary returns the strategy commentary.
func (c *Catalog) Commentary() Commentary {
	return c.doc.Commentary
}

func cloneProfile(p *model.SectorProfile) *model.SectorProfile {
	out := &model.SectorProfile{
		Sector:  p.Sector,
		Factors: make(map[model.Dimension][]model.RiskFactor, len(p.Factors)),
	}
	for d, fs := range p.Factors {
		out.Factors[d] = append([]model.RiskFactor(nil), fs...)
	}
	return out
}
