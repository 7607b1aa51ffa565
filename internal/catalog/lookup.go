package catalog

import (
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/sells-group/strategy-cli/internal/model"
)

// minPrefixLen is the shortest query allowed to match a name by prefix.
const minPrefixLen = 3

type companyEntry struct {
	Company
	ticker string
	names  []string // folded name followed by folded aliases
}

func newCompanyEntry(co Company) companyEntry {
	e := companyEntry{Company: co, ticker: fold(co.Ticker)}
	e.names = append(e.names, normalize(co.Name))
	for _, a := range co.Aliases {
		if n := normalize(a); n != "" {
			e.names = append(e.names, n)
		}
	}
	return e
}

// Lookup resolves a free-text company query to a CompanyRecord. Matching
// is case-folded and tried in order: ticker, exact name or alias, longest
// name contained in the query as whole words, then name prefix. Ties go to
// the entry listed first in the catalog.
func (c *Catalog) Lookup(query string) (model.CompanyRecord, error) {
	q := normalize(query)
	if q == "" {
		return model.CompanyRecord{}, eris.Wrap(ErrCompanyNotFound, "catalog: empty query")
	}

	e, ok := c.match(fold(strings.TrimSpace(query)), q)
	if !ok {
		return model.CompanyRecord{}, eris.Wrapf(ErrCompanyNotFound, "catalog: %q", query)
	}

	sector := e.Sector
	if sector == "" {
		sector = c.Classify(e.Name)
	} else if s, ok := c.Sector(sector); ok {
		sector = s.Name
	}
	return model.CompanyRecord{Ticker: e.Ticker, Name: e.Name, Sector: sector}, nil
}

func (c *Catalog) match(rawTicker, q string) (*companyEntry, bool) {
	for i := range c.companies {
		if c.companies[i].ticker == rawTicker {
			return &c.companies[i], true
		}
	}

	for i := range c.companies {
		for _, n := range c.companies[i].names {
			if n == q {
				return &c.companies[i], true
			}
		}
	}

	var best *companyEntry
	bestLen := 0
	for i := range c.companies {
		for _, n := range c.companies[i].names {
			if len(n) > bestLen && containsWords(q, n) {
				best, bestLen = &c.companies[i], len(n)
			}
		}
	}
	if best != nil {
		return best, true
	}

	if len(q) >= minPrefixLen {
		for i := range c.companies {
			for _, n := range c.companies[i].names {
				if strings.HasPrefix(n, q) {
					return &c.companies[i], true
				}
			}
		}
	}
	return nil, false
}

// Classify assigns a sector to a company name by keyword. A keyword matches
// when it starts a word of the name. Sectors are tried in catalog order and
// names matching nothing are classified as SectorOther.
func (c *Catalog) Classify(name string) string {
	n := normalize(name)
	if n == "" {
		return SectorOther
	}
	padded := " " + n
	for _, s := range c.doc.Sectors {
		for _, kw := range s.Keywords {
			k := normalize(kw)
			if k != "" && strings.Contains(padded, " "+k) {
				return s.Name
			}
		}
	}
	return SectorOther
}

// containsWords reports whether needle occurs in haystack on word boundaries.
func containsWords(haystack, needle string) bool {
	return strings.Contains(" "+haystack+" ", " "+needle+" ")
}

// normalize case-folds s, turns punctuation into spaces and collapses runs
// of whitespace. '&' is kept so names like "at&t" survive.
func normalize(s string) string {
	s = fold(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '&' {
			return r
		}
		if r == '\'' {
			return -1
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func fold(s string) string {
	// Casers keep state, so one is built per call.
	return cases.Fold().String(strings.TrimSpace(s))
}
