package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	c := defaultCatalogT(t)

	tests := []struct {
		query  string
		ticker string
		sector string
	}{
		{"HSBC", "HSBC.L", "Financial Services"},
		{"hsbc.l", "HSBC.L", "Financial Services"},
		{"  Tesco  ", "TSCO.L", "Retail"},
		{"HSBC Holdings plc", "HSBC.L", "Financial Services"},
		{"Royal Dutch Shell", "SHEL.L", "Energy"},
		{"rolls-royce holdings", "RR.L", "Manufacturing"},
		{"Rolls Royce", "RR.L", "Manufacturing"},
		{"Marks & Spencer", "MKS.L", "Retail"},
		{"Sainsbury's", "SBRY.L", "Retail"},
		{"astra", "AZN.L", "Healthcare"},
		{"BT-A.L", "BT-A.L", "Telecommunications"},
		{"British Telecom", "BT-A.L", "Telecommunications"},
		{"AT&T", "T", "Telecommunications"},
		{"Google", "GOOGL", "Technology"},
		{"british airways", "IAG.L", "Transportation"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec, err := c.Lookup(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.ticker, rec.Ticker)
			assert.Equal(t, tt.sector, rec.Sector)
			assert.NotEmpty(t, rec.Name)
		})
	}
}

func TestLookup_LongestContainedNameWins(t *testing.T) {
	c, err := Parse([]byte(`
catalog:
  sectors:
    - name: Real Estate
  companies:
    - { name: Land, ticker: LND, sector: Real Estate }
    - { name: British Land, ticker: BLND.L, sector: Real Estate }
`))
	require.NoError(t, err)

	rec, err := c.Lookup("british land company")
	require.NoError(t, err)
	assert.Equal(t, "BLND.L", rec.Ticker)
}

func TestLookup_WordBoundaries(t *testing.T) {
	c := defaultCatalogT(t)

	// "bt" must not match inside another word.
	_, err := c.Lookup("abbott laboratories")
	assert.True(t, IsCompanyNotFound(err))
}

func TestLookup_NotFound(t *testing.T) {
	c := defaultCatalogT(t)

	for _, q := range []string{"", "   ", "zz", "Acme Widgets Ltd"} {
		rec, err := c.Lookup(q)
		require.Error(t, err, q)
		assert.True(t, IsCompanyNotFound(err), q)
		assert.Empty(t, rec.Ticker)
	}
}

func TestLookup_ClassifiesWhenSectorUnset(t *testing.T) {
	c, err := Parse([]byte(`
catalog:
  sectors:
    - name: Financial Services
      keywords: [bank]
  companies:
    - { name: Metro Bank, ticker: MTRO.L }
    - { name: Widget Co, ticker: WDG.L }
`))
	require.NoError(t, err)

	rec, err := c.Lookup("metro bank")
	require.NoError(t, err)
	assert.Equal(t, "Financial Services", rec.Sector)

	rec, err = c.Lookup("widget co")
	require.NoError(t, err)
	assert.Equal(t, SectorOther, rec.Sector)
}

func TestClassify(t *testing.T) {
	c := defaultCatalogT(t)

	tests := []struct {
		name string
		want string
	}{
		{"Metro Bank", "Financial Services"},
		{"Banking Group", "Financial Services"},
		{"Darktrace Software", "Technology"},
		{"Hikma Pharmaceuticals", "Healthcare"},
		{"Harbour Energy", "Energy"},
		{"Acme Engineering", "Manufacturing"},
		{"Corner Shop Ltd", "Retail"},
		{"Great Portland Property", "Real Estate"},
		{"Reckitt Consumer Health", "Healthcare"},
		{"Fresnillo Mining", "Mining"},
		{"Vodafone Group", "Telecommunications"},
		{"British Airways", "Transportation"},
		{"Widget Co", SectorOther},
		{"", SectorOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.name))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "marks & spencer", normalize("  MARKS &   Spencer "))
	assert.Equal(t, "sainsburys", normalize("Sainsbury's"))
	assert.Equal(t, "rolls royce", normalize("Rolls-Royce"))
	assert.Equal(t, "", normalize("  "))
}
