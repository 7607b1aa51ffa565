// Package report renders portfolio analyses as table, CSV, JSON or XLSX and
// reads company lists for batch runs.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/strategy-cli/internal/analysis"
	"github.com/sells-group/strategy-cli/internal/model"
)

// Supported output formats.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatXLSX  = "xlsx"
)

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatTable, FormatCSV, FormatJSON, FormatXLSX}
}

var columns = []string{
	"query", "ticker", "name", "sector",
	"geopolitical", "supply_chain", "capital_flow", "overall",
	"recommendation", "confidence",
	"price", "volatility_pct", "annualized_return_pct", "max_drawdown_pct",
	"missing_metrics",
}

// Write renders r to w in the given format.
func Write(w io.Writer, r *analysis.Report, format string) error {
	switch strings.ToLower(format) {
	case FormatTable, "":
		return writeTable(w, r)
	case FormatCSV:
		return writeCSV(w, r)
	case FormatJSON:
		return writeJSON(w, r)
	case FormatXLSX:
		return writeXLSX(w, r)
	default:
		return eris.Errorf("report: unsupported format %q", format)
	}
}

func row(a analysis.Analysis) []string {
	res := a.Result
	out := []string{
		a.Query,
		a.Company.Ticker,
		a.Company.Name,
		res.Sector,
		fmt.Sprintf("%.3f", res.SubScores.Geopolitical),
		fmt.Sprintf("%.3f", res.SubScores.SupplyChain),
		fmt.Sprintf("%.3f", res.SubScores.CapitalFlow),
		fmt.Sprintf("%.3f", res.Overall),
		string(res.Recommendation),
		string(res.Confidence),
	}
	var price string
	var vol, ret, dd *float64
	if m := a.Metrics; m != nil {
		price = fmt.Sprintf("%.2f", m.CurrentPrice)
		vol, ret, dd = m.VolatilityPct, m.AnnualizedReturnPct, m.MaxDrawdownPct
	}
	return append(out, price, optional(vol), optional(ret), optional(dd), strings.Join(res.MissingMetrics, ";"))
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func writeCSV(w io.Writer, r *analysis.Report) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return eris.Wrap(err, "report: write CSV header")
	}
	for _, a := range r.Analyses {
		if err := cw.Write(row(a)); err != nil {
			return eris.Wrap(err, "report: write CSV row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush CSV")
}

func writeJSON(w io.Writer, r *analysis.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return eris.Wrap(err, "report: encode JSON")
	}
	return nil
}

func writeTable(w io.Writer, r *analysis.Report) error {
	header := fmt.Sprintf("%-10s %-28s %-20s %6s %6s %6s %7s %-5s %-6s\n",
		"Ticker", "Company", "Sector", "Geo", "Supply", "Flow", "Overall", "Rec", "Conf")
	if _, err := fmt.Fprint(w, header); err != nil {
		return eris.Wrap(err, "report: write table header")
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", 103)); err != nil {
		return eris.Wrap(err, "report: write table separator")
	}

	for _, a := range r.Analyses {
		res := a.Result
		line := fmt.Sprintf("%-10s %-28s %-20s %6.2f %6.2f %6.2f %7.3f %-5s %-6s\n",
			a.Company.Ticker, clip(a.Company.Name, 28), clip(res.Sector, 20),
			res.SubScores.Geopolitical, res.SubScores.SupplyChain, res.SubScores.CapitalFlow,
			res.Overall, res.Recommendation, res.Confidence)
		if _, err := fmt.Fprint(w, line); err != nil {
			return eris.Wrap(err, "report: write table row")
		}
	}

	for _, f := range r.Failures {
		if _, err := fmt.Fprintf(w, "%-10s %s: %s\n", "FAILED", f.Query, f.Error); err != nil {
			return eris.Wrap(err, "report: write table failure")
		}
	}

	s := r.Summary
	_, err := fmt.Fprintf(w, "\nReport %s: %d buy, %d hold, %d sell, %d failed, average score %.3f\n",
		r.ID, s.Buy, s.Hold, s.Sell, s.Failed, s.AverageScore)
	return eris.Wrap(err, "report: write table summary")
}

func writeXLSX(w io.Writer, r *analysis.Report) error {
	f := xlsx.NewFile()

	sheet, err := f.AddSheet("Analyses")
	if err != nil {
		return eris.Wrap(err, "report: add analyses sheet")
	}
	addRow(sheet, columns)
	for _, a := range r.Analyses {
		xr := sheet.AddRow()
		for i, v := range row(a) {
			cell := xr.AddCell()
			if isNumericColumn(i) && v != "" {
				setNumber(cell, v)
				continue
			}
			cell.SetString(v)
		}
	}

	summary, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}
	addRow(summary, []string{"report_id", r.ID})
	addRow(summary, []string{"generated_at", r.GeneratedAt.Format("2006-01-02T15:04:05Z07:00")})
	for _, kv := range []struct {
		k string
		v int
	}{
		{string(model.RecommendationBuy), r.Summary.Buy},
		{string(model.RecommendationHold), r.Summary.Hold},
		{string(model.RecommendationSell), r.Summary.Sell},
		{"Failed", r.Summary.Failed},
	} {
		xr := summary.AddRow()
		xr.AddCell().SetString(kv.k)
		xr.AddCell().SetInt(kv.v)
	}
	xr := summary.AddRow()
	xr.AddCell().SetString("average_score")
	xr.AddCell().SetFloat(r.Summary.AverageScore)

	if len(r.Failures) > 0 {
		failures, err := f.AddSheet("Failures")
		if err != nil {
			return eris.Wrap(err, "report: add failures sheet")
		}
		addRow(failures, []string{"query", "error"})
		for _, fl := range r.Failures {
			addRow(failures, []string{fl.Query, fl.Error})
		}
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write XLSX")
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	xr := sheet.AddRow()
	for _, v := range values {
		xr.AddCell().SetString(v)
	}
}

// isNumericColumn reports whether column i holds a number.
func isNumericColumn(i int) bool {
	return (i >= 4 && i <= 7) || (i >= 10 && i <= 13)
}

func setNumber(cell *xlsx.Cell, v string) {
	var f float64
	if _, err := fmt.Sscanf(v, "%g", &f); err != nil {
		cell.SetString(v)
		return
	}
	cell.SetFloat(f)
}

// clip shortens s to at most n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
