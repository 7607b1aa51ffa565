package report

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// headerNames are first-row values treated as a column header and skipped.
var headerNames = map[string]bool{
	"company": true, "companies": true, "name": true, "query": true, "ticker": true, "symbol": true,
}

// ReadQueries reads company queries from the first column of a file. The
// format follows the extension: .xlsx (first sheet), .csv, otherwise one
// query per line. Blank entries and a header row are skipped.
func ReadQueries(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSXQueries(path)
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "report: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return readCSVQueries(f)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "report: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return readLineQueries(f)
	}
}

func readXLSXQueries(path string) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "report: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("report: %s has no sheets", path)
	}

	var first []string
	for _, r := range f.Sheets[0].Rows {
		if r == nil || len(r.Cells) == 0 {
			continue
		}
		first = append(first, r.Cells[0].String())
	}
	return cleanQueries(first), nil
}

func readCSVQueries(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var first []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "report: read csv")
		}
		if len(rec) > 0 {
			first = append(first, rec[0])
		}
	}
	return cleanQueries(first), nil
}

func readLineQueries(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "report: read lines")
	}
	return cleanQueries(lines), nil
}

func cleanQueries(values []string) []string {
	var out []string
	for i, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if i == 0 && headerNames[strings.ToLower(v)] {
			continue
		}
		out = append(out, v)
	}
	return out
}
