package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/strategy-cli/internal/analysis"
	"github.com/sells-group/strategy-cli/internal/catalog"
	"github.com/sells-group/strategy-cli/internal/market"
	"github.com/sells-group/strategy-cli/internal/model"
	"github.com/sells-group/strategy-cli/internal/report"
	"github.com/sells-group/strategy-cli/internal/resilience"
	"github.com/sells-group/strategy-cli/internal/scorer"
	"github.com/sells-group/strategy-cli/pkg/yahoo"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"sectors": len(s.catalog.Sectors()),
	}
	if s.market != nil {
		resp["market_circuit"] = s.market.BreakerState().String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIndices(w http.ResponseWriter, r *http.Request) {
	if s.market == nil {
		writeError(w, http.StatusServiceUnavailable, "market data disabled")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"indices": s.market.Overview(r.Context(), s.catalog.Indices()),
	})
}

func (s *Server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Commentary())
}

type sectorSummary struct {
	Name             string          `json:"name"`
	SupplyChainGroup string          `json:"supply_chain_group,omitempty"`
	SubScores        model.SubScores `json:"sub_scores"`
	Overall          float64         `json:"overall"`
}

func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	var out []sectorSummary
	for _, sec := range s.catalog.Sectors() {
		res, err := s.sectorScore(sec.Name)
		if err != nil {
			writeErr(w, err, http.StatusInternalServerError)
			return
		}
		out = append(out, sectorSummary{
			Name:             sec.Name,
			SupplyChainGroup: sec.SupplyChainGroup,
			SubScores:        res.SubScores,
			Overall:          res.Overall,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"sectors": out})
}

type sectorDetail struct {
	catalog.Sector
	Profile *model.SectorProfile `json:"profile"`
	Score   *model.ScoreResult   `json:"score"`
}

func (s *Server) handleSector(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "sector")
	sec, ok := s.catalog.Sector(name)
	if !ok {
		writeError(w, http.StatusNotFound, eris.Wrapf(scorer.ErrUnknownSector, "api: sector %q", name).Error())
		return
	}
	profile, err := s.catalog.Profile(sec.Name)
	if err != nil {
		writeErr(w, err, http.StatusInternalServerError)
		return
	}
	res, err := s.sectorScore(sec.Name)
	if err != nil {
		writeErr(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sectorDetail{Sector: sec, Profile: profile, Score: res})
}

// sectorScore scores a sector's profile with no market data.
func (s *Server) sectorScore(sector string) (*model.ScoreResult, error) {
	profile, err := s.catalog.Profile(sector)
	if err != nil {
		return nil, err
	}
	return s.analysis.Engine().Evaluate(model.CompanyRecord{Sector: profile.Sector}, profile, nil)
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	sector := r.URL.Query().Get("sector")
	var out []catalog.Company
	for _, c := range s.catalog.Companies() {
		if sector != "" && !strings.EqualFold(c.Sector, sector) {
			continue
		}
		out = append(out, c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"companies": out})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.analysis.Analyze(r.Context(), pathParam(r, "query"))
	if err != nil {
		writeErr(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type evaluateRequest struct {
	Ticker  string                  `json:"ticker"`
	Name    string                  `json:"name"`
	Sector  string                  `json:"sector"`
	Profile *model.SectorProfile    `json:"profile,omitempty"`
	Metrics *model.FinancialMetrics `json:"metrics,omitempty"`
}

// handleEvaluate scores a caller-supplied profile, or the catalog profile of
// the named sector, against optional metrics.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	profile := req.Profile
	if profile == nil {
		p, err := s.catalog.Profile(req.Sector)
		if err != nil {
			writeErr(w, err, http.StatusInternalServerError)
			return
		}
		profile = p
	} else if profile.Sector == "" {
		profile.Sector = req.Sector
	}

	company := model.CompanyRecord{Ticker: req.Ticker, Name: req.Name, Sector: req.Sector}
	if company.Sector == "" {
		company.Sector = profile.Sector
	}

	res, err := s.analysis.Engine().Evaluate(company, profile, req.Metrics)
	if err != nil {
		writeErr(w, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type portfolioRequest struct {
	Companies []string `json:"companies"`
}

// handlePortfolio analyzes a list of companies. The format query parameter
// selects json (default), csv or xlsx output.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if !decodeBody(w, r, &req) {
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	var contentType string
	switch format {
	case "", report.FormatJSON:
	case report.FormatCSV:
		contentType = "text/csv"
	case report.FormatXLSX:
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		writeError(w, http.StatusBadRequest, "unsupported format "+format)
		return
	}

	rep, err := s.analysis.AnalyzePortfolio(r.Context(), req.Companies)
	if err != nil {
		writeErr(w, err, http.StatusInternalServerError)
		return
	}

	if contentType == "" {
		writeJSON(w, http.StatusOK, rep)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="portfolio-`+rep.ID+`.`+format+`"`)
	if err := report.Write(w, rep, format); err != nil {
		zap.L().Error("api: write portfolio report", zap.Error(err))
	}
}

func (s *Server) handleReturns(w http.ResponseWriter, r *http.Request) {
	if s.market == nil {
		writeError(w, http.StatusServiceUnavailable, "market data disabled")
		return
	}
	symbol := pathParam(r, "symbol")
	stats, err := s.market.Returns(r.Context(), symbol, r.URL.Query().Get("range"))
	if err != nil {
		writeErr(w, err, http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"symbol": strings.ToUpper(symbol),
		"stats":  stats,
	})
}

func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes. Unrecognized errors get
// fallback.
func statusFor(err error, fallback int) int {
	switch {
	case catalog.IsCompanyNotFound(err), yahoo.IsNoData(err):
		return http.StatusNotFound
	case scorer.IsUnknownSector(err), eris.Is(err, market.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case scorer.IsInvalidWeight(err),
		eris.Is(err, analysis.ErrEmptyPortfolio),
		eris.Is(err, analysis.ErrTooManyCompanies):
		return http.StatusBadRequest
	case eris.Is(err, resilience.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case eris.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return fallback
	}
}

func writeErr(w http.ResponseWriter, err error, fallback int) {
	status := statusFor(err, fallback)
	if status >= http.StatusInternalServerError {
		zap.L().Error("api: request failed", zap.Int("status", status), zap.Error(err))
	}
	writeError(w, status, err.Error())
}

// writeJSON encodes before writing the header so an unencodable value turns
// into a 500 instead of a 200 with an empty body.
func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
		status = http.StatusInternalServerError
		body = []byte(`{"error":"api: encode response"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
