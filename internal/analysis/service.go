// Package analysis resolves companies, gathers their market metrics and runs
// them through the scoring engine.
package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/strategy-cli/internal/model"
	"github.com/sells-group/strategy-cli/internal/scorer"
)

// ErrTooManyCompanies is returned when a portfolio exceeds the configured size.
var ErrTooManyCompanies = eris.New("too many companies")

// ErrEmptyPortfolio is returned when a portfolio request names no companies.
var ErrEmptyPortfolio = eris.New("empty portfolio")

// CompanyLookup resolves a free-text query to a catalog company.
type CompanyLookup interface {
	Lookup(query string) (model.CompanyRecord, error)
}

// SectorLookup returns the risk profile for a sector.
type SectorLookup interface {
	Profile(sector string) (*model.SectorProfile, error)
}

// MetricsLookup returns recent financial metrics for a ticker.
type MetricsLookup interface {
	Metrics(ctx context.Context, ticker string) (*model.FinancialMetrics, error)
}

// Analysis is the outcome of analyzing one company.
type Analysis struct {
	Query        string                  `json:"query"`
	Company      model.CompanyRecord     `json:"company"`
	Metrics      *model.FinancialMetrics `json:"metrics,omitempty"`
	MetricsError string                  `json:"metrics_error,omitempty"`
	Result       *model.ScoreResult      `json:"result"`
}

// Option configures a Service.
type Option func(*Service)

// WithMaxConcurrency bounds parallel evaluations in a portfolio.
func WithMaxConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

// WithMaxCompanies caps portfolio size. Zero means unlimited.
func WithMaxCompanies(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxCompanies = n
		}
	}
}

// Service runs company analyses. It is safe for concurrent use.
type Service struct {
	engine    *scorer.Engine
	companies CompanyLookup
	sectors   SectorLookup
	metrics   MetricsLookup

	maxConcurrency int
	maxCompanies   int
	now            func() time.Time
}

// NewService creates a Service. metrics may be nil, in which case every
// analysis runs without market data.
func NewService(engine *scorer.Engine, companies CompanyLookup, sectors SectorLookup, metrics MetricsLookup, opts ...Option) *Service {
	s := &Service{
		engine:         engine,
		companies:      companies,
		sectors:        sectors,
		metrics:        metrics,
		maxConcurrency: 4,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the scoring engine used by the service.
func (s *Service) Engine() *scorer.Engine {
	return s.engine
}

// Analyze resolves query to a company and scores it. A company that cannot
// be found or whose sector has no profile is an error; a market data
// failure only leaves the metrics missing.
func (s *Service) Analyze(ctx context.Context, query string) (*Analysis, error) {
	company, err := s.companies.Lookup(query)
	if err != nil {
		return nil, eris.Wrapf(err, "analysis: lookup %q", query)
	}

	profile, err := s.sectors.Profile(company.Sector)
	if err != nil {
		return nil, eris.Wrapf(err, "analysis: %s", company.Ticker)
	}

	a := &Analysis{Query: query, Company: company}
	if s.metrics != nil {
		m, err := s.metrics.Metrics(ctx, company.Ticker)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "analysis: cancelled")
			}
			zap.L().Warn("analysis: market data unavailable",
				zap.String("ticker", company.Ticker),
				zap.Error(err),
			)
			a.MetricsError = err.Error()
		} else {
			a.Metrics = m
		}
	}

	res, err := s.engine.Evaluate(company, profile, a.Metrics)
	if err != nil {
		return nil, eris.Wrapf(err, "analysis: evaluate %s", company.Ticker)
	}
	a.Result = res
	return a, nil
}

// Failure records a portfolio entry that could not be analyzed.
type Failure struct {
	Query string `json:"query"`
	Error string `json:"error"`
}

// Summary counts recommendations across a portfolio.
type Summary struct {
	Buy          int     `json:"buy"`
	Hold         int     `json:"hold"`
	Sell         int     `json:"sell"`
	Failed       int     `json:"failed"`
	AverageScore float64 `json:"average_score"`
}

// Report is the result of a portfolio analysis.
type Report struct {
	ID          string     `json:"id"`
	GeneratedAt time.Time  `json:"generated_at"`
	Analyses    []Analysis `json:"analyses"`
	Failures    []Failure  `json:"failures,omitempty"`
	Summary     Summary    `json:"summary"`
}

// AnalyzePortfolio analyzes every query in parallel. Entries that fail are
// listed in Failures; analyses keep the order of queries.
func (s *Service) AnalyzePortfolio(ctx context.Context, queries []string) (*Report, error) {
	if len(queries) == 0 {
		return nil, eris.Wrap(ErrEmptyPortfolio, "analysis: portfolio")
	}
	if s.maxCompanies > 0 && len(queries) > s.maxCompanies {
		return nil, eris.Wrapf(ErrTooManyCompanies, "analysis: %d companies exceeds limit of %d", len(queries), s.maxCompanies)
	}

	log := zap.L().With(zap.Int("companies", len(queries)))
	log.Info("analysis: portfolio started")

	results := make([]*Analysis, len(queries))
	errs := make([]error, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)
	for i, q := range queries {
		g.Go(func() error {
			a, err := s.Analyze(gctx, q)
			if err != nil {
				if ctx.Err() != nil {
					return err
				}
				errs[i] = err
				return nil
			}
			results[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "analysis: portfolio")
	}

	report := &Report{
		ID:          uuid.New().String(),
		GeneratedAt: s.now().UTC(),
	}
	var total float64
	for i, a := range results {
		if a == nil {
			report.Failures = append(report.Failures, Failure{Query: queries[i], Error: errs[i].Error()})
			continue
		}
		report.Analyses = append(report.Analyses, *a)
		total += a.Result.Overall
		switch a.Result.Recommendation {
		case model.RecommendationBuy:
			report.Summary.Buy++
		case model.RecommendationHold:
			report.Summary.Hold++
		case model.RecommendationSell:
			report.Summary.Sell++
		}
	}
	report.Summary.Failed = len(report.Failures)
	if n := len(report.Analyses); n > 0 {
		report.Summary.AverageScore = total / float64(n)
	}

	log.Info("analysis: portfolio complete",
		zap.String("report_id", report.ID),
		zap.Int("buy", report.Summary.Buy),
		zap.Int("hold", report.Summary.Hold),
		zap.Int("sell", report.Summary.Sell),
		zap.Int("failed", report.Summary.Failed),
	)
	return report, nil
}
