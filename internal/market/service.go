package market

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/strategy-cli/internal/catalog"
	"github.com/sells-group/strategy-cli/internal/config"
	"github.com/sells-group/strategy-cli/internal/model"
	"github.com/sells-group/strategy-cli/internal/resilience"
	"github.com/sells-group/strategy-cli/pkg/yahoo"
)

// overviewConcurrency bounds parallel fetches for the market overview.
const overviewConcurrency = 4

// Service fetches price history through a circuit breaker and caches it.
// It is safe for concurrent use.
type Service struct {
	client   yahoo.Client
	breaker  *resilience.Breaker
	cache    *cache.Cache
	rng      string
	interval string
}

// NewService creates a Service backed by client.
func NewService(client yahoo.Client, cfg config.MarketConfig) *Service {
	ttl := time.Duration(cfg.CacheTTLMins) * time.Minute
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	bc := resilience.BreakerFromConfig(cfg)
	bc.Trips = resilience.IsTransient

	rng, interval := cfg.Range, cfg.Interval
	if rng == "" {
		rng = "1y"
	}
	if interval == "" {
		interval = "1d"
	}

	return &Service{
		client:   client,
		breaker:  resilience.NewBreaker(bc),
		cache:    cache.New(ttl, 2*ttl),
		rng:      rng,
		interval: interval,
	}
}

// History returns the chart for symbol over rangeSpec, or the configured
// range when rangeSpec is empty. Results are cached per symbol and range.
func (s *Service) History(ctx context.Context, symbol, rangeSpec string) (*yahoo.Chart, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, eris.New("market: empty symbol")
	}
	if rangeSpec == "" {
		rangeSpec = s.rng
	}

	key := symbol + "|" + rangeSpec + "|" + s.interval
	if v, ok := s.cache.Get(key); ok {
		return v.(*yahoo.Chart), nil
	}

	chart, err := resilience.Call(ctx, s.breaker, func(ctx context.Context) (*yahoo.Chart, error) {
		return s.client.Chart(ctx, symbol, rangeSpec, s.interval)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "market: history %s", symbol)
	}

	s.cache.SetDefault(key, chart)
	return chart, nil
}

// Metrics returns FinancialMetrics for ticker over the configured range.
func (s *Service) Metrics(ctx context.Context, ticker string) (*model.FinancialMetrics, error) {
	chart, err := s.History(ctx, ticker, "")
	if err != nil {
		return nil, err
	}
	m := ComputeMetrics(chart.Closes())
	if m == nil {
		return nil, eris.Wrapf(yahoo.ErrNoData, "market: no closes for %s", ticker)
	}
	return m, nil
}

// Returns computes return statistics for symbol over rangeSpec.
func (s *Service) Returns(ctx context.Context, symbol, rangeSpec string) (*ReturnStats, error) {
	chart, err := s.History(ctx, symbol, rangeSpec)
	if err != nil {
		return nil, err
	}
	stats, err := ComputeReturnStats(chart.Closes())
	if err != nil {
		return nil, eris.Wrapf(err, "market: returns %s", symbol)
	}
	return stats, nil
}

// IndexQuote is the latest close and daily move of a market index.
type IndexQuote struct {
	Name      string  `json:"name"`
	Symbol    string  `json:"symbol"`
	Currency  string  `json:"currency,omitempty"`
	Last      float64 `json:"last"`
	ChangePct float64 `json:"change_pct"`
	Error     string  `json:"error,omitempty"`
}

// Overview fetches the latest quote for every index. A failed index is
// reported in its Error field rather than failing the overview.
func (s *Service) Overview(ctx context.Context, indices []catalog.Index) []IndexQuote {
	out := make([]IndexQuote, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewConcurrency)

	for i, idx := range indices {
		out[i] = IndexQuote{Name: idx.Name, Symbol: idx.Symbol}
		g.Go(func() error {
			chart, err := s.History(gctx, idx.Symbol, "")
			if err != nil {
				zap.L().Warn("market: index quote failed",
					zap.String("symbol", idx.Symbol), zap.Error(err))
				out[i].Error = err.Error()
				return nil
			}
			m := ComputeMetrics(chart.Closes())
			if m == nil {
				out[i].Error = "no price data"
				return nil
			}
			out[i].Currency = chart.Currency
			out[i].Last = m.CurrentPrice
			out[i].ChangePct = m.PriceChangePct
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// BreakerState reports the state of the upstream circuit breaker.
func (s *Service) BreakerState() resilience.State {
	return s.breaker.State()
}
