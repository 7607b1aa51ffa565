package main

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/strategy-cli/internal/analysis"
	"github.com/sells-group/strategy-cli/internal/catalog"
	"github.com/sells-group/strategy-cli/internal/config"
	"github.com/sells-group/strategy-cli/internal/market"
	"github.com/sells-group/strategy-cli/internal/resilience"
	"github.com/sells-group/strategy-cli/internal/scorer"
	"github.com/sells-group/strategy-cli/pkg/yahoo"
)

// appEnv holds the services shared by the commands.
type appEnv struct {
	Catalog  *catalog.Catalog
	Engine   *scorer.Engine
	Market   *market.Service
	Analysis *analysis.Service
}

// initApp builds the catalog, scoring engine, market client and analysis
// service from cfg.
func initApp(c *config.Config) (*appEnv, error) {
	engine, err := scorer.NewEngine(c.Scoring)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load(c.Catalog.Path)
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(c.Market.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := yahoo.NewClient(
		yahoo.WithBaseURL(c.Market.BaseURL),
		yahoo.WithHTTPClient(&http.Client{Timeout: timeout}),
		yahoo.WithRateLimit(c.Market.RequestsPerSecond),
		yahoo.WithBackoff(resilience.BackoffFromConfig(c.Market)),
	)
	mkt := market.NewService(client, c.Market)

	svc := analysis.NewService(engine, cat, cat, mkt,
		analysis.WithMaxConcurrency(c.Portfolio.MaxConcurrency),
		analysis.WithMaxCompanies(c.Portfolio.MaxCompanies),
	)

	return &appEnv{Catalog: cat, Engine: engine, Market: mkt, Analysis: svc}, nil
}

// openOutput returns stdout, or a created file when path is set.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, eris.Wrapf(err, "create output file %s", path)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
