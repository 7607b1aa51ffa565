package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 60, cfg.Server.RequestTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, DefaultScoring(), cfg.Scoring)
	assert.InDelta(t, 0.4, cfg.Scoring.GeopoliticalWeight, 0.001)
	assert.InDelta(t, 0.7, cfg.Scoring.BuyThreshold, 0.001)
	assert.InDelta(t, -20.0, cfg.Scoring.DeepDrawdownPct, 0.001)

	assert.Equal(t, "https://query1.finance.yahoo.com", cfg.Market.BaseURL)
	assert.Equal(t, "1y", cfg.Market.Range)
	assert.Equal(t, "1d", cfg.Market.Interval)
	assert.Equal(t, 15, cfg.Market.CacheTTLMins)
	assert.Equal(t, 3, cfg.Market.RetryMaxAttempts)

	assert.Equal(t, 4, cfg.Portfolio.MaxConcurrency)
	assert.Equal(t, 50, cfg.Portfolio.MaxCompanies)
	assert.Empty(t, cfg.Catalog.Path)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
  format: console
server:
  port: 9090
scoring:
  buy_threshold: 0.75
  sell_threshold: 0.35
catalog:
  path: /etc/strategy/catalog.yaml
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.InDelta(t, 0.75, cfg.Scoring.BuyThreshold, 0.001)
	assert.InDelta(t, 0.35, cfg.Scoring.SellThreshold, 0.001)
	assert.Equal(t, "/etc/strategy/catalog.yaml", cfg.Catalog.Path)
	// Defaults still apply for unset values
	assert.InDelta(t, 0.4, cfg.Scoring.GeopoliticalWeight, 0.001)
	assert.Equal(t, "1y", cfg.Market.Range)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
log:
  level: debug
market:
  range: 6mo
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("STRATEGY_LOG_LEVEL", "warn")
	t.Setenv("STRATEGY_MARKET_RANGE", "3mo")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "3mo", cfg.Market.Range)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("STRATEGY_SERVER_PORT", "3000")
	t.Setenv("STRATEGY_SCORING_BUY_THRESHOLD", "0.8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.InDelta(t, 0.8, cfg.Scoring.BuyThreshold, 0.001)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unterminated"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Market.BaseURL = "https://query1.finance.yahoo.com"
	cfg.Market.Range = "1y"
	cfg.Market.RequestsPerSecond = 2
	cfg.Portfolio.MaxConcurrency = 4
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, validDefaults().Validate())
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidate_MarketFields(t *testing.T) {
	cfg := validDefaults()
	cfg.Market.BaseURL = ""
	cfg.Market.Range = ""
	cfg.Market.RequestsPerSecond = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market.base_url is required")
	assert.Contains(t, err.Error(), "market.range is required")
	assert.Contains(t, err.Error(), "market.requests_per_second")
}

func TestValidate_Portfolio(t *testing.T) {
	cfg := validDefaults()
	cfg.Portfolio.MaxConcurrency = 0
	cfg.Portfolio.MaxCompanies = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "portfolio.max_concurrency")
	assert.Contains(t, err.Error(), "portfolio.max_companies")
}
