package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Market    MarketConfig    `yaml:"market" mapstructure:"market"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Portfolio PortfolioConfig `yaml:"portfolio" mapstructure:"portfolio"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ScoringConfig is the recommendation policy applied by the scoring engine.
type ScoringConfig struct {
	// Cross-dimension weights used to combine the three sub-scores.
	GeopoliticalWeight float64 `yaml:"geopolitical_weight" mapstructure:"geopolitical_weight"`
	SupplyChainWeight  float64 `yaml:"supply_chain_weight" mapstructure:"supply_chain_weight"`
	CapitalFlowWeight  float64 `yaml:"capital_flow_weight" mapstructure:"capital_flow_weight"`

	// Overall score thresholds.
	BuyThreshold  float64 `yaml:"buy_threshold" mapstructure:"buy_threshold"`
	SellThreshold float64 `yaml:"sell_threshold" mapstructure:"sell_threshold"`

	// Daily volatility bands, in percent.
	LowVolatility  float64 `yaml:"low_volatility" mapstructure:"low_volatility"`
	HighVolatility float64 `yaml:"high_volatility" mapstructure:"high_volatility"`

	// Distance from the nearest threshold needed for each confidence level.
	HighConfidenceMargin   float64 `yaml:"high_confidence_margin" mapstructure:"high_confidence_margin"`
	MediumConfidenceMargin float64 `yaml:"medium_confidence_margin" mapstructure:"medium_confidence_margin"`

	// Insight bands for sub-scores.
	WeakOutlook   float64 `yaml:"weak_outlook" mapstructure:"weak_outlook"`
	StrongOutlook float64 `yaml:"strong_outlook" mapstructure:"strong_outlook"`

	// Drawdown (negative percent) at or below which a drawdown insight is emitted.
	DeepDrawdownPct float64 `yaml:"deep_drawdown_pct" mapstructure:"deep_drawdown_pct"`
}

// DefaultScoring returns the standard recommendation policy. It seeds the
// viper defaults and backs scorer.DefaultConfig.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		// Cross-dimension weights (sum = 1).
		GeopoliticalWeight: 0.4,
		SupplyChainWeight:  0.3,
		CapitalFlowWeight:  0.3,

		BuyThreshold:  0.7,
		SellThreshold: 0.4,

		// Daily volatility, percent.
		LowVolatility:  2.0,
		HighVolatility: 4.0,

		HighConfidenceMargin:   0.15,
		MediumConfidenceMargin: 0.05,

		WeakOutlook:     0.4,
		StrongOutlook:   0.7,
		DeepDrawdownPct: -20,
	}
}

// MarketConfig configures the market-data client.
type MarketConfig struct {
	BaseURL               string  `yaml:"base_url" mapstructure:"base_url"`
	Range                 string  `yaml:"range" mapstructure:"range"`
	Interval              string  `yaml:"interval" mapstructure:"interval"`
	TimeoutSecs           int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond     float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	CacheTTLMins          int     `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	RetryMaxAttempts      int     `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	RetryInitialBackoffMs int     `yaml:"retry_initial_backoff_ms" mapstructure:"retry_initial_backoff_ms"`
	CircuitFailures       int     `yaml:"circuit_failures" mapstructure:"circuit_failures"`
	CircuitResetSecs      int     `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
}

// CatalogConfig points at an alternative static catalog. Empty uses the
// catalog embedded in the binary.
type CatalogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PortfolioConfig configures multi-company evaluation.
type PortfolioConfig struct {
	MaxConcurrency int `yaml:"max_concurrency" mapstructure:"max_concurrency"`
	MaxCompanies   int `yaml:"max_companies" mapstructure:"max_companies"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	RequestTimeout  int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeout int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STRATEGY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_secs", 60)
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("server.allowed_origins", []string{"*"})

	d := DefaultScoring()
	v.SetDefault("scoring.geopolitical_weight", d.GeopoliticalWeight)
	v.SetDefault("scoring.supply_chain_weight", d.SupplyChainWeight)
	v.SetDefault("scoring.capital_flow_weight", d.CapitalFlowWeight)
	v.SetDefault("scoring.buy_threshold", d.BuyThreshold)
	v.SetDefault("scoring.sell_threshold", d.SellThreshold)
	v.SetDefault("scoring.low_volatility", d.LowVolatility)
	v.SetDefault("scoring.high_volatility", d.HighVolatility)
	v.SetDefault("scoring.high_confidence_margin", d.HighConfidenceMargin)
	v.SetDefault("scoring.medium_confidence_margin", d.MediumConfidenceMargin)
	v.SetDefault("scoring.weak_outlook", d.WeakOutlook)
	v.SetDefault("scoring.strong_outlook", d.StrongOutlook)
	v.SetDefault("scoring.deep_drawdown_pct", d.DeepDrawdownPct)

	v.SetDefault("market.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("market.range", "1y")
	v.SetDefault("market.interval", "1d")
	v.SetDefault("market.timeout_secs", 30)
	v.SetDefault("market.requests_per_second", 2.0)
	v.SetDefault("market.cache_ttl_mins", 15)
	v.SetDefault("market.retry_max_attempts", 3)
	v.SetDefault("market.retry_initial_backoff_ms", 500)
	v.SetDefault("market.circuit_failures", 5)
	v.SetDefault("market.circuit_reset_secs", 30)

	v.SetDefault("portfolio.max_concurrency", 4)
	v.SetDefault("portfolio.max_companies", 50)
}

// Validate checks the non-scoring sections. Scoring policy is validated by
// the scorer package, which owns its semantics.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Market.BaseURL == "" {
		errs = append(errs, "market.base_url is required")
	}
	if c.Market.Range == "" {
		errs = append(errs, "market.range is required")
	}
	if c.Market.RequestsPerSecond <= 0 {
		errs = append(errs, "market.requests_per_second must be > 0")
	}
	if c.Portfolio.MaxConcurrency <= 0 {
		errs = append(errs, "portfolio.max_concurrency must be > 0")
	}
	if c.Portfolio.MaxCompanies < 0 {
		errs = append(errs, "portfolio.max_companies must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
