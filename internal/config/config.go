// Package config loads vest configuration from config.yaml, .env and VEST_*
// environment variables.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/vest-cli/internal/model"
	"github.com/sells-group/vest-cli/internal/scorer"
)

// Config holds the full application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Ebay    EbayConfig    `yaml:"ebay" mapstructure:"ebay"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Fees    FeesConfig    `yaml:"fees" mapstructure:"fees"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            int      `yaml:"port" mapstructure:"port"`
	CORSOrigins     []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	ShutdownTimeout int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// StoreConfig configures scan history persistence.
type StoreConfig struct {
	// Driver is sqlite, postgres or none.
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// EbayConfig holds Browse API credentials and the scraper fallback.
type EbayConfig struct {
	ClientID     string  `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string  `yaml:"client_secret" mapstructure:"client_secret"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	Marketplace  string  `yaml:"marketplace" mapstructure:"marketplace"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Filter       string  `yaml:"filter" mapstructure:"filter"`
	HTMLFallback bool    `yaml:"html_fallback" mapstructure:"html_fallback"`
	HTMLURL      string  `yaml:"html_url" mapstructure:"html_url"`
}

// HasCredentials reports whether the Browse API can be used.
func (e EbayConfig) HasCredentials() bool {
	return e.ClientID != "" && e.ClientSecret != ""
}

// SearchConfig tunes tiered marketplace search.
type SearchConfig struct {
	MinResults       int    `yaml:"min_results" mapstructure:"min_results"`
	Limit            int    `yaml:"limit" mapstructure:"limit"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Seed             uint64 `yaml:"seed" mapstructure:"seed"`
	BreakerThreshold int    `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int    `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// ScoringConfig holds the V.E.S.T. weights and the suggestion ladder.
type ScoringConfig struct {
	Weights scorer.Weights `yaml:"weights" mapstructure:"weights"`
	Ladder  []string       `yaml:"ladder" mapstructure:"ladder"`
}

// Grades returns the ladder as grades, skipping unknown entries.
func (s ScoringConfig) Grades() []model.Grade {
	out := make([]model.Grade, 0, len(s.Ladder))
	for _, l := range s.Ladder {
		if g, ok := scorer.ParseGrade(strings.TrimSpace(l)); ok {
			out = append(out, g)
		}
	}
	return out
}

// FeesConfig points at an optional fee schedule and sets profit defaults.
type FeesConfig struct {
	File         string  `yaml:"file" mapstructure:"file"`
	Category     string  `yaml:"category" mapstructure:"category"`
	PromotedRate float64 `yaml:"promoted_rate" mapstructure:"promoted_rate"`
}

// Load reads configuration from file and environment. A .env file in the
// working directory is loaded first when present; it never overrides
// variables already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	w := scorer.DefaultWeights()
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "vest.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("ebay.client_id", "")
	v.SetDefault("ebay.client_secret", "")
	v.SetDefault("ebay.base_url", "https://api.ebay.com")
	v.SetDefault("ebay.marketplace", "EBAY_US")
	v.SetDefault("ebay.rate_limit", 5.0)
	v.SetDefault("ebay.filter", "buyingOptions:{FIXED_PRICE}")
	v.SetDefault("ebay.html_fallback", true)
	v.SetDefault("ebay.html_url", "https://www.ebay.com/sch/i.html")
	v.SetDefault("search.min_results", 3)
	v.SetDefault("search.limit", 50)
	v.SetDefault("search.timeout_secs", 20)
	v.SetDefault("search.seed", 0)
	v.SetDefault("search.breaker_threshold", 5)
	v.SetDefault("search.breaker_reset_secs", 30)
	v.SetDefault("scoring.weights.velocity", w.Velocity)
	v.SetDefault("scoring.weights.equity", w.Equity)
	v.SetDefault("scoring.weights.stability", w.Stability)
	v.SetDefault("scoring.weights.trend", w.Trend)
	v.SetDefault("scoring.ladder", []string{"A", "B+", "B", "C"})
	v.SetDefault("fees.file", "")
	v.SetDefault("fees.category", "")
	v.SetDefault("fees.promoted_rate", 0.0)

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

// Validate checks the settings that would otherwise fail deep inside a scan.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Driver {
	case "sqlite", "postgres", "none":
	default:
		errs = append(errs, "store.driver must be sqlite, postgres or none")
	}
	if c.Store.Driver != "none" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, "log.format must be json or console")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be in 1..65535")
	}
	if c.Search.MinResults < 1 {
		errs = append(errs, "search.min_results must be >= 1")
	}
	if c.Search.Limit < 1 || c.Search.Limit > 200 {
		errs = append(errs, "search.limit must be in 1..200")
	}
	if c.Fees.PromotedRate < 0 || c.Fees.PromotedRate >= 1 {
		errs = append(errs, "fees.promoted_rate must be in [0,1)")
	}
	if err := c.Scoring.Weights.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	for _, g := range c.Scoring.Ladder {
		if _, ok := scorer.ParseGrade(g); !ok {
			errs = append(errs, "scoring.ladder has unknown grade "+g)
		}
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
