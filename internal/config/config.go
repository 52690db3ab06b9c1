package config

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Citation   CitationConfig   `yaml:"citation" mapstructure:"citation"`
	Validation ValidationConfig `yaml:"validation" mapstructure:"validation"`
	Collect    CollectConfig    `yaml:"collect" mapstructure:"collect"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the record sink backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// FetchConfig configures the rate-limited fetcher and its cache.
type FetchConfig struct {
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	RateLimitSecs  float64 `yaml:"rate_limit_secs" mapstructure:"rate_limit_secs"`
	CacheDir       string  `yaml:"cache_dir" mapstructure:"cache_dir"`
	CacheMaxAgeHrs int     `yaml:"cache_max_age_hours" mapstructure:"cache_max_age_hours"`
	RespectRobots  bool    `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CitationConfig locates the external citation template configuration.
type CitationConfig struct {
	TemplatesPath string `yaml:"templates_path" mapstructure:"templates_path"`
}

// ValidationConfig tunes the validation engine.
type ValidationConfig struct {
	Thresholds QualityThresholds `yaml:"thresholds" mapstructure:"thresholds"`
	Prices     PriceRanges       `yaml:"prices" mapstructure:"prices"`
	Freshness  FreshnessWindows  `yaml:"freshness" mapstructure:"freshness"`
	Weights    ConfidenceWeights `yaml:"weights" mapstructure:"weights"`
}

// QualityThresholds map quality scores onto confidence tiers.
type QualityThresholds struct {
	Excellent  float64 `yaml:"excellent" mapstructure:"excellent"`
	Good       float64 `yaml:"good" mapstructure:"good"`
	Acceptable float64 `yaml:"acceptable" mapstructure:"acceptable"`
}

// PriceRanges bound plausible unit costs.
type PriceRanges struct {
	MinReasonable  float64 `yaml:"min_reasonable" mapstructure:"min_reasonable"`
	MaxReasonable  float64 `yaml:"max_reasonable" mapstructure:"max_reasonable"`
	SuspiciousHigh float64 `yaml:"suspicious_high" mapstructure:"suspicious_high"`
	SuspiciousLow  float64 `yaml:"suspicious_low" mapstructure:"suspicious_low"`
}

// FreshnessWindows bound citation observation-date age, in days.
type FreshnessWindows struct {
	MaxAgeDays       int `yaml:"max_age_days" mapstructure:"max_age_days"`
	PreferredAgeDays int `yaml:"preferred_age_days" mapstructure:"preferred_age_days"`
	CriticalAgeDays  int `yaml:"critical_age_days" mapstructure:"critical_age_days"`
}

// ConfidenceWeights are the quality-score components. They must sum to 1.0.
type ConfidenceWeights struct {
	HasSource         float64 `yaml:"has_source" mapstructure:"has_source"`
	RecentData        float64 `yaml:"recent_data" mapstructure:"recent_data"`
	CompleteFields    float64 `yaml:"complete_fields" mapstructure:"complete_fields"`
	ReasonablePrice   float64 `yaml:"reasonable_price" mapstructure:"reasonable_price"`
	HasProductCode    float64 `yaml:"has_product_code" mapstructure:"has_product_code"`
	HasSpecifications float64 `yaml:"has_specifications" mapstructure:"has_specifications"`
}

// Sum returns the total of all weight components.
func (w ConfidenceWeights) Sum() float64 {
	return w.HasSource + w.RecentData + w.CompleteFields +
		w.ReasonablePrice + w.HasProductCode + w.HasSpecifications
}

// CollectConfig bounds a collection session.
type CollectConfig struct {
	MaxRecords  int    `yaml:"max_records" mapstructure:"max_records"`
	ResearchDir string `yaml:"research_dir" mapstructure:"research_dir"`
}

// ServerConfig configures the session report server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetConfigName("vanillacost")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VANILLACOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "data/costs/vanilla_costs.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("fetch.user_agent", "vanillacost/1.0 (cost research; contact ops@terra35.example)")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.rate_limit_secs", 1.0)
	v.SetDefault("fetch.cache_dir", "data/cache")
	v.SetDefault("fetch.cache_max_age_hours", 24)
	v.SetDefault("fetch.respect_robots", true)
	v.SetDefault("citation.templates_path", "config/citation_templates.yaml")
	v.SetDefault("collect.max_records", 200)
	v.SetDefault("collect.research_dir", "data/research")
	v.SetDefault("validation.thresholds.excellent", 0.95)
	v.SetDefault("validation.thresholds.good", 0.85)
	v.SetDefault("validation.thresholds.acceptable", 0.70)
	v.SetDefault("validation.prices.min_reasonable", 0.01)
	v.SetDefault("validation.prices.max_reasonable", 100000.0)
	v.SetDefault("validation.prices.suspicious_high", 50000.0)
	v.SetDefault("validation.prices.suspicious_low", 0.10)
	v.SetDefault("validation.freshness.max_age_days", 365)
	v.SetDefault("validation.freshness.preferred_age_days", 90)
	v.SetDefault("validation.freshness.critical_age_days", 730)
	v.SetDefault("validation.weights.has_source", 0.25)
	v.SetDefault("validation.weights.recent_data", 0.20)
	v.SetDefault("validation.weights.complete_fields", 0.20)
	v.SetDefault("validation.weights.reasonable_price", 0.15)
	v.SetDefault("validation.weights.has_product_code", 0.10)
	v.SetDefault("validation.weights.has_specifications", 0.10)

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

	if err := cfg.Validation.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks invariants the engine depends on.
func (c ValidationConfig) Validate() error {
	if math.Abs(c.Weights.Sum()-1.0) > 1e-9 {
		return eris.Errorf("config: confidence weights must sum to 1.0, got %v", c.Weights.Sum())
	}
	if c.Thresholds.Acceptable > c.Thresholds.Good || c.Thresholds.Good > c.Thresholds.Excellent {
		return eris.New("config: quality thresholds must be ordered acceptable <= good <= excellent")
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
