package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/impactlens/esg-cli/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Collector  CollectorConfig  `yaml:"collector" mapstructure:"collector"`
	Analyzer   AnalyzerConfig   `yaml:"analyzer" mapstructure:"analyzer"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CollectorConfig configures news collection.
type CollectorConfig struct {
	Feeds         []string `yaml:"feeds" mapstructure:"feeds"`
	MaxArticles   int      `yaml:"max_articles" mapstructure:"max_articles"`
	MaxPerFeed    int      `yaml:"max_per_feed" mapstructure:"max_per_feed"`
	TimeoutSecs   int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheTTLMins  int      `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	RatePerSecond float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// AnalyzerConfig configures the analysis engine.
type AnalyzerConfig struct {
	// LexiconPath optionally overrides the built-in keyword lexicons.
	LexiconPath string `yaml:"lexicon_path" mapstructure:"lexicon_path"`
	// ArtifactPath points at a trained classifier artifact (optional).
	ArtifactPath string `yaml:"artifact_path" mapstructure:"artifact_path"`
	// SampleLimit caps per-text results included in reports.
	SampleLimit int `yaml:"sample_limit" mapstructure:"sample_limit"`
	// RiskThreshold is passed to risk detection (see analyzer.DetectRisks).
	RiskThreshold float64 `yaml:"risk_threshold" mapstructure:"risk_threshold"`
}

// AnthropicConfig holds Anthropic API settings for optional enrichment.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ResilienceConfig tunes retries and circuit breakers for feed fetches
// and model API calls. Zero values keep the built-in defaults.
type ResilienceConfig struct {
	RetryMaxAttempts        int     `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	RetryInitialBackoffMs   int     `yaml:"retry_initial_backoff_ms" mapstructure:"retry_initial_backoff_ms"`
	RetryMaxBackoffMs       int     `yaml:"retry_max_backoff_ms" mapstructure:"retry_max_backoff_ms"`
	RetryMultiplier         float64 `yaml:"retry_multiplier" mapstructure:"retry_multiplier"`
	RetryJitter             float64 `yaml:"retry_jitter" mapstructure:"retry_jitter"`
	BreakerFailureThreshold int     `yaml:"breaker_failure_threshold" mapstructure:"breaker_failure_threshold"`
	BreakerResetTimeoutSecs int     `yaml:"breaker_reset_timeout_secs" mapstructure:"breaker_reset_timeout_secs"`
}

// Retry converts the section into a retry policy.
func (c ResilienceConfig) Retry() resilience.RetryConfig {
	return resilience.FromRetryConfig(
		c.RetryMaxAttempts, c.RetryInitialBackoffMs, c.RetryMaxBackoffMs,
		c.RetryMultiplier, c.RetryJitter)
}

// Breaker converts the section into a circuit breaker policy.
func (c ResilienceConfig) Breaker() resilience.CircuitBreakerConfig {
	return resilience.FromCircuitConfig(c.BreakerFailureThreshold, c.BreakerResetTimeoutSecs)
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
	v.SetEnvPrefix("ESG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "esg.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("collector.feeds", []string{
		"http://feeds.bbci.co.uk/news/business/rss.xml",
		"https://www.ft.com/?format=rss",
	})
	v.SetDefault("collector.max_articles", 20)
	v.SetDefault("collector.max_per_feed", 20)
	v.SetDefault("collector.timeout_secs", 15)
	v.SetDefault("collector.cache_ttl_mins", 60)
	v.SetDefault("collector.rate_per_second", 2.0)
	v.SetDefault("analyzer.sample_limit", 50)
	v.SetDefault("analyzer.risk_threshold", 0.3)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("resilience.retry_max_attempts", 3)
	v.SetDefault("resilience.retry_initial_backoff_ms", 500)
	v.SetDefault("resilience.retry_max_backoff_ms", 30000)
	v.SetDefault("resilience.retry_multiplier", 2.0)
	v.SetDefault("resilience.retry_jitter", 0.25)
	v.SetDefault("resilience.breaker_failure_threshold", 5)
	v.SetDefault("resilience.breaker_reset_timeout_secs", 30)

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
