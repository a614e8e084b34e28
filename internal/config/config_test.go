package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "esg.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 20, cfg.Collector.MaxArticles)
	assert.Equal(t, 20, cfg.Collector.MaxPerFeed)
	assert.Equal(t, 15, cfg.Collector.TimeoutSecs)
	assert.Equal(t, 60, cfg.Collector.CacheTTLMins)
	assert.InDelta(t, 2.0, cfg.Collector.RatePerSecond, 0.001)
	assert.Len(t, cfg.Collector.Feeds, 2)
	assert.Equal(t, 50, cfg.Analyzer.SampleLimit)
	assert.InDelta(t, 0.3, cfg.Analyzer.RiskThreshold, 0.001)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.EqualValues(t, 1024, cfg.Anthropic.MaxTokens)

	retry := cfg.Resilience.Retry()
	assert.Equal(t, 3, retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, retry.InitialBackoff)
	assert.InDelta(t, 0.25, retry.JitterFraction, 0.001)
	breaker := cfg.Resilience.Breaker()
	assert.Equal(t, 5, breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, breaker.ResetTimeout)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/esg
collector:
  max_articles: 5
  feeds:
    - https://example.com/rss
analyzer:
  sample_limit: 10
  lexicon_path: lexicons.yaml
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/esg", cfg.Store.DatabaseURL)
	assert.Equal(t, 5, cfg.Collector.MaxArticles)
	assert.Equal(t, []string{"https://example.com/rss"}, cfg.Collector.Feeds)
	assert.Equal(t, 10, cfg.Analyzer.SampleLimit)
	assert.Equal(t, "lexicons.yaml", cfg.Analyzer.LexiconPath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	err := InitLogger(LogConfig{Level: "not-a-level", Format: "json"})
	assert.Error(t, err)
}
