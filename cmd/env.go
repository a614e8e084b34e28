package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/impactlens/esg-cli/internal/analyzer"
	"github.com/impactlens/esg-cli/internal/collect"
	"github.com/impactlens/esg-cli/internal/enrich"
	"github.com/impactlens/esg-cli/internal/pipeline"
	"github.com/impactlens/esg-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "esg.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initAnalyzer() (*analyzer.Analyzer, error) {
	lex := analyzer.DefaultLexicons()
	if cfg.Analyzer.LexiconPath != "" {
		loaded, err := analyzer.LoadLexicons(cfg.Analyzer.LexiconPath)
		if err != nil {
			return nil, err
		}
		lex = loaded
	}

	var opts []analyzer.Option
	if cfg.Analyzer.ArtifactPath != "" {
		opts = append(opts, analyzer.WithArtifact(analyzer.NewArtifactHandle(cfg.Analyzer.ArtifactPath)))
	}

	return analyzer.New(lex, opts...), nil
}

// initPipeline wires the store, collector, analyzer and optional
// enricher into a pipeline. The returned store is open; callers close it.
func initPipeline(ctx context.Context) (*pipeline.Pipeline, store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, eris.Wrap(err, "migrate store")
	}

	a, err := initAnalyzer()
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, nil, err
	}

	var enricher enrich.Enricher
	if cfg.Anthropic.Key != "" {
		e, newErr := enrich.New(cfg.Anthropic, cfg.Resilience.Retry())
		if newErr != nil {
			zap.L().Warn("enrichment disabled", zap.Error(newErr))
		} else {
			enricher = e
		}
	}

	collector := collect.New(cfg.Collector, st, collect.WithBreakerConfig(cfg.Resilience.Breaker()))

	return pipeline.New(cfg, a, collector, st, enricher), st, nil
}

// truncate shortens s to limit characters for table output, never
// splitting a multi-byte rune.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
