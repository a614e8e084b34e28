// Package pipeline orchestrates a full company analysis: text
// collection, sentiment and category scoring, risk detection, insight
// generation and optional persistence and enrichment.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/impactlens/esg-cli/internal/alerts"
	"github.com/impactlens/esg-cli/internal/analyzer"
	"github.com/impactlens/esg-cli/internal/collect"
	"github.com/impactlens/esg-cli/internal/config"
	"github.com/impactlens/esg-cli/internal/enrich"
	"github.com/impactlens/esg-cli/internal/model"
	"github.com/impactlens/esg-cli/internal/store"
)

// sampleExcerptLen caps the text excerpt attached to sampled per-text
// results.
const sampleExcerptLen = 100

// sampleKeep caps how many sampled per-text results are embedded in the
// assembled analysis; summaries still cover the full sample window.
const sampleKeep = 10

// defaultSampleLimit bounds per-text reporting when config does not set
// a sample limit.
const defaultSampleLimit = 50

// Collector acquires raw texts for a company.
type Collector interface {
	Collect(ctx context.Context, company string, maxArticles int) (*collect.Result, error)
}

// Pipeline runs company analyses. The store and enricher are optional;
// with a nil store there is no score history to blend against and
// nothing is persisted.
type Pipeline struct {
	cfg       *config.Config
	analyzer  *analyzer.Analyzer
	collector Collector
	store     store.Store
	enricher  enrich.Enricher
}

// New creates a Pipeline with all dependencies. st and enricher may be
// nil.
func New(cfg *config.Config, a *analyzer.Analyzer, c Collector, st store.Store, enricher enrich.Enricher) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		analyzer:  a,
		collector: c,
		store:     st,
		enricher:  enricher,
	}
}

// AnalyzeOptions tunes a single analysis run.
type AnalyzeOptions struct {
	// MaxArticles overrides the configured collection cap when positive.
	MaxArticles int
	// Save persists the analysis, score history, risk findings and
	// derived alerts. Requires a store.
	Save bool
	// Enrich attaches an LLM narrative when an enricher is configured.
	Enrich bool
}

// AnalyzeCompany runs the full pipeline for one company. Sparse data is
// never fatal: zero collected texts still produces a complete analysis
// with documented defaults.
func (p *Pipeline) AnalyzeCompany(ctx context.Context, company string, opts AnalyzeOptions) (*model.CompanyAnalysis, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return nil, eris.New("pipeline: company name required")
	}

	log := zap.L().With(zap.String("company", company))
	log.Info("pipeline: starting analysis")

	result, err := p.collector.Collect(ctx, company, opts.MaxArticles)
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrap(err, "pipeline: collect")
		}
		// Collection failure degrades to an empty text set.
		log.Warn("pipeline: collection failed, continuing with no texts", zap.Error(err))
		result = &collect.Result{}
	}

	prior := p.loadPrior(ctx, company)

	analysis := p.buildAnalysis(company, result.Texts, prior, result.Stats())

	if opts.Enrich {
		enrich.Summarize(ctx, p.enricher, analysis)
	}

	if opts.Save && p.store != nil {
		p.persist(ctx, analysis)
	}

	log.Info("pipeline: analysis complete",
		zap.Float64("overall_score", analysis.Scores.OverallScore),
		zap.Int("texts", analysis.Collection.TotalTextsAnalyzed),
		zap.Int("risks", len(analysis.Risks)))

	return analysis, nil
}

// AnalyzeTexts runs the analysis stages over an already-collected text
// set, with no IO. Used by comparison tests and embedders that bring
// their own acquisition.
func (p *Pipeline) AnalyzeTexts(company string, texts []string) *model.CompanyAnalysis {
	stats := model.CollectionStats{TotalTextsAnalyzed: len(texts)}
	return p.buildAnalysis(company, texts, nil, stats)
}

// loadPrior fetches the latest stored score set for blending. Missing
// history or a read failure both mean no prior.
func (p *Pipeline) loadPrior(ctx context.Context, company string) *model.ScoreSet {
	if p.store == nil {
		return nil
	}
	prior, err := p.store.LatestScores(ctx, company)
	if err != nil {
		zap.L().Warn("pipeline: failed to load score history",
			zap.String("company", company), zap.Error(err))
		return nil
	}
	return prior
}

// buildAnalysis runs the core stages in order: per-text sampling for
// reporting, aggregation over all texts, risk detection over all texts,
// then insight and recommendation generation.
func (p *Pipeline) buildAnalysis(company string, texts []string, prior *model.ScoreSet, stats model.CollectionStats) *model.CompanyAnalysis {
	sampleLimit := p.cfg.Analyzer.SampleLimit
	if sampleLimit <= 0 {
		sampleLimit = defaultSampleLimit
	}
	sample := texts
	if len(sample) > sampleLimit {
		sample = sample[:sampleLimit]
	}

	sentiments := make([]model.TextSentiment, 0, len(sample))
	categories := make([]model.TextCategory, 0, len(sample))
	for _, text := range sample {
		short := excerpt(text, sampleExcerptLen)
		sentiments = append(sentiments, model.TextSentiment{
			Text:      short,
			Sentiment: p.analyzer.ScoreSentiment(text),
		})
		categories = append(categories, model.TextCategory{
			Text:     short,
			Category: p.analyzer.ClassifyCategory(text),
		})
	}

	scores := p.analyzer.AggregateScores(texts, prior)
	risks := p.analyzer.DetectRisks(texts, p.cfg.Analyzer.RiskThreshold)

	return &model.CompanyAnalysis{
		CompanyName:     company,
		AnalyzedAt:      time.Now().UTC(),
		Collection:      stats,
		SampleSentiment: keepFirst(sentiments, sampleKeep),
		SentimentStats:  summarizeSentiments(sentiments),
		SampleCategory:  keepFirst(categories, sampleKeep),
		Distribution:    categoryDistribution(categories),
		Scores:          scores,
		Risks:           risks,
		Insights:        analyzer.GenerateInsights(scores, risks),
		Recommendations: analyzer.GenerateRecommendations(scores, risks),
	}
}

// persist writes the analysis, its score row, its risk findings and the
// derived alerts. Each write failure is logged and skipped so a storage
// hiccup never discards a finished analysis.
func (p *Pipeline) persist(ctx context.Context, analysis *model.CompanyAnalysis) {
	log := zap.L().With(zap.String("company", analysis.CompanyName))

	analysisID, err := p.store.SaveAnalysis(ctx, analysis)
	if err != nil {
		log.Warn("pipeline: failed to save analysis", zap.Error(err))
	}

	if _, err := p.store.SaveScores(ctx, analysis.CompanyName, analysis.Scores); err != nil {
		log.Warn("pipeline: failed to save scores", zap.Error(err))
	}

	if err := p.store.SaveRisks(ctx, analysisID, analysis.CompanyName, analysis.Risks); err != nil {
		log.Warn("pipeline: failed to save risks", zap.Error(err))
	}

	alerts.NewDeriver(p.store).DeriveAndSave(ctx, analysis.CompanyName, analysis.Risks)
}

// summarizeSentiments counts labels and averages scores over the
// sampled window. An empty sample reports the neutral 0.5 average.
func summarizeSentiments(sentiments []model.TextSentiment) model.SentimentSummary {
	summary := model.SentimentSummary{AverageScore: 0.5}
	if len(sentiments) == 0 {
		return summary
	}

	var sum float64
	for _, ts := range sentiments {
		switch ts.Sentiment.Label {
		case model.SentimentPositive:
			summary.Positive++
		case model.SentimentNegative:
			summary.Negative++
		default:
			summary.Neutral++
		}
		sum += ts.Sentiment.Score
	}
	summary.AverageScore = sum / float64(len(sentiments))
	summary.TotalAnalyzed = len(sentiments)
	return summary
}

func categoryDistribution(categories []model.TextCategory) model.CategoryDistribution {
	var dist model.CategoryDistribution
	for _, tc := range categories {
		switch tc.Category.Category {
		case model.CategoryEnvironmental:
			dist.Environmental++
		case model.CategorySocial:
			dist.Social++
		case model.CategoryGovernance:
			dist.Governance++
		default:
			dist.General++
		}
	}
	dist.Total = len(categories)
	return dist
}

func keepFirst[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}

func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return text
}
