package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactlens/esg-cli/internal/analyzer"
	"github.com/impactlens/esg-cli/internal/collect"
	"github.com/impactlens/esg-cli/internal/config"
	"github.com/impactlens/esg-cli/internal/enrich"
	"github.com/impactlens/esg-cli/internal/model"
	"github.com/impactlens/esg-cli/internal/store"
)

type stubCollector struct {
	texts map[string][]string
	err   error
}

func (s *stubCollector) Collect(_ context.Context, company string, _ int) (*collect.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	texts := s.texts[company]
	return &collect.Result{
		Texts:    texts,
		Articles: len(texts),
		Sources:  []string{"stub"},
	}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Analyzer: config.AnalyzerConfig{SampleLimit: 50, RiskThreshold: 0.3},
	}
}

func newTestPipeline(t *testing.T, texts map[string][]string) *Pipeline {
	t.Helper()
	return New(testConfig(), analyzer.New(analyzer.DefaultLexicons()), &stubCollector{texts: texts}, nil, nil)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

const (
	positiveEnvText = "The company improved its renewable energy program and reduced carbon emissions"
	fraudText       = "Regulators launched a fraud investigation into the company after whistleblower claims"
)

func TestAnalyzeCompany_ZeroTexts(t *testing.T) {
	p := newTestPipeline(t, nil)

	analysis, err := p.AnalyzeCompany(context.Background(), "Acme Corp", AnalyzeOptions{})
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", analysis.CompanyName)
	assert.Equal(t, model.DefaultScoreSet(), analysis.Scores)
	assert.Empty(t, analysis.Risks)
	assert.Equal(t, 0, analysis.Collection.TotalTextsAnalyzed)
	assert.Equal(t, 0, analysis.SentimentStats.TotalAnalyzed)
	assert.Equal(t, 0.5, analysis.SentimentStats.AverageScore)
	assert.NotEmpty(t, analysis.Insights)
	assert.Equal(t, []string{"Maintain current ESG practices and continue monitoring"}, analysis.Recommendations)
}

func TestAnalyzeCompany_Assembly(t *testing.T) {
	p := newTestPipeline(t, map[string][]string{
		"Acme Corp": {positiveEnvText, fraudText},
	})

	analysis, err := p.AnalyzeCompany(context.Background(), "Acme Corp", AnalyzeOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, analysis.Collection.TotalTextsAnalyzed)
	assert.Equal(t, []string{"stub"}, analysis.Collection.Sources)

	require.Len(t, analysis.SampleSentiment, 2)
	require.Len(t, analysis.SampleCategory, 2)
	assert.Equal(t, 2, analysis.SentimentStats.TotalAnalyzed)
	assert.Equal(t, 1, analysis.SentimentStats.Positive)
	assert.Equal(t, 1, analysis.SentimentStats.Negative)
	assert.Equal(t, 2, analysis.Distribution.Total)

	assert.Equal(t, 2, analysis.Scores.DataPoints)
	assert.InDelta(t, 0.2, analysis.Scores.Confidence, 1e-9)

	require.Len(t, analysis.Risks, 1)
	assert.Equal(t, model.SeverityCritical, analysis.Risks[0].Severity)
	assert.Equal(t, "fraud", analysis.Risks[0].Keyword)

	assert.NotEmpty(t, analysis.Insights)
	assert.NotEmpty(t, analysis.Recommendations)
	assert.Empty(t, analysis.Enrichment)
}

func TestAnalyzeCompany_SampleWindow(t *testing.T) {
	texts := make([]string, 60)
	for i := range texts {
		texts[i] = positiveEnvText
	}
	p := newTestPipeline(t, map[string][]string{"Acme Corp": texts})

	analysis, err := p.AnalyzeCompany(context.Background(), "Acme Corp", AnalyzeOptions{})
	require.NoError(t, err)

	// Summaries cover the 50-text sample window; the embedded per-text
	// lists stay short; aggregation still sees all 60 texts.
	assert.Equal(t, 50, analysis.SentimentStats.TotalAnalyzed)
	assert.Equal(t, 50, analysis.Distribution.Total)
	assert.Len(t, analysis.SampleSentiment, 10)
	assert.Len(t, analysis.SampleCategory, 10)
	assert.Equal(t, 60, analysis.Scores.DataPoints)
	assert.Equal(t, 1.0, analysis.Scores.Confidence)
}

func TestAnalyzeCompany_CollectFailureDegrades(t *testing.T) {
	p := New(testConfig(), analyzer.New(analyzer.DefaultLexicons()),
		&stubCollector{err: errors.New("feeds unreachable")}, nil, nil)

	analysis, err := p.AnalyzeCompany(context.Background(), "Acme Corp", AnalyzeOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultScoreSet(), analysis.Scores)
}

func TestAnalyzeCompany_BlankCompany(t *testing.T) {
	p := newTestPipeline(t, nil)
	_, err := p.AnalyzeCompany(context.Background(), "   ", AnalyzeOptions{})
	assert.ErrorContains(t, err, "company name required")
}

func TestAnalyzeCompany_SavePersistsEverything(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	p := New(testConfig(), analyzer.New(analyzer.DefaultLexicons()),
		&stubCollector{texts: map[string][]string{"Acme Corp": {positiveEnvText, fraudText}}},
		st, nil)

	analysis, err := p.AnalyzeCompany(ctx, "Acme Corp", AnalyzeOptions{Save: true})
	require.NoError(t, err)

	stored, err := st.GetLatestAnalysis(ctx, "Acme Corp")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, analysis.Scores, stored.Scores)

	history, err := st.ScoreHistory(ctx, "Acme Corp", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, analysis.Scores, history[0].Scores)

	risks, err := st.ListRisks(ctx, "Acme Corp", 10)
	require.NoError(t, err)
	assert.Len(t, risks, 1)

	open, err := st.ListAlerts(ctx, store.AlertFilter{Company: "Acme Corp"})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, model.AlertCritical, open[0].Severity)
}

func TestAnalyzeCompany_BlendsStoredPrior(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	texts := map[string][]string{"Acme Corp": {positiveEnvText}}

	fresh := newTestPipeline(t, texts).AnalyzeTexts("Acme Corp", texts["Acme Corp"])

	prior := model.ScoreSet{EScore: 90, SScore: 90, GScore: 90, OverallScore: 90, Confidence: 1}
	_, err := st.SaveScores(ctx, "Acme Corp", prior)
	require.NoError(t, err)

	p := New(testConfig(), analyzer.New(analyzer.DefaultLexicons()),
		&stubCollector{texts: texts}, st, nil)
	blended, err := p.AnalyzeCompany(ctx, "Acme Corp", AnalyzeOptions{})
	require.NoError(t, err)

	assert.NotEqual(t, fresh.Scores.OverallScore, blended.Scores.OverallScore)
	assert.InDelta(t, 0.7*fresh.Scores.OverallScore+0.3*prior.OverallScore,
		blended.Scores.OverallScore, 0.01)
}

func TestAnalyzeCompany_EnrichmentAttached(t *testing.T) {
	p := New(testConfig(), analyzer.New(analyzer.DefaultLexicons()),
		&stubCollector{texts: map[string][]string{"Acme Corp": {positiveEnvText}}},
		nil, &enrich.Static{Summary: "steady performer"})

	analysis, err := p.AnalyzeCompany(context.Background(), "Acme Corp", AnalyzeOptions{Enrich: true})
	require.NoError(t, err)
	assert.Equal(t, "steady performer", analysis.Enrichment)
}

func TestAnalyzeCompany_EnrichmentFailureIsolated(t *testing.T) {
	collector := &stubCollector{texts: map[string][]string{"Acme Corp": {positiveEnvText, fraudText}}}

	plain, err := New(testConfig(), analyzer.New(analyzer.DefaultLexicons()), collector, nil, nil).
		AnalyzeCompany(context.Background(), "Acme Corp", AnalyzeOptions{})
	require.NoError(t, err)

	failing := New(testConfig(), analyzer.New(analyzer.DefaultLexicons()), collector,
		nil, &enrich.Static{Err: errors.New("model overloaded")})
	analysis, err := failing.AnalyzeCompany(context.Background(), "Acme Corp", AnalyzeOptions{Enrich: true})
	require.NoError(t, err)

	assert.Empty(t, analysis.Enrichment)
	assert.Equal(t, plain.Scores, analysis.Scores)
	assert.Equal(t, len(plain.Risks), len(analysis.Risks))
}

func TestAnalyzeCompany_EnrichSkippedWithoutEnricher(t *testing.T) {
	p := newTestPipeline(t, map[string][]string{"Acme Corp": {positiveEnvText}})
	analysis, err := p.AnalyzeCompany(context.Background(), "Acme Corp", AnalyzeOptions{Enrich: true})
	require.NoError(t, err)
	assert.Empty(t, analysis.Enrichment)
}
