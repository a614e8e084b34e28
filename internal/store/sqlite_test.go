package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactlens/esg-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// --- Analyses ---

func TestSQLite_SaveAndGetLatestAnalysis(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	analysis := &model.CompanyAnalysis{
		CompanyName: "Acme Corp",
		AnalyzedAt:  time.Now().UTC(),
		Scores:      model.ScoreSet{EScore: 62.5, SScore: 55, GScore: 48, OverallScore: 55.53, Confidence: 0.4, DataPoints: 4},
		Insights:    []string{"Governance concerns may pose regulatory risks"},
	}

	id, err := st.SaveAnalysis(ctx, analysis)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := st.GetLatestAnalysis(ctx, "Acme Corp")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme Corp", got.CompanyName)
	assert.Equal(t, 62.5, got.Scores.EScore)
	assert.Equal(t, analysis.Insights, got.Insights)
}

func TestSQLite_GetLatestAnalysis_PicksNewest(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.SaveAnalysis(ctx, &model.CompanyAnalysis{
		CompanyName: "Acme Corp",
		Scores:      model.ScoreSet{OverallScore: 40},
	})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = st.SaveAnalysis(ctx, &model.CompanyAnalysis{
		CompanyName: "Acme Corp",
		Scores:      model.ScoreSet{OverallScore: 60},
	})
	require.NoError(t, err)

	got, err := st.GetLatestAnalysis(ctx, "Acme Corp")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 60.0, got.Scores.OverallScore)
}

func TestSQLite_GetLatestAnalysis_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetLatestAnalysis(context.Background(), "Nobody Inc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

// --- Score history ---

func TestSQLite_SaveAndLatestScores(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	scores := model.ScoreSet{EScore: 70, SScore: 65, GScore: 60, OverallScore: 65.25, Confidence: 0.5, DataPoints: 5}
	rec, err := st.SaveScores(ctx, "Acme Corp", scores)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "Acme Corp", rec.Company)

	got, err := st.LatestScores(ctx, "Acme Corp")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, scores, *got)
}

func TestSQLite_LatestScores_NoHistory(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.LatestScores(context.Background(), "Nobody Inc")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_ScoreHistory_Ordered(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []ScoreRecord{
		{Company: "Acme Corp", Scores: model.ScoreSet{OverallScore: 40}, RecordedAt: base},
		{Company: "Acme Corp", Scores: model.ScoreSet{OverallScore: 50}, RecordedAt: base.AddDate(0, 0, 1)},
		{Company: "Acme Corp", Scores: model.ScoreSet{OverallScore: 60}, RecordedAt: base.AddDate(0, 0, 2)},
		{Company: "Other Co", Scores: model.ScoreSet{OverallScore: 90}, RecordedAt: base},
	}
	n, err := st.ImportScores(ctx, records)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	history, err := st.ScoreHistory(ctx, "Acme Corp", 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 60.0, history[0].Scores.OverallScore)
	assert.Equal(t, 40.0, history[2].Scores.OverallScore)

	limited, err := st.ScoreHistory(ctx, "Acme Corp", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSQLite_ImportScores_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	recordedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []ScoreRecord{
		{Company: "Acme Corp", Scores: model.ScoreSet{OverallScore: 40}, RecordedAt: recordedAt},
	}

	_, err := st.ImportScores(ctx, records)
	require.NoError(t, err)

	// Replaying the same export updates in place instead of duplicating.
	records[0].Scores.OverallScore = 45
	_, err = st.ImportScores(ctx, records)
	require.NoError(t, err)

	history, err := st.ScoreHistory(ctx, "Acme Corp", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 45.0, history[0].Scores.OverallScore)
}

func TestSQLite_ImportScores_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)

	n, err := st.ImportScores(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

// --- Risk findings ---

func TestSQLite_SaveAndListRisks(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	analysisID, err := st.SaveAnalysis(ctx, &model.CompanyAnalysis{CompanyName: "Acme Corp"})
	require.NoError(t, err)

	now := time.Now().UTC()
	risks := []model.RiskFinding{
		{Text: "Fraud investigation launched", Category: model.CategoryGovernance, Keyword: "fraud", Severity: model.SeverityCritical, SentimentScore: 0.25, Confidence: 0.8, Timestamp: now},
		{Text: "Workers strike at plant", Category: model.CategorySocial, Keyword: "strike", Severity: model.SeverityMedium, SentimentScore: 0.3, Confidence: 0.6, Timestamp: now},
	}
	require.NoError(t, st.SaveRisks(ctx, analysisID, "Acme Corp", risks))

	got, err := st.ListRisks(ctx, "Acme Corp", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.SeverityCritical, got[0].Severity)
	assert.Equal(t, "fraud", got[0].Keyword)
	assert.Equal(t, model.CategoryGovernance, got[0].Category)
}

func TestSQLite_SaveRisks_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.SaveRisks(context.Background(), "any", "Acme Corp", nil))
}

func TestSQLite_ListRisks_NoFindings(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.ListRisks(context.Background(), "Nobody Inc", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// --- Alerts ---

func TestSQLite_Alerts_CreateListResolve(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateAlert(ctx, model.Alert{
		Company:  "Acme Corp",
		Message:  "Critical governance risk detected (fraud)",
		Severity: model.AlertCritical,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	alerts, err := st.ListAlerts(ctx, AlertFilter{Company: "Acme Corp"})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertCritical, alerts[0].Severity)
	assert.False(t, alerts[0].Resolved)

	require.NoError(t, st.ResolveAlert(ctx, created.ID))

	// Resolved alerts drop out of the default listing.
	alerts, err = st.ListAlerts(ctx, AlertFilter{Company: "Acme Corp"})
	require.NoError(t, err)
	assert.Empty(t, alerts)

	alerts, err = st.ListAlerts(ctx, AlertFilter{Company: "Acme Corp", IncludeResolved: true})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.True(t, alerts[0].Resolved)
}

func TestSQLite_ListAlerts_SeverityFilter(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateAlert(ctx, model.Alert{Company: "Acme Corp", Message: "a", Severity: model.AlertInfo})
	require.NoError(t, err)
	_, err = st.CreateAlert(ctx, model.Alert{Company: "Acme Corp", Message: "b", Severity: model.AlertWarning})
	require.NoError(t, err)

	alerts, err := st.ListAlerts(ctx, AlertFilter{Severity: model.AlertWarning})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "b", alerts[0].Message)
}

func TestSQLite_ResolveAlert_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.ResolveAlert(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alert not found")
}

// --- Text cache ---

func TestSQLite_TextCache_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	texts := []string{"Company launches solar initiative", "Board announces new audit committee"}
	require.NoError(t, st.SetCachedTexts(ctx, "acme-corp", texts, time.Hour))

	got, err := st.GetCachedTexts(ctx, "acme-corp")
	require.NoError(t, err)
	assert.Equal(t, texts, got)
}

func TestSQLite_TextCache_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetCachedTexts(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_TextCache_Expired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedTexts(ctx, "stale", []string{"old"}, -time.Hour))

	got, err := st.GetCachedTexts(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := st.DeleteExpiredTexts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLite_TextCache_Overwrite(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetCachedTexts(ctx, "acme-corp", []string{"first"}, time.Hour))
	require.NoError(t, st.SetCachedTexts(ctx, "acme-corp", []string{"second"}, time.Hour))

	got, err := st.GetCachedTexts(ctx, "acme-corp")
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, got)
}
