package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactlens/esg-cli/internal/model"
)

func TestGenerateInsightsOverallTiers(t *testing.T) {
	tests := []struct {
		name    string
		overall float64
		want    string
	}{
		{"strong", 75.5, "Strong overall ESG performance with a score of 75.5/100"},
		{"moderate", 55, "Moderate ESG performance with room for improvement (score: 55/100)"},
		{"weak", 42.25, "ESG performance needs significant improvement (score: 42.25/100)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores := model.ScoreSet{EScore: 50, SScore: 50, GScore: 50, OverallScore: tt.overall}
			got := GenerateInsights(scores, nil)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestGenerateInsightsCategoryMessages(t *testing.T) {
	scores := model.ScoreSet{EScore: 80, SScore: 30, GScore: 55, OverallScore: 55}
	got := GenerateInsights(scores, nil)

	assert.Contains(t, got, "Environmental practices are strong")
	assert.Contains(t, got, "Social practices need improvement")
	// Governance at 55 is between the thresholds: no message.
	for _, s := range got {
		assert.NotContains(t, s, "Governance")
	}
}

func TestGenerateInsightsRiskCounts(t *testing.T) {
	risks := []model.RiskFinding{
		{Severity: model.SeverityCritical},
		{Severity: model.SeverityCritical},
		{Severity: model.SeverityHigh},
		{Severity: model.SeverityMedium},
	}
	got := GenerateInsights(model.DefaultScoreSet(), risks)

	assert.Contains(t, got, "2 critical risk(s) detected requiring immediate action")
	assert.Contains(t, got, "1 high-priority risk(s) identified")
}

func TestGenerateRecommendations(t *testing.T) {
	scores := model.ScoreSet{EScore: 45, SScore: 60, GScore: 30, OverallScore: 45.75}
	risks := []model.RiskFinding{{Severity: model.SeverityCritical}}

	got := GenerateRecommendations(scores, risks)
	assert.Contains(t, got, "Enhance environmental initiatives and transparent reporting")
	assert.Contains(t, got, "Strengthen governance practices and compliance frameworks")
	assert.Contains(t, got, "Address 1 critical risk(s) immediately")
	assert.NotContains(t, got, "Improve social responsibility programs and stakeholder engagement")
}

func TestGenerateRecommendationsNeverEmpty(t *testing.T) {
	scores := model.ScoreSet{EScore: 80, SScore: 80, GScore: 80, OverallScore: 80}
	got := GenerateRecommendations(scores, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Maintain current ESG practices and continue monitoring", got[0])
}
