package analyzer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/impactlens/esg-cli/internal/model"
)

func newTestAnalyzer(t *testing.T, opts ...Option) *Analyzer {
	t.Helper()
	return New(DefaultLexicons(), opts...)
}

func TestAggregateScoresEmptyInput(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.AggregateScores(nil, nil)
	assert.Equal(t, model.DefaultScoreSet(), got)

	got = a.AggregateScores([]string{}, nil)
	assert.Equal(t, model.DefaultScoreSet(), got)
}

func TestAggregateScoresOverallWeighting(t *testing.T) {
	a := newTestAnalyzer(t)

	texts := []string{
		"Company reduces carbon emissions by 30%",
		"New diversity program launched",
		"Enhanced governance transparency",
		"Fraud investigation launched by regulators",
		"Workers strike at plant",
	}
	got := a.AggregateScores(texts, nil)

	want := round2(0.35*got.EScore + 0.35*got.SScore + 0.30*got.GScore)
	assert.InDelta(t, want, got.OverallScore, 0.011)
	assert.Equal(t, len(texts), got.DataPoints)
}

func TestAggregateScoresScenario(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.AggregateScores([]string{
		"Company reduces carbon emissions by 30%",
		"New diversity program launched",
		"Enhanced governance transparency",
	}, nil)

	// One positive text qualifying per category: every bucket beats the
	// neutral baseline.
	assert.Greater(t, got.EScore, model.NeutralScore)
	assert.Greater(t, got.SScore, model.NeutralScore)
	assert.Greater(t, got.GScore, model.NeutralScore)
	assert.Greater(t, got.OverallScore, model.NeutralScore)
	assert.InDelta(t, 0.3, got.Confidence, 0.001)
}

func TestAggregateScoresEmptyBucketDefaults(t *testing.T) {
	a := newTestAnalyzer(t)

	// Environmental-only signal: social and governance stay neutral.
	got := a.AggregateScores([]string{"Company reduces carbon emissions by 30%"}, nil)
	assert.Greater(t, got.EScore, model.NeutralScore)
	assert.Equal(t, model.NeutralScore, got.SScore)
	assert.Equal(t, model.NeutralScore, got.GScore)
}

func TestAggregateScoresGeneralTextsContributeNothing(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.AggregateScores([]string{
		"Quarterly meeting scheduled for Tuesday",
		"   ",
		"",
	}, nil)
	assert.Equal(t, model.NeutralScore, got.EScore)
	assert.Equal(t, model.NeutralScore, got.SScore)
	assert.Equal(t, model.NeutralScore, got.GScore)
	assert.Equal(t, model.NeutralScore, got.OverallScore)
	// Confidence counts supplied texts, not qualifying ones.
	assert.InDelta(t, 0.3, got.Confidence, 0.001)
}

func TestAggregateScoresConfidenceSaturation(t *testing.T) {
	a := newTestAnalyzer(t)

	prev := 0.0
	for n := 1; n <= 15; n++ {
		texts := make([]string, n)
		for i := range texts {
			texts[i] = fmt.Sprintf("routine update %d", i)
		}
		got := a.AggregateScores(texts, nil)

		assert.GreaterOrEqual(t, got.Confidence, prev, "confidence must be monotonic")
		if n >= 10 {
			assert.Equal(t, 1.0, got.Confidence)
		} else {
			assert.InDelta(t, float64(n)/10.0, got.Confidence, 0.001)
		}
		prev = got.Confidence
	}
}

func TestAggregateScoresBlendingLaw(t *testing.T) {
	a := newTestAnalyzer(t)

	texts := []string{
		"Company reduces carbon emissions by 30%",
		"New diversity program launched",
		"Enhanced governance transparency",
	}

	fresh := a.AggregateScores(texts, nil)
	prior := &model.ScoreSet{EScore: 40, SScore: 60, GScore: 55, OverallScore: 51.5}
	blended := a.AggregateScores(texts, prior)

	assert.InDelta(t, 0.7*fresh.EScore+0.3*prior.EScore, blended.EScore, 0.011)
	assert.InDelta(t, 0.7*fresh.SScore+0.3*prior.SScore, blended.SScore, 0.011)
	assert.InDelta(t, 0.7*fresh.GScore+0.3*prior.GScore, blended.GScore, 0.011)
	assert.InDelta(t, 0.7*fresh.OverallScore+0.3*prior.OverallScore, blended.OverallScore, 0.011)

	// Nil prior is the identity.
	again := a.AggregateScores(texts, nil)
	assert.Equal(t, fresh, again)
}

func TestAggregateScoresRounding(t *testing.T) {
	a := newTestAnalyzer(t)

	got := a.AggregateScores([]string{"New diversity program launched"}, nil)
	for _, v := range []float64{got.EScore, got.SScore, got.GScore, got.OverallScore, got.Confidence} {
		assert.Equal(t, round2(v), v)
	}
}
