package analyzer

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactlens/esg-cli/internal/model"
)

// staticVectorizer returns a fixed feature map for any text.
type staticVectorizer struct {
	features map[string]float64
}

func (v staticVectorizer) Transform(string) map[string]float64 {
	return v.features
}

// staticModel returns fixed probabilities or a fixed error.
type staticModel struct {
	probs map[model.Category]float64
	err   error
}

func (m staticModel) Probabilities(map[string]float64) (map[model.Category]float64, error) {
	return m.probs, m.err
}

func stubArtifact(probs map[model.Category]float64, err error) *ArtifactHandle {
	return NewStaticArtifactHandle(&Artifact{
		Vectorizer: staticVectorizer{},
		Model:      staticModel{probs: probs, err: err},
	})
}

func TestClassifyEmptyInput(t *testing.T) {
	c := NewClassifier(DefaultLexicons(), nil)

	for _, text := range []string{"", "   "} {
		got := c.Classify(text)
		assert.Equal(t, model.CategoryUnknown, got.Category)
		assert.Zero(t, got.Confidence)
		assert.Empty(t, got.Scores)
	}
}

func TestClassifyNoSignalReturnsGeneral(t *testing.T) {
	c := NewClassifier(DefaultLexicons(), nil)

	got := c.Classify("Quarterly meeting scheduled for Tuesday")
	assert.Equal(t, model.CategoryGeneral, got.Category)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Equal(t, model.ClassifyMethodKeyword, got.Method)
	for _, cat := range model.ScorableCategories {
		assert.Zero(t, got.Scores[cat])
	}
}

func TestClassifyKeywordMode(t *testing.T) {
	c := NewClassifier(DefaultLexicons(), nil)

	tests := []struct {
		name     string
		text     string
		want     model.Category
		wantConf float64
	}{
		{"environmental", "Company reduces carbon emissions by 30%", model.CategoryEnvironmental, 1.0},
		{"social", "New diversity program launched", model.CategorySocial, 1.0},
		{"governance", "Enhanced governance transparency", model.CategoryGovernance, 1.0},
		{"mixed leans environmental", "carbon emissions and climate risk for the board", model.CategoryEnvironmental, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			assert.Equal(t, tt.want, got.Category)
			assert.InDelta(t, tt.wantConf, got.Confidence, 0.001)
			assert.Equal(t, model.ClassifyMethodKeyword, got.Method)
		})
	}
}

func TestClassifyTieBreakOrder(t *testing.T) {
	c := NewClassifier(DefaultLexicons(), nil)

	// One keyword hit per category: environmental wins the tie.
	got := c.Classify("carbon diversity board")
	assert.Equal(t, model.CategoryEnvironmental, got.Category)
	assert.InDelta(t, 1.0/3.0, got.Confidence, 0.001)

	// Social vs governance tie without environmental: social wins.
	got = c.Classify("diversity board")
	assert.Equal(t, model.CategorySocial, got.Category)
}

func TestClassifyHybrid(t *testing.T) {
	// Strong governance probability overrides a single social keyword hit.
	artifact := stubArtifact(map[model.Category]float64{
		model.CategoryEnvironmental: 0.05,
		model.CategorySocial:        0.05,
		model.CategoryGovernance:    0.90,
	}, nil)
	c := NewClassifier(DefaultLexicons(), artifact)

	got := c.Classify("employee handbook updated")
	// social keyword "employee": 1 hit; governance: 0.9*10 = 9.
	assert.Equal(t, model.CategoryGovernance, got.Category)
	assert.Equal(t, model.ClassifyMethodHybrid, got.Method)
	assert.Equal(t, model.CategoryGovernance, got.Prediction)
	require.InDelta(t, 9.0, got.Scores[model.CategoryGovernance], 0.001)
	assert.InDelta(t, 9.0/11.0, got.Confidence, 0.001)
}

func TestClassifyArtifactFailureFallsBackToKeywords(t *testing.T) {
	artifact := stubArtifact(nil, eris.New("feature mismatch"))
	c := NewClassifier(DefaultLexicons(), artifact)

	got := c.Classify("carbon emissions report published")
	assert.Equal(t, model.CategoryEnvironmental, got.Category)
	assert.Equal(t, model.ClassifyMethodKeyword, got.Method)
	assert.Empty(t, got.Prediction)
}

func TestClassifySubstringMatch(t *testing.T) {
	c := NewClassifier(DefaultLexicons(), nil)

	// Keywords match as substrings, not tokens.
	got := c.Classify("decarbonization roadmap")
	assert.Equal(t, model.CategoryEnvironmental, got.Category)
}
