package analyzer

import (
	"strings"

	"go.uber.org/zap"

	"github.com/impactlens/esg-cli/internal/model"
)

// modelWeight scales learned probabilities onto the keyword-count scale:
// a certain prediction counts like ten keyword hits, since keyword counts
// are typically small integers.
const modelWeight = 10.0

// Classifier assigns ESG categories by combining keyword-lexicon matches
// with an optional trained classifier's probabilities.
type Classifier struct {
	lex      Lexicons
	artifact *ArtifactHandle
}

// NewClassifier creates a classifier. artifact may be nil for
// keyword-only mode.
func NewClassifier(lex Lexicons, artifact *ArtifactHandle) *Classifier {
	return &Classifier{lex: lex, artifact: artifact}
}

// Classify assigns a category to text. Empty input returns
// CategoryUnknown with zero confidence; text with no ESG signal returns
// CategoryGeneral with zero confidence. Ties resolve to the first
// category in model.ScorableCategories order.
func (c *Classifier) Classify(text string) model.CategoryResult {
	if strings.TrimSpace(text) == "" {
		return model.CategoryResult{
			Category: model.CategoryUnknown,
			Scores:   map[model.Category]float64{},
		}
	}

	lower := strings.ToLower(text)

	scores := make(map[model.Category]float64, len(model.ScorableCategories))
	for _, cat := range model.ScorableCategories {
		var hits float64
		for _, kw := range c.lex.Keywords[cat] {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		scores[cat] = hits
	}

	method := model.ClassifyMethodKeyword
	var prediction model.Category
	if art := c.artifactOrNil(); art != nil {
		label, probs, err := art.Predict(text)
		if err != nil {
			// A broken artifact must not block keyword classification.
			zap.L().Debug("analyzer: classifier artifact failed, keyword scores only",
				zap.Error(err))
		} else {
			for cat, p := range probs {
				scores[cat] += p * modelWeight
			}
			prediction = label
			method = model.ClassifyMethodHybrid
		}
	}

	var total float64
	for _, v := range scores {
		total += v
	}
	if total == 0 {
		return model.CategoryResult{
			Category: model.CategoryGeneral,
			Scores:   scores,
			Method:   model.ClassifyMethodKeyword,
		}
	}

	// Argmax in fixed enumeration order: ties keep the earlier category.
	primary := model.ScorableCategories[0]
	for _, cat := range model.ScorableCategories[1:] {
		if scores[cat] > scores[primary] {
			primary = cat
		}
	}

	return model.CategoryResult{
		Category:   primary,
		Confidence: scores[primary] / total,
		Scores:     scores,
		Prediction: prediction,
		Method:     method,
	}
}

func (c *Classifier) artifactOrNil() *Artifact {
	if c.artifact == nil {
		return nil
	}
	return c.artifact.Get()
}
