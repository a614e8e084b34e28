package analyzer

import (
	"math"

	"github.com/impactlens/esg-cli/internal/model"
)

// blendAlpha is the weight of freshly computed scores when blending
// against a historical prior (recency-weighted exponential smoothing).
const blendAlpha = 0.7

// confidenceSaturation is the text count at which aggregation confidence
// reaches 1.0.
const confidenceSaturation = 10.0

// AggregateScores combines per-text sentiment and category assignments
// into category-level E/S/G scores, an overall weighted score and a
// confidence measure. A nil prior means no blending; with a prior, every
// score blends as 0.7*fresh + 0.3*prior. Empty texts returns the neutral
// default set.
func (a *Analyzer) AggregateScores(texts []string, prior *model.ScoreSet) model.ScoreSet {
	if len(texts) == 0 {
		return model.DefaultScoreSet()
	}

	buckets := map[model.Category][]float64{
		model.CategoryEnvironmental: nil,
		model.CategorySocial:        nil,
		model.CategoryGovernance:    nil,
	}

	for _, text := range texts {
		if isBlank(text) {
			continue
		}

		sentiment := a.ScoreSentiment(text)
		category := a.ClassifyCategory(text)
		if !category.Category.Scorable() {
			// general/unknown texts contribute no category signal.
			continue
		}

		weighted := sentiment.Score * 100 * category.Confidence
		buckets[category.Category] = append(buckets[category.Category], weighted)
	}

	eScore := bucketMean(buckets[model.CategoryEnvironmental])
	sScore := bucketMean(buckets[model.CategorySocial])
	gScore := bucketMean(buckets[model.CategoryGovernance])

	overall := eScore*model.WeightEnvironmental +
		sScore*model.WeightSocial +
		gScore*model.WeightGovernance

	if prior != nil {
		eScore = blend(eScore, prior.EScore)
		sScore = blend(sScore, prior.SScore)
		gScore = blend(gScore, prior.GScore)
		overall = blend(overall, prior.OverallScore)
	}

	confidence := math.Min(float64(len(texts))/confidenceSaturation, 1.0)

	return model.ScoreSet{
		EScore:       round2(eScore),
		SScore:       round2(sScore),
		GScore:       round2(gScore),
		OverallScore: round2(overall),
		Confidence:   round2(confidence),
		DataPoints:   len(texts),
	}
}

// bucketMean averages a category bucket, defaulting to the neutral score
// when no qualifying text produced a value.
func bucketMean(values []float64) float64 {
	if len(values) == 0 {
		return model.NeutralScore
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func blend(fresh, prior float64) float64 {
	return blendAlpha*fresh + (1-blendAlpha)*prior
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func isBlank(text string) bool {
	for _, r := range text {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
