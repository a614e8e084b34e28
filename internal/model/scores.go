package model

// Overall score weighting: environmental and social carry equal weight and
// slightly more than governance, reflecting external-event salience.
const (
	WeightEnvironmental = 0.35
	WeightSocial        = 0.35
	WeightGovernance    = 0.30
)

// NeutralScore is the per-category default when no qualifying text exists.
// Absence of signal is not evidence of poor performance.
const NeutralScore = 50.0

// ScoreSet holds per-category and overall ESG scores on a 0-100 scale,
// plus a confidence measure in [0,1] and the number of texts analyzed.
type ScoreSet struct {
	EScore       float64 `json:"e_score"`
	SScore       float64 `json:"s_score"`
	GScore       float64 `json:"g_score"`
	OverallScore float64 `json:"overall_score"`
	Confidence   float64 `json:"confidence"`
	DataPoints   int     `json:"data_points"`
}

// DefaultScoreSet returns the neutral score set used when no text data
// is available.
func DefaultScoreSet() ScoreSet {
	return ScoreSet{
		EScore:       NeutralScore,
		SScore:       NeutralScore,
		GScore:       NeutralScore,
		OverallScore: NeutralScore,
		Confidence:   0,
	}
}

// Score returns the score for a scorable category, or the overall score
// for any other value.
func (s ScoreSet) Score(c Category) float64 {
	switch c {
	case CategoryEnvironmental:
		return s.EScore
	case CategorySocial:
		return s.SScore
	case CategoryGovernance:
		return s.GScore
	}
	return s.OverallScore
}
