package model

// Category is an ESG category assignment for a text.
type Category string

const (
	CategoryEnvironmental Category = "environmental"
	CategorySocial        Category = "social"
	CategoryGovernance    Category = "governance"
	// CategoryGeneral means the text carried no ESG signal.
	CategoryGeneral Category = "general"
	// CategoryUnknown is returned only for empty input.
	CategoryUnknown Category = "unknown"
)

// ScorableCategories is the fixed enumeration order for the three scorable
// categories. Argmax ties resolve to the first entry in this order; this
// ordering is a contract, not an accident of map iteration.
var ScorableCategories = []Category{
	CategoryEnvironmental,
	CategorySocial,
	CategoryGovernance,
}

// Scorable reports whether the category contributes to E/S/G scores.
func (c Category) Scorable() bool {
	switch c {
	case CategoryEnvironmental, CategorySocial, CategoryGovernance:
		return true
	}
	return false
}

// ClassifyMethod identifies how a category was assigned.
type ClassifyMethod string

const (
	// ClassifyMethodKeyword means only the keyword lexicon contributed.
	ClassifyMethodKeyword ClassifyMethod = "keyword"
	// ClassifyMethodHybrid means a trained classifier also contributed.
	ClassifyMethodHybrid ClassifyMethod = "hybrid"
)

// CategoryResult holds the category assignment for a single text.
// Category is the key with the maximal value in Scores; if every value is
// zero the category is CategoryGeneral with zero confidence.
type CategoryResult struct {
	Category   Category             `json:"category"`
	Confidence float64              `json:"confidence"`
	Scores     map[Category]float64 `json:"scores"`
	Prediction Category             `json:"ml_prediction,omitempty"`
	Method     ClassifyMethod       `json:"method,omitempty"`
}
