package model

// SentimentLabel classifies the tone of a text.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNegative SentimentLabel = "negative"
	SentimentNeutral  SentimentLabel = "neutral"
)

// SentimentMethod identifies which strategy produced a sentiment result.
type SentimentMethod string

const (
	// SentimentMethodDefault is used for empty/whitespace-only input.
	SentimentMethodDefault SentimentMethod = "default"
	// SentimentMethodModel means a configured sentiment model scored the text.
	SentimentMethodModel SentimentMethod = "model"
	// SentimentMethodLexical means the lexicon fallback scored the text.
	SentimentMethodLexical SentimentMethod = "lexical"
)

// SentimentResult holds the sentiment of a single text. Score is always
// present and normalized to [0,1]. Polarity and Subjectivity are set only
// by the lexical fallback.
type SentimentResult struct {
	Label        SentimentLabel  `json:"label"`
	Score        float64         `json:"score"`
	Polarity     *float64        `json:"polarity,omitempty"`
	Subjectivity *float64        `json:"subjectivity,omitempty"`
	Method       SentimentMethod `json:"method"`
}

// IsNegative reports whether the label is negative.
func (r SentimentResult) IsNegative() bool {
	return r.Label == SentimentNegative
}
