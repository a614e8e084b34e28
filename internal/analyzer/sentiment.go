package analyzer

import (
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/impactlens/esg-cli/internal/model"
)

// maxModelInput caps the text passed to an external sentiment model,
// matching typical transformer input limits.
const maxModelInput = 512

// SentimentModel scores text with an external model (e.g. a served
// transformer). Implementations may fail; the caller falls back to the
// lexical scorer on any error.
type SentimentModel interface {
	Score(text string) (model.SentimentLabel, float64, error)
}

// polarityPhrases are multi-word expressions checked by substring match
// before token lookup. Domain-tuned: in ESG text, reducing a harm is a
// positive signal even though "reduce" alone is not.
var polarityPhrases = map[string]float64{
	"reduces carbon":     0.6,
	"reduced carbon":     0.6,
	"reducing carbon":    0.6,
	"reduces emissions":  0.6,
	"emission reduction": 0.6,
	"carbon neutral":     0.7,
	"net zero":           0.6,
	"cutting waste":      0.5,
	"human rights abuse": -0.8,
	"child labor":        -0.9,
	"record profit":      0.6,
	"data breach":        -0.7,
}

// polarityWords maps single tokens to polarity in [-1,1].
var polarityWords = map[string]float64{
	// Positive.
	"good": 0.5, "great": 0.8, "excellent": 0.9, "strong": 0.5,
	"improve": 0.5, "improved": 0.5, "improves": 0.5, "improvement": 0.5,
	"enhanced": 0.5, "enhance": 0.5, "enhances": 0.5,
	"success": 0.6, "successful": 0.6, "achievement": 0.6, "achieved": 0.5,
	"growth": 0.4, "leading": 0.4, "leader": 0.4, "innovative": 0.5,
	"award": 0.6, "awarded": 0.6, "milestone": 0.4, "progress": 0.4,
	"sustainable": 0.4, "renewable": 0.4, "diversity": 0.4, "inclusion": 0.4,
	"transparency": 0.4, "transparent": 0.4, "accountability": 0.3,
	"expanded": 0.3, "expansion": 0.3, "new": 0.2, "positive": 0.5,
	"benefit": 0.4, "benefits": 0.4, "safe": 0.4, "safety": 0.2,
	"commitment": 0.3, "committed": 0.3, "partnership": 0.3,
	"ethical": 0.5, "integrity": 0.4, "robust": 0.4, "efficient": 0.4,

	// Negative.
	"bad": -0.5, "poor": -0.5, "weak": -0.4, "worst": -0.9,
	"fraud": -0.8, "corruption": -0.8, "scandal": -0.7, "bribery": -0.8,
	"lawsuit": -0.6, "sued": -0.6, "litigation": -0.5,
	"investigation": -0.5, "investigated": -0.5, "probe": -0.5,
	"violation": -0.6, "violations": -0.6, "breach": -0.6,
	"pollution": -0.5, "spill": -0.6, "contamination": -0.6, "toxic": -0.6,
	"fine": -0.4, "fined": -0.5, "penalty": -0.5, "penalties": -0.5,
	"discrimination": -0.7, "harassment": -0.7, "abuse": -0.7,
	"strike": -0.4, "layoffs": -0.5, "accident": -0.5, "injury": -0.5,
	"failure": -0.5, "failed": -0.5, "decline": -0.4, "loss": -0.4,
	"crisis": -0.6, "collapse": -0.7, "bankruptcy": -0.8,
	"misconduct": -0.7, "negligence": -0.6, "concern": -0.3, "concerns": -0.3,
	"criticism": -0.4, "criticized": -0.4, "allegations": -0.5, "alleged": -0.4,
	"regulators": -0.2, "recall": -0.5, "unsafe": -0.6, "illegal": -0.7,
}

// subjectivityWords maps tokens to subjectivity in [0,1]. Tokens absent
// from this table contribute nothing.
var subjectivityWords = map[string]float64{
	"good": 0.6, "great": 0.8, "excellent": 1.0, "bad": 0.7, "poor": 0.6,
	"worst": 1.0, "strong": 0.5, "weak": 0.5, "robust": 0.5,
	"innovative": 0.7, "leading": 0.5, "ethical": 0.7, "unsafe": 0.6,
	"toxic": 0.6, "concern": 0.5, "concerns": 0.5, "criticism": 0.6,
	"positive": 0.7, "successful": 0.7, "alleged": 0.8, "allegations": 0.8,
}

// negators flip the polarity of the following token.
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "without": true, "neither": true,
}

// SentimentScorer maps a text to a sentiment label and normalized score.
// A configured model is tried first; the lexical fallback always succeeds.
type SentimentScorer struct {
	model SentimentModel
}

// NewSentimentScorer creates a scorer. model may be nil, in which case
// only the lexical strategy is used.
func NewSentimentScorer(m SentimentModel) *SentimentScorer {
	return &SentimentScorer{model: m}
}

// Score analyzes the sentiment of text. Empty or whitespace-only input
// returns the neutral default; the method never fails.
func (s *SentimentScorer) Score(text string) model.SentimentResult {
	if strings.TrimSpace(text) == "" {
		return model.SentimentResult{
			Label:  model.SentimentNeutral,
			Score:  0.5,
			Method: model.SentimentMethodDefault,
		}
	}

	if s.model != nil {
		truncated := text
		if len(truncated) > maxModelInput {
			truncated = truncated[:maxModelInput]
		}
		label, score, err := s.model.Score(truncated)
		if err == nil {
			return model.SentimentResult{
				Label:  label,
				Score:  clamp01(score),
				Method: model.SentimentMethodModel,
			}
		}
		zap.L().Debug("analyzer: sentiment model failed, using lexical fallback",
			zap.Error(err))
	}

	return lexicalSentiment(text)
}

// lexicalSentiment computes polarity and subjectivity from the built-in
// word tables and maps them onto a label and normalized score.
func lexicalSentiment(text string) model.SentimentResult {
	lower := strings.ToLower(text)

	var polSum, subSum float64
	var polN, subN int

	for phrase, p := range polarityPhrases {
		if strings.Contains(lower, phrase) {
			polSum += p
			polN++
		}
	}

	tokens := tokenize(lower)
	negated := false
	for _, tok := range tokens {
		if negators[tok] {
			negated = true
			continue
		}
		if p, ok := polarityWords[tok]; ok {
			if negated {
				p = -p * 0.5
			}
			polSum += p
			polN++
		}
		if sub, ok := subjectivityWords[tok]; ok {
			subSum += sub
			subN++
		}
		negated = false
	}

	polarity := 0.0
	if polN > 0 {
		polarity = polSum / float64(polN)
	}
	subjectivity := 0.0
	if subN > 0 {
		subjectivity = subSum / float64(subN)
	}

	label := model.SentimentNeutral
	switch {
	case polarity > 0.1:
		label = model.SentimentPositive
	case polarity < -0.1:
		label = model.SentimentNegative
	}

	return model.SentimentResult{
		Label:        label,
		Score:        (polarity + 1) / 2,
		Polarity:     &polarity,
		Subjectivity: &subjectivity,
		Method:       model.SentimentMethodLexical,
	}
}

// tokenize splits lowered text into letter runs.
func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
