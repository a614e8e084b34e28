package analyzer

import (
	"github.com/impactlens/esg-cli/internal/model"
)

// Analyzer is the ESG analysis engine: sentiment scoring, category
// classification, score aggregation, risk detection and insight
// generation. It is constructed once at process start and is safe for
// concurrent use; all per-call state is local.
type Analyzer struct {
	sentiment  *SentimentScorer
	classifier *Classifier
	lex        Lexicons
}

// Option configures an Analyzer.
type Option func(*options)

type options struct {
	sentimentModel SentimentModel
	artifact       *ArtifactHandle
}

// WithSentimentModel configures an external sentiment model tried before
// the lexical fallback.
func WithSentimentModel(m SentimentModel) Option {
	return func(o *options) { o.sentimentModel = m }
}

// WithArtifact configures the trained classifier artifact handle.
func WithArtifact(h *ArtifactHandle) Option {
	return func(o *options) { o.artifact = h }
}

// New creates an Analyzer over the given lexicons.
func New(lex Lexicons, opts ...Option) *Analyzer {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Analyzer{
		sentiment:  NewSentimentScorer(o.sentimentModel),
		classifier: NewClassifier(lex, o.artifact),
		lex:        lex,
	}
}

// ScoreSentiment analyzes the sentiment of a single text.
func (a *Analyzer) ScoreSentiment(text string) model.SentimentResult {
	return a.sentiment.Score(text)
}

// ClassifyCategory assigns an ESG category to a single text.
func (a *Analyzer) ClassifyCategory(text string) model.CategoryResult {
	return a.classifier.Classify(text)
}
