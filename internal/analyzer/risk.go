package analyzer

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/impactlens/esg-cli/internal/model"
)

// riskExcerptLen caps the text excerpt carried on a finding.
const riskExcerptLen = 200

// DetectRisks scans texts for risk-indicating keywords conditioned on
// negative sentiment and returns findings ordered by descending severity.
//
// The threshold parameter is accepted for interface compatibility but
// does not gate admission: a text is risky when its sentiment label is
// negative or its score falls below the fixed 0.4 cutoff. This mirrors
// the established scoring behavior; changing it is a product decision.
func (a *Analyzer) DetectRisks(texts []string, threshold float64) []model.RiskFinding {
	zap.L().Debug("analyzer: detecting risks",
		zap.Int("texts", len(texts)),
		zap.Float64("threshold", threshold))

	var findings []model.RiskFinding
	now := time.Now().UTC()

	for _, text := range texts {
		if isBlank(text) {
			continue
		}

		sentiment := a.ScoreSentiment(text)
		if !sentiment.IsNegative() && sentiment.Score >= 0.4 {
			continue
		}
		category := a.ClassifyCategory(text)

		lower := strings.ToLower(text)
		riskCat, keyword, ok := a.firstRiskMatch(lower)
		if !ok {
			continue
		}

		findings = append(findings, model.RiskFinding{
			Text:           excerpt(text, riskExcerptLen),
			Category:       riskCat,
			Keyword:        keyword,
			Severity:       riskSeverity(sentiment.Score, keyword, a.lex.CriticalKeywords),
			SentimentScore: sentiment.Score,
			Confidence:     category.Confidence,
			Timestamp:      now,
		})
	}

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Severity.Rank() > findings[j].Severity.Rank()
	})

	return findings
}

// firstRiskMatch scans the risk tables in fixed category order and
// returns the first (category, keyword) pair present in the text. A text
// yields at most one finding.
func (a *Analyzer) firstRiskMatch(lower string) (model.Category, string, bool) {
	for _, cat := range model.ScorableCategories {
		for _, kw := range a.lex.RiskKeywords[cat] {
			if strings.Contains(lower, kw) {
				return cat, kw, true
			}
		}
	}
	return "", "", false
}

// riskSeverity tiers a finding from the sentiment score and the matched
// keyword.
func riskSeverity(sentimentScore float64, keyword string, critical []string) model.Severity {
	if sentimentScore < 0.3 {
		for _, ck := range critical {
			if keyword == ck {
				return model.SeverityCritical
			}
		}
	}
	switch {
	case sentimentScore < 0.25:
		return model.SeverityHigh
	case sentimentScore < 0.4:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

// excerpt keeps the first limit characters, never splitting a rune.
func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return text
}
