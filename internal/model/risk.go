package model

import "time"

// Severity tiers a risk finding. Ordering is critical > high > medium > low.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRanks orders severities for sorting; higher ranks sort first.
var severityRanks = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the numeric rank of the severity (critical=4 ... low=1).
// Unknown severities rank 0.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// RiskFinding is a single detected ESG risk. Findings are produced fresh
// per analysis run and ordered descending by severity rank.
type RiskFinding struct {
	// Text is the first 200 characters of the triggering text.
	Text           string    `json:"text"`
	Category       Category  `json:"category"`
	Keyword        string    `json:"keyword"`
	Severity       Severity  `json:"severity"`
	SentimentScore float64   `json:"sentiment_score"`
	Confidence     float64   `json:"confidence"`
	Timestamp      time.Time `json:"timestamp"`
}

// CountBySeverity returns how many findings carry the given severity.
func CountBySeverity(findings []RiskFinding, sev Severity) int {
	n := 0
	for i := range findings {
		if findings[i].Severity == sev {
			n++
		}
	}
	return n
}
