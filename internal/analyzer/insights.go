package analyzer

import (
	"fmt"
	"strconv"

	"github.com/impactlens/esg-cli/internal/model"
)

// Insight thresholds on the 0-100 scale.
const (
	strongThreshold    = 70.0
	moderateThreshold  = 50.0
	attentionThreshold = 40.0
)

// GenerateInsights produces human-readable observations from a score set
// and a risk list. The rules are fixed; same inputs, same strings.
func GenerateInsights(scores model.ScoreSet, risks []model.RiskFinding) []string {
	var insights []string

	overall := formatScore(scores.OverallScore)
	switch {
	case scores.OverallScore >= strongThreshold:
		insights = append(insights,
			fmt.Sprintf("Strong overall ESG performance with a score of %s/100", overall))
	case scores.OverallScore >= moderateThreshold:
		insights = append(insights,
			fmt.Sprintf("Moderate ESG performance with room for improvement (score: %s/100)", overall))
	default:
		insights = append(insights,
			fmt.Sprintf("ESG performance needs significant improvement (score: %s/100)", overall))
	}

	if scores.EScore >= strongThreshold {
		insights = append(insights, "Environmental practices are strong")
	} else if scores.EScore < attentionThreshold {
		insights = append(insights, "Environmental performance requires immediate attention")
	}

	if scores.SScore >= strongThreshold {
		insights = append(insights, "Social responsibility initiatives are well-executed")
	} else if scores.SScore < attentionThreshold {
		insights = append(insights, "Social practices need improvement")
	}

	if scores.GScore >= strongThreshold {
		insights = append(insights, "Governance structure is robust")
	} else if scores.GScore < attentionThreshold {
		insights = append(insights, "Governance practices require strengthening")
	}

	if n := model.CountBySeverity(risks, model.SeverityCritical); n > 0 {
		insights = append(insights,
			fmt.Sprintf("%d critical risk(s) detected requiring immediate action", n))
	}
	if n := model.CountBySeverity(risks, model.SeverityHigh); n > 0 {
		insights = append(insights,
			fmt.Sprintf("%d high-priority risk(s) identified", n))
	}

	return insights
}

// GenerateRecommendations produces remediation suggestions mirroring the
// insight thresholds at the 50-point line. The list is never empty.
func GenerateRecommendations(scores model.ScoreSet, risks []model.RiskFinding) []string {
	var recs []string

	if scores.EScore < moderateThreshold {
		recs = append(recs, "Enhance environmental initiatives and transparent reporting")
	}
	if scores.SScore < moderateThreshold {
		recs = append(recs, "Improve social responsibility programs and stakeholder engagement")
	}
	if scores.GScore < moderateThreshold {
		recs = append(recs, "Strengthen governance practices and compliance frameworks")
	}

	if n := model.CountBySeverity(risks, model.SeverityCritical); n > 0 {
		recs = append(recs, fmt.Sprintf("Address %d critical risk(s) immediately", n))
	}
	if n := model.CountBySeverity(risks, model.SeverityHigh); n > 0 {
		recs = append(recs, fmt.Sprintf("Develop mitigation plans for %d high-priority risk(s)", n))
	}

	if len(recs) == 0 {
		recs = append(recs, "Maintain current ESG practices and continue monitoring")
	}

	return recs
}

// formatScore renders a rounded score without trailing zeros (72.5, not
// 72.50).
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
