package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/impactlens/esg-cli/internal/model"
)

// Report formats.
const (
	FormatJSON    = "json"
	FormatText    = "text"
	FormatSummary = "summary"
)

// reportRiskLimit caps the risks listed in a text report.
const reportRiskLimit = 5

// RenderAnalysis formats a company analysis. Unknown formats fall back
// to JSON.
func RenderAnalysis(a *model.CompanyAnalysis, format string) (string, error) {
	switch format {
	case FormatText:
		return textReport(a), nil
	case FormatSummary:
		return summaryReport(a), nil
	default:
		return jsonReport(a)
	}
}

// RenderComparison formats a comparison result. The text format prints
// the ranking table and comparative insights; anything else is JSON.
func RenderComparison(c *model.ComparisonResult, format string) (string, error) {
	if format == FormatText || format == FormatSummary {
		return comparisonReport(c), nil
	}
	return jsonReport(c)
}

func jsonReport(v any) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "pipeline: marshal report")
	}
	return string(out), nil
}

func textReport(a *model.CompanyAnalysis) string {
	var b strings.Builder

	b.WriteString("\nESG ANALYSIS REPORT\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")
	fmt.Fprintf(&b, "Company: %s\n", a.CompanyName)
	fmt.Fprintf(&b, "Analysis Date: %s\n\n", a.AnalyzedAt.Format("2006-01-02 15:04:05 UTC"))

	b.WriteString("ESG SCORES\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	fmt.Fprintf(&b, "Environmental Score:  %v/100\n", a.Scores.EScore)
	fmt.Fprintf(&b, "Social Score:         %v/100\n", a.Scores.SScore)
	fmt.Fprintf(&b, "Governance Score:     %v/100\n", a.Scores.GScore)
	fmt.Fprintf(&b, "Overall Score:        %v/100\n", a.Scores.OverallScore)
	fmt.Fprintf(&b, "Confidence:           %v\n\n", a.Scores.Confidence)

	b.WriteString("KEY INSIGHTS\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for _, insight := range a.Insights {
		fmt.Fprintf(&b, "• %s\n", insight)
	}

	b.WriteString("\nRECOMMENDATIONS\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for _, rec := range a.Recommendations {
		fmt.Fprintf(&b, "• %s\n", rec)
	}

	if len(a.Risks) > 0 {
		b.WriteString("\nTOP RISKS IDENTIFIED\n")
		b.WriteString(strings.Repeat("-", 50) + "\n")
		for i, risk := range a.Risks {
			if i == reportRiskLimit {
				break
			}
			fmt.Fprintf(&b, "%d. [%s] %s: %s\n",
				i+1, strings.ToUpper(string(risk.Severity)), risk.Category,
				excerpt(risk.Text, 100))
		}
	}

	if a.Enrichment != "" {
		b.WriteString("\nANALYST SUMMARY\n")
		b.WriteString(strings.Repeat("-", 50) + "\n")
		b.WriteString(a.Enrichment + "\n")
	}

	return b.String()
}

// summaryReport is the brief form: overall score plus the top three
// insights.
func summaryReport(a *model.CompanyAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s ESG Summary:\n", a.CompanyName)
	fmt.Fprintf(&b, "Overall Score: %v/100\n", a.Scores.OverallScore)
	b.WriteString("Top Insights:\n")
	for i, insight := range a.Insights {
		if i == 3 {
			break
		}
		fmt.Fprintf(&b, "  • %s\n", insight)
	}
	return b.String()
}

func comparisonReport(c *model.ComparisonResult) string {
	var b strings.Builder

	b.WriteString("\nESG COMPARISON\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	b.WriteString("RANKINGS\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for _, r := range c.Rankings {
		fmt.Fprintf(&b, "%d. %-24s overall %6.2f  E %6.2f  S %6.2f  G %6.2f  risks %d\n",
			r.Rank, r.Company, r.OverallScore, r.EScore, r.SScore, r.GScore, r.RiskCount)
	}

	b.WriteString("\nCOMPARATIVE INSIGHTS\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for _, insight := range c.Insights {
		fmt.Fprintf(&b, "• %s\n", insight)
	}

	return b.String()
}
