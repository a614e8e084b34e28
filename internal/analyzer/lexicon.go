// Package analyzer implements the ESG scoring and risk-detection engine:
// sentiment scoring, category classification, weighted score aggregation
// with historical blending, risk extraction with severity tiering, and
// rule-based insight generation.
package analyzer

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/impactlens/esg-cli/internal/model"
)

// Lexicons holds the keyword tables driving classification and risk
// detection. They are plain data so tests and deployments can swap them
// without touching the matching code.
type Lexicons struct {
	// Keywords maps each scorable category to its classification terms.
	Keywords map[model.Category][]string `yaml:"keywords"`
	// RiskKeywords maps each scorable category to its risk-indicating terms.
	// Order matters: detection takes the first match.
	RiskKeywords map[model.Category][]string `yaml:"risk_keywords"`
	// CriticalKeywords escalate a finding to critical when sentiment is
	// strongly negative.
	CriticalKeywords []string `yaml:"critical_keywords"`
}

// DefaultLexicons returns the built-in ESG keyword tables.
func DefaultLexicons() Lexicons {
	return Lexicons{
		Keywords: map[model.Category][]string{
			model.CategoryEnvironmental: {
				"carbon", "emissions", "climate", "renewable", "sustainable",
				"pollution", "waste", "recycling", "energy efficiency", "green",
				"fossil fuel", "clean energy", "biodiversity", "conservation",
				"carbon footprint", "greenhouse gas", "solar", "wind power",
			},
			model.CategorySocial: {
				"diversity", "inclusion", "labor", "human rights", "safety",
				"community", "employee", "workforce", "fair trade", "equity",
				"discrimination", "working conditions", "health", "welfare",
				"stakeholder", "customer satisfaction", "training", "education",
			},
			model.CategoryGovernance: {
				"board", "ethics", "compliance", "transparency", "accountability",
				"corruption", "fraud", "audit", "shareholder", "executive compensation",
				"risk management", "internal controls", "whistleblower", "disclosure",
				"corporate governance", "independence", "integrity", "regulation",
			},
		},
		RiskKeywords: map[model.Category][]string{
			model.CategoryEnvironmental: {
				"pollution", "spill", "contamination", "violation", "fine", "lawsuit",
			},
			model.CategorySocial: {
				"discrimination", "harassment", "violation", "lawsuit", "strike", "accident",
			},
			model.CategoryGovernance: {
				"fraud", "corruption", "scandal", "investigation", "lawsuit", "breach",
			},
		},
		CriticalKeywords: []string{
			"fraud", "corruption", "lawsuit", "investigation", "spill",
		},
	}
}

// LoadLexicons reads lexicon tables from a YAML file. Sections missing from
// the file keep their built-in defaults.
func LoadLexicons(path string) (Lexicons, error) {
	lex := DefaultLexicons()

	data, err := os.ReadFile(path)
	if err != nil {
		return lex, eris.Wrapf(err, "analyzer: read lexicons %s", path)
	}

	var file Lexicons
	if err := yaml.Unmarshal(data, &file); err != nil {
		return lex, eris.Wrapf(err, "analyzer: parse lexicons %s", path)
	}

	if len(file.Keywords) > 0 {
		lex.Keywords = file.Keywords
	}
	if len(file.RiskKeywords) > 0 {
		lex.RiskKeywords = file.RiskKeywords
	}
	if len(file.CriticalKeywords) > 0 {
		lex.CriticalKeywords = file.CriticalKeywords
	}

	return lex, nil
}
