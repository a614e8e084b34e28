package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impactlens/esg-cli/internal/model"
)

func TestDefaultLexicons(t *testing.T) {
	lex := DefaultLexicons()

	for _, cat := range model.ScorableCategories {
		assert.NotEmpty(t, lex.Keywords[cat], string(cat))
		assert.NotEmpty(t, lex.RiskKeywords[cat], string(cat))
	}
	assert.Contains(t, lex.CriticalKeywords, "fraud")
	assert.Contains(t, lex.Keywords[model.CategoryEnvironmental], "carbon")
	assert.Contains(t, lex.RiskKeywords[model.CategoryGovernance], "investigation")
}

func TestLoadLexiconsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicons.yaml")
	content := `
keywords:
  environmental: [solar]
  social: [union]
  governance: [audit]
critical_keywords: [meltdown]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lex, err := LoadLexicons(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"solar"}, lex.Keywords[model.CategoryEnvironmental])
	assert.Equal(t, []string{"meltdown"}, lex.CriticalKeywords)
	// Sections absent from the file keep defaults.
	assert.NotEmpty(t, lex.RiskKeywords[model.CategoryGovernance])
}

func TestLoadLexiconsMissingFileKeepsDefaults(t *testing.T) {
	lex, err := LoadLexicons(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
	assert.NotEmpty(t, lex.Keywords[model.CategoryEnvironmental])
}

func TestLoadLexiconsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - ["), 0o644))

	lex, err := LoadLexicons(path)
	assert.Error(t, err)
	assert.NotEmpty(t, lex.Keywords[model.CategorySocial])
}
