// Package enrich generates an optional narrative summary for a completed
// analysis using a language model. Enrichment failures never affect the
// analysis itself.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/impactlens/esg-cli/internal/config"
	"github.com/impactlens/esg-cli/internal/model"
	"github.com/impactlens/esg-cli/internal/resilience"
	"github.com/impactlens/esg-cli/pkg/anthropic"
)

const systemPrompt = `You are an ESG analyst. Given score and risk data for a company, write a concise narrative assessment (3-5 sentences) of its ESG posture. Be factual and avoid speculation beyond the supplied data.`

// Enricher produces a narrative summary for an analysis.
type Enricher interface {
	Summarize(ctx context.Context, analysis *model.CompanyAnalysis) (string, error)
}

// AnthropicEnricher implements Enricher against the Anthropic API.
type AnthropicEnricher struct {
	client anthropic.Client
	cfg    config.AnthropicConfig
	retry  resilience.RetryConfig
}

// New creates an AnthropicEnricher with the given retry policy. Returns
// an error when no API key is configured.
func New(cfg config.AnthropicConfig, retry resilience.RetryConfig) (*AnthropicEnricher, error) {
	if cfg.Key == "" {
		return nil, eris.New("enrich: anthropic key not configured")
	}
	return &AnthropicEnricher{
		client: anthropic.NewClient(cfg.Key),
		cfg:    cfg,
		retry:  retry,
	}, nil
}

// NewWithClient creates an AnthropicEnricher with an injected client.
func NewWithClient(client anthropic.Client, cfg config.AnthropicConfig) *AnthropicEnricher {
	return &AnthropicEnricher{
		client: client,
		cfg:    cfg,
		retry:  resilience.DefaultRetryConfig(),
	}
}

// Summarize asks the model for a narrative assessment of the analysis.
func (e *AnthropicEnricher) Summarize(ctx context.Context, analysis *model.CompanyAnalysis) (string, error) {
	req := anthropic.MessageRequest{
		Model:     e.cfg.Model,
		MaxTokens: e.cfg.MaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(systemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: buildPrompt(analysis)},
		},
	}

	retry := e.retry
	retry.OnRetry = resilience.RetryLogger("anthropic", "summarize")
	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return e.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return "", eris.Wrapf(err, "enrich: summarize %s", analysis.CompanyName)
	}

	resp.Usage.LogCost(e.cfg.Model, "enrich")

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.Errorf("enrich: empty response for %s", analysis.CompanyName)
	}
	return text, nil
}

// buildPrompt renders the analysis facts the model should narrate.
func buildPrompt(a *model.CompanyAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n", a.CompanyName)
	fmt.Fprintf(&b, "ESG scores (0-100): environmental %.2f, social %.2f, governance %.2f, overall %.2f (confidence %.2f, %d data points)\n",
		a.Scores.EScore, a.Scores.SScore, a.Scores.GScore, a.Scores.OverallScore, a.Scores.Confidence, a.Scores.DataPoints)
	fmt.Fprintf(&b, "Texts analyzed: %d; sources: %s\n",
		a.Collection.TotalTextsAnalyzed, strings.Join(a.Collection.Sources, ", "))

	if len(a.Risks) > 0 {
		b.WriteString("Risks:\n")
		for _, r := range a.Risks {
			fmt.Fprintf(&b, "- [%s] %s risk (keyword %q): %s\n", r.Severity, r.Category, r.Keyword, r.Text)
		}
	} else {
		b.WriteString("Risks: none detected\n")
	}

	if len(a.Insights) > 0 {
		b.WriteString("Insights:\n")
		for _, in := range a.Insights {
			fmt.Fprintf(&b, "- %s\n", in)
		}
	}
	return b.String()
}

// Static is an Enricher returning a fixed summary. It backs tests and the
// --no-enrich path.
type Static struct {
	Summary string
	Err     error
}

func (s *Static) Summarize(_ context.Context, _ *model.CompanyAnalysis) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Summary, nil
}

// Summarize attaches an enrichment summary to the analysis, logging and
// swallowing any failure.
func Summarize(ctx context.Context, e Enricher, analysis *model.CompanyAnalysis) {
	if e == nil || analysis == nil {
		return
	}
	summary, err := e.Summarize(ctx, analysis)
	if err != nil {
		zap.L().Warn("enrich: summarize failed",
			zap.String("company", analysis.CompanyName),
			zap.Error(err),
		)
		return
	}
	analysis.Enrichment = summary
}
