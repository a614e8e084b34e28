package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/impactlens/esg-cli/internal/model"
)

// compareConcurrency bounds the per-company fan-out.
const compareConcurrency = 4

// Compare runs the single-company pipeline independently for each
// company and assembles a comparison. Companies are processed in the
// given order with no deduplication; concurrent execution lands results
// in input-order slots, so rankings and tie-breaks match a sequential
// run exactly.
func (p *Pipeline) Compare(ctx context.Context, companies []string, opts AnalyzeOptions) (*model.ComparisonResult, error) {
	if len(companies) == 0 {
		return nil, eris.New("pipeline: at least one company required")
	}

	analyses := make([]*model.CompanyAnalysis, len(companies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(compareConcurrency)
	for i, company := range companies {
		g.Go(func() error {
			analysis, err := p.AnalyzeCompany(gctx, company, opts)
			if err != nil {
				return eris.Wrapf(err, "pipeline: analyze %s", company)
			}
			analyses[i] = analysis
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return buildComparison(companies, analyses), nil
}

// buildComparison derives summaries, comparative insights and rankings
// from per-company analyses. analyses[i] corresponds to companies[i];
// all argmax/argmin ties resolve to the earliest input index.
func buildComparison(companies []string, analyses []*model.CompanyAnalysis) *model.ComparisonResult {
	individual := make(map[string]model.CompanySummary, len(companies))
	rankings := make([]model.CompanyRanking, 0, len(companies))

	for i, company := range companies {
		a := analyses[i]
		individual[company] = model.CompanySummary{
			Scores:    a.Scores,
			RiskCount: len(a.Risks),
			Sentiment: a.SentimentStats,
			Insights:  a.Insights,
		}
		rankings = append(rankings, model.CompanyRanking{
			Company:      company,
			OverallScore: a.Scores.OverallScore,
			EScore:       a.Scores.EScore,
			SScore:       a.Scores.SScore,
			GScore:       a.Scores.GScore,
			RiskCount:    len(a.Risks),
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].OverallScore > rankings[j].OverallScore
	})
	for i := range rankings {
		rankings[i].Rank = i + 1
	}

	return &model.ComparisonResult{
		Companies:  companies,
		ComparedAt: time.Now().UTC(),
		Individual: individual,
		Insights:   comparativeInsights(companies, analyses),
		Rankings:   rankings,
	}
}

// comparativeInsights names the best overall performer, the strongest
// environmental performer and the lowest-risk company.
func comparativeInsights(companies []string, analyses []*model.CompanyAnalysis) []string {
	bestOverall, bestEnv, lowestRisk := 0, 0, 0
	for i := 1; i < len(companies); i++ {
		if analyses[i].Scores.OverallScore > analyses[bestOverall].Scores.OverallScore {
			bestOverall = i
		}
		if analyses[i].Scores.EScore > analyses[bestEnv].Scores.EScore {
			bestEnv = i
		}
		if len(analyses[i].Risks) < len(analyses[lowestRisk].Risks) {
			lowestRisk = i
		}
	}

	return []string{
		fmt.Sprintf("%s leads with overall ESG score of %v",
			companies[bestOverall], analyses[bestOverall].Scores.OverallScore),
		fmt.Sprintf("%s has strongest environmental performance", companies[bestEnv]),
		fmt.Sprintf("%s has lowest risk profile with %d identified risks",
			companies[lowestRisk], len(analyses[lowestRisk].Risks)),
	}
}
