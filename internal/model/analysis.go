package model

import "time"

// TextSentiment pairs a text excerpt with its sentiment, for the sampled
// per-text section of a report.
type TextSentiment struct {
	Text      string          `json:"text"`
	Sentiment SentimentResult `json:"sentiment"`
}

// TextCategory pairs a text excerpt with its category assignment.
type TextCategory struct {
	Text     string         `json:"text"`
	Category CategoryResult `json:"category"`
}

// SentimentSummary aggregates sampled sentiment results.
type SentimentSummary struct {
	Positive      int     `json:"positive"`
	Negative      int     `json:"negative"`
	Neutral       int     `json:"neutral"`
	AverageScore  float64 `json:"average_score"`
	TotalAnalyzed int     `json:"total_analyzed"`
}

// CategoryDistribution counts sampled category assignments.
type CategoryDistribution struct {
	Environmental int `json:"environmental"`
	Social        int `json:"social"`
	Governance    int `json:"governance"`
	General       int `json:"general"`
	Total         int `json:"total"`
}

// CollectionStats records provenance counts for an analysis.
type CollectionStats struct {
	ArticlesCollected  int      `json:"articles_collected"`
	ESGMentions        int      `json:"esg_mentions"`
	Sources            []string `json:"sources,omitempty"`
	TotalTextsAnalyzed int      `json:"total_texts_analyzed"`
}

// CompanyAnalysis is the complete result of one analysis run for a company.
// It is immutable after construction.
type CompanyAnalysis struct {
	CompanyName     string               `json:"company_name"`
	AnalyzedAt      time.Time            `json:"analysis_timestamp"`
	Collection      CollectionStats      `json:"data_collection"`
	SampleSentiment []TextSentiment      `json:"sentiment_results,omitempty"`
	SentimentStats  SentimentSummary     `json:"sentiment_summary"`
	SampleCategory  []TextCategory       `json:"category_results,omitempty"`
	Distribution    CategoryDistribution `json:"category_distribution"`
	Scores          ScoreSet             `json:"esg_scores"`
	Risks           []RiskFinding        `json:"risks"`
	Insights        []string             `json:"insights"`
	Recommendations []string             `json:"recommendations"`
	// Enrichment is an optional LLM-generated narrative. Its absence or
	// failure never affects any other field.
	Enrichment string `json:"enrichment,omitempty"`
}

// CompanySummary is the per-company slice of a comparison.
type CompanySummary struct {
	Scores    ScoreSet         `json:"esg_scores"`
	RiskCount int              `json:"risk_count"`
	Sentiment SentimentSummary `json:"sentiment_summary"`
	Insights  []string         `json:"insights"`
}

// CompanyRanking is one row of the comparison ranking table.
// Rank 1 is the highest overall score.
type CompanyRanking struct {
	Company      string  `json:"company"`
	OverallScore float64 `json:"overall_score"`
	EScore       float64 `json:"e_score"`
	SScore       float64 `json:"s_score"`
	GScore       float64 `json:"g_score"`
	RiskCount    int     `json:"risk_count"`
	Rank         int     `json:"rank"`
}

// ComparisonResult holds a multi-company comparison.
type ComparisonResult struct {
	Companies  []string                  `json:"companies"`
	ComparedAt time.Time                 `json:"timestamp"`
	Individual map[string]CompanySummary `json:"individual_analysis"`
	Insights   []string                  `json:"comparative_insights"`
	Rankings   []CompanyRanking          `json:"rankings"`
}
