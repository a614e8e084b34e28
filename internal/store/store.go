package store

import (
	"context"
	"time"

	"github.com/impactlens/esg-cli/internal/model"
)

// ScoreRecord is one row of a company's score history.
type ScoreRecord struct {
	ID         string         `json:"id"`
	Company    string         `json:"company"`
	Scores     model.ScoreSet `json:"scores"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// AlertFilter specifies criteria for listing alerts.
type AlertFilter struct {
	Company         string              `json:"company,omitempty"`
	Severity        model.AlertSeverity `json:"severity,omitempty"`
	IncludeResolved bool                `json:"include_resolved,omitempty"`
	Limit           int                 `json:"limit,omitempty"`
}

// Store defines the persistence interface for analyses, score history,
// risk findings, alerts, and the collected-text cache.
type Store interface {
	// Analyses
	SaveAnalysis(ctx context.Context, analysis *model.CompanyAnalysis) (string, error)
	GetLatestAnalysis(ctx context.Context, company string) (*model.CompanyAnalysis, error)

	// Score history. LatestScores returns (nil, nil) when the company has
	// no recorded history.
	SaveScores(ctx context.Context, company string, scores model.ScoreSet) (*ScoreRecord, error)
	LatestScores(ctx context.Context, company string) (*model.ScoreSet, error)
	ScoreHistory(ctx context.Context, company string, limit int) ([]ScoreRecord, error)
	ImportScores(ctx context.Context, records []ScoreRecord) (int64, error)

	// Risk findings
	SaveRisks(ctx context.Context, analysisID, company string, risks []model.RiskFinding) error
	ListRisks(ctx context.Context, company string, limit int) ([]model.RiskFinding, error)

	// Alerts
	CreateAlert(ctx context.Context, alert model.Alert) (*model.Alert, error)
	ListAlerts(ctx context.Context, filter AlertFilter) ([]model.Alert, error)
	ResolveAlert(ctx context.Context, alertID string) error

	// Collected-text cache
	GetCachedTexts(ctx context.Context, key string) ([]string, error)
	SetCachedTexts(ctx context.Context, key string, texts []string, ttl time.Duration) error
	DeleteExpiredTexts(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
