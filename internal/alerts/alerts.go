// Package alerts derives persisted alerts from risk findings. Alert
// creation is best-effort: a storage failure is logged and skipped so a
// bad row never aborts an analysis run.
package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/impactlens/esg-cli/internal/model"
	"github.com/impactlens/esg-cli/internal/store"
)

// Deriver converts risk findings into alert rows and persists them.
type Deriver struct {
	store store.Store
}

// NewDeriver creates a Deriver backed by the given store.
func NewDeriver(s store.Store) *Deriver {
	return &Deriver{store: s}
}

// SeverityFor maps a risk severity to an alert severity. Critical
// findings raise critical alerts, high findings raise warnings, and
// everything else is informational.
func SeverityFor(sev model.Severity) model.AlertSeverity {
	switch sev {
	case model.SeverityCritical:
		return model.AlertCritical
	case model.SeverityHigh:
		return model.AlertWarning
	default:
		return model.AlertInfo
	}
}

// FromFinding builds an unsaved alert for a single risk finding.
func FromFinding(company string, finding model.RiskFinding) model.Alert {
	return model.Alert{
		Company: company,
		Message: fmt.Sprintf("%s risk detected (%s/%s): %s",
			finding.Severity, finding.Category, finding.Keyword, finding.Text),
		Severity:  SeverityFor(finding.Severity),
		CreatedAt: time.Now().UTC(),
	}
}

// DeriveAndSave creates one alert per finding and persists each.
// Returns the alerts that were successfully saved.
func (d *Deriver) DeriveAndSave(ctx context.Context, company string, findings []model.RiskFinding) []model.Alert {
	var saved []model.Alert
	for _, finding := range findings {
		alert, err := d.store.CreateAlert(ctx, FromFinding(company, finding))
		if err != nil {
			zap.L().Warn("failed to save alert",
				zap.String("company", company),
				zap.String("keyword", finding.Keyword),
				zap.Error(err))
			continue
		}
		saved = append(saved, *alert)
	}
	if len(saved) > 0 {
		zap.L().Info("alerts created",
			zap.String("company", company),
			zap.Int("count", len(saved)))
	}
	return saved
}

// List returns alerts matching the filter.
func (d *Deriver) List(ctx context.Context, filter store.AlertFilter) ([]model.Alert, error) {
	alerts, err := d.store.ListAlerts(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "alerts: list")
	}
	return alerts, nil
}

// Resolve marks a single alert resolved.
func (d *Deriver) Resolve(ctx context.Context, alertID string) error {
	if err := d.store.ResolveAlert(ctx, alertID); err != nil {
		return eris.Wrapf(err, "alerts: resolve %s", alertID)
	}
	return nil
}
