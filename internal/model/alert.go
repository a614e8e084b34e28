package model

import "time"

// AlertSeverity classifies a persisted alert.
type AlertSeverity string

const (
	AlertInfo     AlertSeverity = "info"
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

// Alert is a persisted notification derived from risk findings.
type Alert struct {
	ID        string        `json:"id"`
	Company   string        `json:"company"`
	Message   string        `json:"message"`
	Severity  AlertSeverity `json:"severity"`
	Resolved  bool          `json:"is_resolved"`
	CreatedAt time.Time     `json:"created_at"`
}
