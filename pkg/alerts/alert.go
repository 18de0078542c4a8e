// Package alerts turns qualifying analysis reports into persisted,
// operator-facing alert records and forwards them to the notification
// channel. Persistence and notification are deliberately decoupled: an alert
// exists once stored, whether or not anyone was told about it.
package alerts

import (
	"time"
)

// Alert statuses.
const (
	StatusOpen     = "OPEN"
	StatusResolved = "RESOLVED"
)

// AlertFloor is the minimum final score that becomes an alert. Scores below
// the MEDIUM band are recorded as messages only.
const AlertFloor = 40

// Severity bands over the 0-100 risk score.
const (
	SeverityCritical = "CRITICAL"
	SeverityHigh     = "HIGH"
	SeverityMedium   = "MEDIUM"
	SeverityLow      = "LOW"

	criticalFloor = 85
	highFloor     = 70
)

// SeverityFor bands a risk score. Only scores at or above AlertFloor reach
// alert creation, so LOW appears on listings of historical data only.
func SeverityFor(riskScore int) string {
	switch {
	case riskScore >= criticalFloor:
		return SeverityCritical
	case riskScore >= highFloor:
		return SeverityHigh
	case riskScore >= AlertFloor:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Alert is the persisted operator-facing record. AlertID is unique and
// immutable after creation; only Resolve mutates the record.
type Alert struct {
	AlertID           string     `json:"alert_id"`
	CreatedAt         time.Time  `json:"created_at"`
	Severity          string     `json:"severity"`
	Status            string     `json:"status"`
	SourcePlatform    string     `json:"source_platform"`
	SenderName        string     `json:"sender_name"`
	SenderProfile     string     `json:"sender_profile"`
	MessageContent    string     `json:"message_content"`
	RiskScore         int        `json:"risk_score"`
	ThreatType        string     `json:"threat_type"`
	Indicators        string     `json:"indicators"`
	RecommendedAction string     `json:"recommended_action"`
	MLConfidence      float64    `json:"ml_confidence"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}
