package alerts

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/honeyshield/honeyshield/pkg/analysis"
	"github.com/honeyshield/honeyshield/pkg/audit"
)

// Store persists alert records. Each operation is atomic at single-record
// granularity.
type Store interface {
	InsertAlert(ctx context.Context, a *Alert) error
	ResolveAlert(ctx context.Context, alertID string, at time.Time) (bool, error)
	ListRecentAlerts(ctx context.Context, since time.Time, severity string) ([]Alert, error)
	ClearResolvedAlerts(ctx context.Context) (int64, error)
}

// Notifier delivers an alert to an external channel. Send reports a
// structured outcome instead of returning an error: dispatch failure is an
// expected condition, not an exception.
type Notifier interface {
	IsConfigured() bool
	Send(ctx context.Context, a Alert) (bool, string)
}

// Manager owns the alert lifecycle: create on qualifying reports, resolve,
// list, bulk-clear.
type Manager struct {
	store    Store
	notifier Notifier
	cooldown *Cooldown
	auditLog *audit.Logger
	platform string
	now      func() time.Time
}

// ManagerOption customizes a Manager.
type ManagerOption func(*Manager)

// WithNotifier wires the notification channel.
func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) { m.notifier = n }
}

// WithCooldown suppresses repeat notifications from the same sender within a
// window. Persistence is never suppressed.
func WithCooldown(c *Cooldown) ManagerOption {
	return func(m *Manager) { m.cooldown = c }
}

// WithAuditLog records lifecycle events to the audit trail.
func WithAuditLog(l *audit.Logger) ManagerOption {
	return func(m *Manager) { m.auditLog = l }
}

// WithSourcePlatform overrides the default source platform label.
func WithSourcePlatform(platform string) ManagerOption {
	return func(m *Manager) { m.platform = platform }
}

func withClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a manager over the given store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		platform: "LinkedIn",
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ProcessReport creates an alert when the report's final score reaches the
// alerting floor. Below the floor it returns (nil, nil) and nothing is
// persisted here.
func (m *Manager) ProcessReport(ctx context.Context, msg analysis.Message, report *analysis.Report) (*Alert, error) {
	if report.FinalScore < AlertFloor {
		return nil, nil
	}

	a := &Alert{
		Severity:          SeverityFor(report.FinalScore),
		SourcePlatform:    m.platform,
		SenderName:        msg.SenderName,
		SenderProfile:     msg.SenderProfileURL,
		MessageContent:    msg.Content,
		RiskScore:         report.FinalScore,
		ThreatType:        report.ThreatClassification.PrimaryThreatType(),
		Indicators:        strings.Join(report.KeyIndicators, ", "),
		RecommendedAction: report.RecommendedAction,
		MLConfidence:      report.Confidence,
	}
	if err := m.CreateAlert(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAlert assigns an identifier, persists the record with status OPEN,
// then forwards it to the notifier best-effort. A storage failure aborts
// creation; a dispatch failure is logged and audited but never rolls the
// stored alert back.
func (m *Manager) CreateAlert(ctx context.Context, a *Alert) error {
	a.AlertID = NewAlertID()
	a.CreatedAt = m.now()
	a.Status = StatusOpen
	if a.Severity == "" {
		a.Severity = SeverityFor(a.RiskScore)
	}

	if err := m.store.InsertAlert(ctx, a); err != nil {
		return fmt.Errorf("failed to persist alert: %w", err)
	}

	log.Printf("[ALERT] created %s: %s severity, score %d, sender %q", a.AlertID, a.Severity, a.RiskScore, a.SenderName)
	m.auditLog.Record(audit.EventAlertCreated, map[string]any{
		"alert_id": a.AlertID,
		"severity": a.Severity,
		"score":    a.RiskScore,
		"sender":   a.SenderName,
		"threat":   a.ThreatType,
	})

	m.dispatch(ctx, *a)
	return nil
}

// dispatch sends the notification unless the channel is unconfigured or the
// sender is inside the cooldown window.
func (m *Manager) dispatch(ctx context.Context, a Alert) {
	if m.notifier == nil || !m.notifier.IsConfigured() {
		return
	}
	if m.cooldown != nil {
		allowed, err := m.cooldown.Allow(ctx, a.SenderProfile, a.SenderName)
		if err != nil {
			log.Printf("[WARN] notification cooldown check failed, sending anyway: %v", err)
		} else if !allowed {
			log.Printf("[ALERT] notification for %s suppressed by sender cooldown", a.AlertID)
			return
		}
	}

	ok, detail := m.notifier.Send(ctx, a)
	if !ok {
		log.Printf("[WARN] notification dispatch failed for %s: %s", a.AlertID, detail)
		m.auditLog.Record(audit.EventDispatchFailed, map[string]any{
			"alert_id": a.AlertID,
			"detail":   detail,
		})
	}
}

// Resolve transitions an alert to RESOLVED and stamps the resolution time.
// Resolving an already-resolved or unknown alert is a no-op, not an error.
func (m *Manager) Resolve(ctx context.Context, alertID string) error {
	changed, err := m.store.ResolveAlert(ctx, alertID, m.now())
	if err != nil {
		return fmt.Errorf("failed to resolve alert %s: %w", alertID, err)
	}
	if changed {
		m.auditLog.Record(audit.EventAlertResolved, map[string]any{"alert_id": alertID})
	}
	return nil
}

// ListRecent returns alerts created inside the window, newest first,
// optionally filtered by severity.
func (m *Manager) ListRecent(ctx context.Context, window time.Duration, severity string) ([]Alert, error) {
	return m.store.ListRecentAlerts(ctx, m.now().Add(-window), severity)
}

// ClearResolved bulk-deletes resolved alerts and reports how many went.
func (m *Manager) ClearResolved(ctx context.Context) (int64, error) {
	n, err := m.store.ClearResolvedAlerts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear resolved alerts: %w", err)
	}
	if n > 0 {
		m.auditLog.Record(audit.EventAlertsCleared, map[string]any{"count": n})
	}
	return n, nil
}

// NewAlertID generates a short collision-resistant identifier: ALT- plus the
// first eight hex characters of a random UUID, uppercased.
func NewAlertID() string {
	return "ALT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
