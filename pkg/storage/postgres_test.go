//go:build integration

package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/honeyshield/honeyshield/pkg/alerts"
)

func setupTestStore(t *testing.T) *PostgresStore {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(s.Close)

	if err := s.InitSchema(ctx); err != nil {
		t.Fatalf("init schema: %v", err)
	}
	for _, table := range []string{"security_alerts", "messages", "threats"} {
		if _, err := s.pool.Exec(ctx, "TRUNCATE "+table); err != nil {
			t.Fatalf("truncate %s: %v", table, err)
		}
	}
	return s
}

func testAlert(id string, score int) *alerts.Alert {
	return &alerts.Alert{
		AlertID:           id,
		CreatedAt:         time.Now().UTC(),
		Severity:          alerts.SeverityFor(score),
		Status:            alerts.StatusOpen,
		SourcePlatform:    "LinkedIn",
		SenderName:        "Fake Recruiter",
		SenderProfile:     "https://linkedin.com/in/fake",
		MessageContent:    "URGENT: verify your account",
		RiskScore:         score,
		ThreatType:        "Urgency-Based Phishing",
		Indicators:        "High urgency language (3 instances)",
		RecommendedAction: "Flag for review",
		MLConfidence:      0.9,
	}
}

func TestAlertLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.InsertAlert(ctx, testAlert("ALT-11111111", 90)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.InsertAlert(ctx, testAlert("ALT-22222222", 45)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Duplicate alert_id must violate the unique constraint.
	if err := s.InsertAlert(ctx, testAlert("ALT-11111111", 50)); err == nil {
		t.Error("duplicate alert_id should fail")
	}

	all, err := s.ListRecentAlerts(ctx, time.Now().Add(-time.Hour), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(all))
	}

	critical, err := s.ListRecentAlerts(ctx, time.Now().Add(-time.Hour), alerts.SeverityCritical)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(critical) != 1 || critical[0].AlertID != "ALT-11111111" {
		t.Errorf("severity filter returned %v", critical)
	}

	changed, err := s.ResolveAlert(ctx, "ALT-11111111", time.Now().UTC())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !changed {
		t.Error("first resolve should report a change")
	}
	changed, err = s.ResolveAlert(ctx, "ALT-11111111", time.Now().UTC())
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if changed {
		t.Error("second resolve must be a no-op")
	}
	if changed, _ := s.ResolveAlert(ctx, "ALT-MISSING0", time.Now().UTC()); changed {
		t.Error("resolving an unknown alert must be a no-op")
	}

	got, err := s.GetAlert(ctx, "ALT-11111111")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != alerts.StatusResolved || got.ResolvedAt == nil {
		t.Errorf("resolved alert state: %+v", got)
	}

	n, err := s.ClearResolvedAlerts(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 1 {
		t.Errorf("cleared %d, want 1", n)
	}
	remaining, _ := s.ListRecentAlerts(ctx, time.Now().Add(-time.Hour), "")
	if len(remaining) != 1 || remaining[0].AlertID != "ALT-22222222" {
		t.Errorf("open alert must survive the clear: %v", remaining)
	}
}

func TestLogMessageAndThreatRollup(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	rec := func(score int) *MessageRecord {
		return &MessageRecord{
			SenderName:     "Fake Recruiter",
			SenderProfile:  "https://linkedin.com/in/fake",
			MessageContent: "give me your phone number",
			Timestamp:      time.Now().UTC(),
			RiskScore:      score,
			RiskLevel:      "HIGH",
			KeywordsFound:  "phone number",
			AnalysisNotes:  "Potential private information request",
		}
	}

	for _, score := range []int{75, 90, 20} {
		if err := s.LogMessage(ctx, rec(score), "T1589.001"); err != nil {
			t.Fatalf("log message: %v", err)
		}
	}

	msgs, err := s.RecentMessages(ctx, 10)
	if err != nil {
		t.Fatalf("recent messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].ID == 0 {
		t.Error("insert should populate the record id")
	}

	var total, maxScore int
	err = s.pool.QueryRow(ctx,
		`SELECT total_messages, max_risk_score FROM threats WHERE sender_profile_url = $1`,
		"https://linkedin.com/in/fake").Scan(&total, &maxScore)
	if err != nil {
		t.Fatalf("threat rollup: %v", err)
	}
	if total != 2 {
		t.Errorf("rollup counts qualifying messages only: got %d, want 2", total)
	}
	if maxScore != 90 {
		t.Errorf("max risk score = %d, want 90", maxScore)
	}

	stats, err := s.ThreatStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalMessages != 3 || stats.HighRisk != 3 || stats.UniqueSenders != 1 || stats.TrackedThreats != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
