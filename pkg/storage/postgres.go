// Package storage persists alerts, analyzed messages and per-sender threat
// rollups in PostgreSQL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/honeyshield/honeyshield/pkg/alerts"
)

const schema = `
CREATE TABLE IF NOT EXISTS security_alerts (
	id BIGSERIAL PRIMARY KEY,
	alert_id TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	severity TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'OPEN',
	source_platform TEXT NOT NULL DEFAULT 'LinkedIn',
	sender_name TEXT NOT NULL,
	sender_profile TEXT,
	message_content TEXT NOT NULL,
	risk_score INTEGER NOT NULL,
	threat_type TEXT,
	indicators TEXT,
	recommended_action TEXT,
	ml_confidence DOUBLE PRECISION,
	resolved_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_security_alerts_created_at ON security_alerts (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_security_alerts_status ON security_alerts (status);

CREATE TABLE IF NOT EXISTS messages (
	id BIGSERIAL PRIMARY KEY,
	sender_name TEXT NOT NULL,
	sender_profile_url TEXT,
	message_content TEXT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	risk_score INTEGER NOT NULL DEFAULT 0,
	risk_level TEXT NOT NULL DEFAULT 'LOW',
	keywords_found TEXT,
	analysis_notes TEXT
);

CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages (timestamp DESC);

CREATE TABLE IF NOT EXISTS threats (
	id BIGSERIAL PRIMARY KEY,
	sender_profile_url TEXT NOT NULL UNIQUE,
	first_detected TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_detected TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	total_messages INTEGER NOT NULL DEFAULT 1,
	max_risk_score INTEGER NOT NULL DEFAULT 0,
	techniques TEXT
);
`

// threatFloor is the risk score at which a sender enters the threats rollup.
const threatFloor = 40

// MessageRecord is one analyzed message as persisted.
type MessageRecord struct {
	ID             int64     `json:"id"`
	SenderName     string    `json:"sender_name"`
	SenderProfile  string    `json:"sender_profile_url"`
	MessageContent string    `json:"message_content"`
	Timestamp      time.Time `json:"timestamp"`
	RiskScore      int       `json:"risk_score"`
	RiskLevel      string    `json:"risk_level"`
	KeywordsFound  string    `json:"keywords_found"`
	AnalysisNotes  string    `json:"analysis_notes"`
}

// Stats is the aggregate view served by the stats endpoint.
type Stats struct {
	TotalMessages  int64 `json:"total_messages"`
	HighRisk       int64 `json:"high_risk_messages"`
	MediumRisk     int64 `json:"medium_risk_messages"`
	UniqueSenders  int64 `json:"unique_senders"`
	OpenAlerts     int64 `json:"open_alerts"`
	ResolvedAlerts int64 `json:"resolved_alerts"`
	TrackedThreats int64 `json:"tracked_threats"`
}

// PostgresStore wraps a pgx connection pool. It implements alerts.Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// New connects to the database and verifies the connection.
func New(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// InitSchema creates the tables and indexes if missing. Schema migration
// beyond additive create-if-not-exists belongs to external tooling.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// InsertAlert persists a new alert record.
func (s *PostgresStore) InsertAlert(ctx context.Context, a *alerts.Alert) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO security_alerts (
			alert_id, created_at, severity, status, source_platform,
			sender_name, sender_profile, message_content, risk_score,
			threat_type, indicators, recommended_action, ml_confidence
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.AlertID, a.CreatedAt, a.Severity, a.Status, a.SourcePlatform,
		a.SenderName, a.SenderProfile, a.MessageContent, a.RiskScore,
		a.ThreatType, a.Indicators, a.RecommendedAction, a.MLConfidence,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert %s: %w", a.AlertID, err)
	}
	return nil
}

// ResolveAlert marks an open alert resolved. Returns false without error
// when the alert is unknown or already resolved.
func (s *PostgresStore) ResolveAlert(ctx context.Context, alertID string, at time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE security_alerts
		SET status = $1, resolved_at = $2
		WHERE alert_id = $3 AND status = $4`,
		alerts.StatusResolved, at, alertID, alerts.StatusOpen,
	)
	if err != nil {
		return false, fmt.Errorf("failed to resolve alert %s: %w", alertID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListRecentAlerts returns alerts created at or after since, newest first,
// optionally filtered by severity.
func (s *PostgresStore) ListRecentAlerts(ctx context.Context, since time.Time, severity string) ([]alerts.Alert, error) {
	query := `
		SELECT alert_id, created_at, severity, status, source_platform,
		       sender_name, COALESCE(sender_profile, ''), message_content, risk_score,
		       COALESCE(threat_type, ''), COALESCE(indicators, ''),
		       COALESCE(recommended_action, ''), COALESCE(ml_confidence, 0),
		       resolved_at
		FROM security_alerts
		WHERE created_at >= $1`
	args := []any{since}
	if severity != "" {
		query += ` AND severity = $2`
		args = append(args, severity)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var out []alerts.Alert
	for rows.Next() {
		var a alerts.Alert
		if err := rows.Scan(
			&a.AlertID, &a.CreatedAt, &a.Severity, &a.Status, &a.SourcePlatform,
			&a.SenderName, &a.SenderProfile, &a.MessageContent, &a.RiskScore,
			&a.ThreatType, &a.Indicators, &a.RecommendedAction, &a.MLConfidence,
			&a.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ClearResolvedAlerts bulk-deletes resolved alerts.
func (s *PostgresStore) ClearResolvedAlerts(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM security_alerts WHERE status = $1`, alerts.StatusResolved)
	if err != nil {
		return 0, fmt.Errorf("failed to clear resolved alerts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetAlert fetches one alert by identifier.
func (s *PostgresStore) GetAlert(ctx context.Context, alertID string) (*alerts.Alert, error) {
	var a alerts.Alert
	err := s.pool.QueryRow(ctx, `
		SELECT alert_id, created_at, severity, status, source_platform,
		       sender_name, COALESCE(sender_profile, ''), message_content, risk_score,
		       COALESCE(threat_type, ''), COALESCE(indicators, ''),
		       COALESCE(recommended_action, ''), COALESCE(ml_confidence, 0),
		       resolved_at
		FROM security_alerts WHERE alert_id = $1`, alertID,
	).Scan(
		&a.AlertID, &a.CreatedAt, &a.Severity, &a.Status, &a.SourcePlatform,
		&a.SenderName, &a.SenderProfile, &a.MessageContent, &a.RiskScore,
		&a.ThreatType, &a.Indicators, &a.RecommendedAction, &a.MLConfidence,
		&a.ResolvedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alert %s: %w", alertID, err)
	}
	return &a, nil
}

// LogMessage records one analyzed message and, at or above the threat floor,
// upserts the per-sender threat rollup in the same transaction.
func (s *PostgresStore) LogMessage(ctx context.Context, rec *MessageRecord, techniques string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO messages (
			sender_name, sender_profile_url, message_content, timestamp,
			risk_score, risk_level, keywords_found, analysis_notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		rec.SenderName, rec.SenderProfile, rec.MessageContent, rec.Timestamp,
		rec.RiskScore, rec.RiskLevel, rec.KeywordsFound, rec.AnalysisNotes,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	if rec.RiskScore >= threatFloor && rec.SenderProfile != "" {
		_, err = tx.Exec(ctx, `
			INSERT INTO threats (sender_profile_url, last_detected, total_messages, max_risk_score, techniques)
			VALUES ($1, $2, 1, $3, $4)
			ON CONFLICT (sender_profile_url) DO UPDATE SET
				last_detected = EXCLUDED.last_detected,
				total_messages = threats.total_messages + 1,
				max_risk_score = GREATEST(threats.max_risk_score, EXCLUDED.max_risk_score),
				techniques = EXCLUDED.techniques`,
			rec.SenderProfile, rec.Timestamp, rec.RiskScore, techniques,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert threat rollup: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit message log: %w", err)
	}
	return nil
}

// RecentMessages returns the latest analyzed messages, newest first.
func (s *PostgresStore) RecentMessages(ctx context.Context, limit int) ([]MessageRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender_name, COALESCE(sender_profile_url, ''), message_content,
		       timestamp, risk_score, risk_level,
		       COALESCE(keywords_found, ''), COALESCE(analysis_notes, '')
		FROM messages
		ORDER BY timestamp DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var out []MessageRecord
	for rows.Next() {
		var rec MessageRecord
		if err := rows.Scan(
			&rec.ID, &rec.SenderName, &rec.SenderProfile, &rec.MessageContent,
			&rec.Timestamp, &rec.RiskScore, &rec.RiskLevel,
			&rec.KeywordsFound, &rec.AnalysisNotes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ThreatStats aggregates the dashboard counters in one round trip.
func (s *PostgresStore) ThreatStats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM messages),
			(SELECT COUNT(*) FROM messages WHERE risk_level IN ('HIGH', 'CRITICAL')),
			(SELECT COUNT(*) FROM messages WHERE risk_level = 'MEDIUM'),
			(SELECT COUNT(DISTINCT sender_profile_url) FROM messages WHERE sender_profile_url IS NOT NULL AND sender_profile_url <> ''),
			(SELECT COUNT(*) FROM security_alerts WHERE status = 'OPEN'),
			(SELECT COUNT(*) FROM security_alerts WHERE status = 'RESOLVED'),
			(SELECT COUNT(*) FROM threats)`,
	).Scan(
		&st.TotalMessages, &st.HighRisk, &st.MediumRisk, &st.UniqueSenders,
		&st.OpenAlerts, &st.ResolvedAlerts, &st.TrackedThreats,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	return &st, nil
}
