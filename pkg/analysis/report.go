// Package analysis orchestrates a full message assessment: classifier
// probability, explanation, threat classification, temporal context and a
// recommended action, plus the rule-based cross-check.
package analysis

import (
	"time"

	"github.com/honeyshield/honeyshield/pkg/features"
	"github.com/honeyshield/honeyshield/pkg/ml"
	"github.com/honeyshield/honeyshield/pkg/rules"
)

// Message is one captured inbound message. Immutable once captured.
type Message struct {
	SenderName       string    `json:"sender_name"`
	SenderProfileURL string    `json:"sender_profile_url"`
	Content          string    `json:"content"`
	ReceivedAt       time.Time `json:"received_at"`
}

// ThreatClassification labels the nature of the attack, derived entirely
// from the indicator strings.
type ThreatClassification struct {
	PrimaryTypes   []string `json:"primary_types"`
	SecondaryTypes []string `json:"secondary_types"`
	Confidence     float64  `json:"confidence"`
	Techniques     []string `json:"techniques_detected"`
}

// TemporalContext records when the analysis ran. Informational only; the
// flag is not folded into the score.
type TemporalContext struct {
	HourOfDay   int       `json:"hour_of_day"`
	DayOfWeek   int       `json:"day_of_week"`
	TimeContext string    `json:"time_context"`
	Timestamp   time.Time `json:"timestamp"`
}

// SimilarityEvidence is the nearest known scam, attached when an index is
// wired in.
type SimilarityEvidence struct {
	MatchedText string  `json:"matched_text"`
	Category    string  `json:"category"`
	Similarity  float32 `json:"similarity"`
}

// Report is the complete outcome of analyzing one message.
type Report struct {
	FinalScore           int                  `json:"final_score"`
	RiskLevel            ml.RiskLevel         `json:"risk_level"`
	Probability          float64              `json:"ml_probability"`
	Confidence           float64              `json:"ml_confidence"`
	KeyIndicators        []string             `json:"key_indicators"`
	BehavioralPatterns   []string             `json:"behavioral_patterns"`
	FeatureAnalysis      features.Vector      `json:"feature_analysis"`
	Summary              string               `json:"explanation_summary"`
	ThreatClassification ThreatClassification `json:"threat_classification"`
	TemporalContext      TemporalContext      `json:"temporal_context"`
	RecommendedAction    string               `json:"recommended_action"`
	RuleAudit            *rules.Result        `json:"rule_audit,omitempty"`
	RuleTechniques       []string             `json:"rule_techniques,omitempty"`
	NearestKnownScam     *SimilarityEvidence  `json:"nearest_known_scam,omitempty"`
	AnalyzedAt           time.Time            `json:"analysis_timestamp"`
	Err                  string               `json:"error,omitempty"`
}
