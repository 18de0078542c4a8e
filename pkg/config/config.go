// Package config assembles the runtime configuration from environment
// variables and an optional YAML scoring file. Components receive the
// resulting values in their constructors; nothing reads the environment at
// call sites.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/honeyshield/honeyshield/pkg/rules"
)

// Config holds the settings for the detection pipeline and its edges.
type Config struct {
	// Core paths
	ModelPath    string // trained model artifact (default: "honeyshield_model.gob")
	AuditLogPath string // JSONL audit trail; empty disables auditing
	ScoringPath  string // optional YAML file overriding rule weights and keyword tables

	// External services
	DatabaseURL string // Postgres connection string; empty disables persistence
	RedisAddr   string // Redis for the notification cooldown; empty disables it
	WebhookURL  string // Slack-compatible incoming webhook

	// HTTP server
	ListenAddr string

	// Pipeline tuning
	SourcePlatform   string        // label stamped on alerts (default: "LinkedIn")
	BatchConcurrency int           // concurrent messages per batch analysis
	CooldownWindow   time.Duration // per-sender notification suppression window

	// Rule-based scoring tables
	Scoring rules.Config
}

// New builds the configuration from the environment, then layers the YAML
// scoring file on top if one is configured and present.
func New() *Config {
	cfg := &Config{
		ModelPath:    GetEnv("HONEYSHIELD_MODEL_PATH", "honeyshield_model.gob"),
		AuditLogPath: GetEnv("HONEYSHIELD_AUDIT_LOG", "audit_events.jsonl"),
		ScoringPath:  GetEnv("HONEYSHIELD_SCORING_FILE", ""),

		DatabaseURL: GetEnv("DATABASE_URL", ""),
		RedisAddr:   GetEnv("REDIS_ADDR", ""),
		WebhookURL:  GetEnv("SLACK_WEBHOOK_URL", ""),

		ListenAddr: GetEnv("HONEYSHIELD_LISTEN_ADDR", ":8080"),

		SourcePlatform:   GetEnv("HONEYSHIELD_SOURCE_PLATFORM", "LinkedIn"),
		BatchConcurrency: clampInt(GetEnvInt("HONEYSHIELD_BATCH_CONCURRENCY", 8), 1, 128),
		CooldownWindow:   time.Duration(GetEnvInt("HONEYSHIELD_COOLDOWN_SECONDS", 3600)) * time.Second,

		Scoring: rules.DefaultConfig(),
	}

	if cfg.ScoringPath != "" {
		if err := cfg.loadScoring(cfg.ScoringPath); err != nil {
			log.Printf("[WARN] scoring file %s not loaded, using defaults: %v", cfg.ScoringPath, err)
		}
	}
	return cfg
}

// scoringFile is the YAML shape of the scoring override file. Only fields
// the operator sets replace the defaults.
type scoringFile struct {
	Analysis struct {
		SuspiciousKeywords []string `yaml:"suspicious_keywords"`
		HighRiskPhrases    []string `yaml:"high_risk_phrases"`
	} `yaml:"analysis"`
	Scoring struct {
		KeywordWeight      *int     `yaml:"keyword_weight"`
		SentimentWeight    *int     `yaml:"sentiment_weight"`
		EscalationWeight   *int     `yaml:"relationship_escalation_weight"`
		PrivateInfoWeight  *int     `yaml:"request_private_info_weight"`
		SentimentThreshold *float64 `yaml:"sentiment_threshold"`
	} `yaml:"scoring"`
}

func (c *Config) loadScoring(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read scoring file: %w", err)
	}

	var f scoringFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse scoring file: %w", err)
	}

	if len(f.Analysis.SuspiciousKeywords) > 0 {
		c.Scoring.SuspiciousKeywords = f.Analysis.SuspiciousKeywords
	}
	if len(f.Analysis.HighRiskPhrases) > 0 {
		c.Scoring.HighRiskPhrases = f.Analysis.HighRiskPhrases
	}
	if f.Scoring.KeywordWeight != nil {
		c.Scoring.KeywordWeight = *f.Scoring.KeywordWeight
	}
	if f.Scoring.SentimentWeight != nil {
		c.Scoring.SentimentWeight = *f.Scoring.SentimentWeight
	}
	if f.Scoring.EscalationWeight != nil {
		c.Scoring.EscalationWeight = *f.Scoring.EscalationWeight
	}
	if f.Scoring.PrivateInfoWeight != nil {
		c.Scoring.PrivateInfoWeight = *f.Scoring.PrivateInfoWeight
	}
	if f.Scoring.SentimentThreshold != nil {
		c.Scoring.SentimentThreshold = *f.Scoring.SentimentThreshold
	}
	return nil
}

// Validate reports configuration states worth refusing to start over, and
// logs the degraded-mode warnings that are tolerated.
func (c *Config) Validate() error {
	if c.WebhookURL != "" && !strings.HasPrefix(c.WebhookURL, "https://hooks.slack.com/services/") {
		log.Printf("[STARTUP] Warning: SLACK_WEBHOOK_URL is not a hooks.slack.com URL; notifications disabled")
	}
	if c.DatabaseURL == "" {
		log.Printf("[STARTUP] Warning: DATABASE_URL not set; alerts and messages will not be persisted")
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("batch concurrency must be positive, got %d", c.BatchConcurrency)
	}
	return nil
}

// clampInt ensures a value is within bounds
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Helper functions for environment variable parsing
// These are exported for use by other packages

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// GetEnvBool returns the boolean value of an environment variable or a default value.
func GetEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvFloat returns the float64 value of an environment variable or a default value.
func GetEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvInt returns the integer value of an environment variable or a default value.
func GetEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

// GetEnvSlice returns a comma-separated list from an environment variable or a default value.
func GetEnvSlice(key string, defaultValue []string) []string {
	if v := os.Getenv(key); v != "" {
		var parts []string
		for _, p := range strings.Split(v, ",") {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
