// Package rules implements the heuristic scoring path: keyword, phrase,
// sentiment and pattern-family tables producing a 0-100 risk score with an
// audit trail of what fired. It runs independently of the trained classifier
// and is recorded alongside ML results as a cross-check signal.
package rules

import (
	"strings"

	"github.com/honeyshield/honeyshield/pkg/patterns"
)

// Config carries the scoring weights and keyword tables. Zero values are not
// usable; start from DefaultConfig and override fields from the scoring file.
type Config struct {
	KeywordWeight      int      `yaml:"keyword_weight"`
	SentimentWeight    int      `yaml:"sentiment_weight"`
	EscalationWeight   int      `yaml:"relationship_escalation_weight"`
	PrivateInfoWeight  int      `yaml:"request_private_info_weight"`
	SentimentThreshold float64  `yaml:"sentiment_threshold"`
	SuspiciousKeywords []string `yaml:"suspicious_keywords"`
	HighRiskPhrases    []string `yaml:"high_risk_phrases"`
}

// DefaultConfig returns the production weights and keyword tables.
func DefaultConfig() Config {
	return Config{
		KeywordWeight:      10,
		SentimentWeight:    15,
		EscalationWeight:   20,
		PrivateInfoWeight:  25,
		SentimentThreshold: 0.5,
		SuspiciousKeywords: []string{
			"urgent", "verify", "suspended", "password", "bitcoin",
			"investment", "prize", "winner", "inheritance", "lottery",
			"wire transfer", "gift card", "crypto", "confidential",
		},
		HighRiskPhrases: []string{
			"verify your account", "send me your", "give me your",
			"act now", "limited time", "this is the bank",
			"claim your prize", "move to whatsapp", "move to telegram",
		},
	}
}

// Result is the outcome of one rule-based pass over a message.
type Result struct {
	RiskScore int      `json:"risk_score"`
	Keywords  []string `json:"keywords_found"`
	Notes     []string `json:"analysis_notes"`
}

// Scorer applies the configured rule tables. Safe for concurrent use; the
// config is copied at construction and never mutated.
type Scorer struct {
	cfg      Config
	registry *patterns.Registry
}

// NewScorer builds a scorer around the given config.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg, registry: patterns.Get()}
}

// Score accumulates points from every rule family and clamps to [0,100].
// Total over arbitrary input: malformed or empty text scores 0 with no notes.
func (s *Scorer) Score(text string) Result {
	res := Result{}
	lower := strings.ToLower(text)

	for _, kw := range s.cfg.SuspiciousKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			res.RiskScore += s.cfg.KeywordWeight
			res.Keywords = append(res.Keywords, kw)
		}
	}
	// Phrases signal composed intent, so they count double.
	for _, phrase := range s.cfg.HighRiskPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			res.RiskScore += s.cfg.KeywordWeight * 2
			res.Keywords = append(res.Keywords, phrase)
		}
	}

	if sent := AnalyzeSentiment(text); sent.Scored {
		if sent.Polarity > s.cfg.SentimentThreshold || sent.Polarity < -s.cfg.SentimentThreshold {
			res.RiskScore += s.cfg.SentimentWeight
			res.Notes = append(res.Notes, "Extreme sentiment polarity detected")
		}
	}

	if s.registry.MatchAny(text, patterns.CategoryEscalation) != nil {
		res.RiskScore += s.cfg.EscalationWeight
		res.Notes = append(res.Notes, "Rapid relationship escalation detected")
	}
	if s.registry.MatchAny(text, patterns.CategoryPrivateInfo) != nil {
		res.RiskScore += s.cfg.PrivateInfoWeight
		res.Notes = append(res.Notes, "Potential private information request")
	}

	if res.RiskScore > 100 {
		res.RiskScore = 100
	}
	if res.RiskScore < 0 {
		res.RiskScore = 0
	}
	return res
}

// Social-engineering technique identifiers, MITRE ATT&CK reconnaissance and
// resource-development taxonomy.
const (
	TechniqueGatherIdentity  = "T1589.001 - Gather Victim Identity Information"
	TechniqueSearchVictim    = "T1594 - Search Victim-Owned Websites"
	TechniqueEstablishAccts  = "T1585 - Establish Accounts"
	TechniqueObtainCapab     = "T1588 - Obtain Capabilities"
	TechniqueUndetermined    = "TBD - Further analysis needed"
	notePrivateInfoFragment  = "private information request"
	techniqueIdentityFloor   = 40
	techniqueCapabilityFloor = 70
)

// Techniques maps a rule result to named technique identifiers, driven only
// by the score bands and note content.
func Techniques(res Result) []string {
	var out []string

	if res.RiskScore >= techniqueIdentityFloor {
		out = append(out, TechniqueGatherIdentity)
	}
	for _, note := range res.Notes {
		if strings.Contains(strings.ToLower(note), notePrivateInfoFragment) {
			out = append(out, TechniqueSearchVictim)
			break
		}
	}
	if res.RiskScore >= techniqueCapabilityFloor {
		out = append(out, TechniqueEstablishAccts, TechniqueObtainCapab)
	}

	if len(out) == 0 {
		return []string{TechniqueUndetermined}
	}
	return out
}
