package ml

import (
	"fmt"
	"math"
	"strings"

	"github.com/honeyshield/honeyshield/pkg/features"
)

// Indicator thresholds: a feature crosses into an operator-visible indicator
// only when it is loud enough to be worth reading. Tuned alongside the
// training vocabularies.
const (
	urgencyIndicatorMin      = 2
	authorityIndicatorMin    = 2
	infoRequestIndicatorMin  = 2
	financialIndicatorMin    = 2
	platformIndicatorMin     = 1
	linkIndicatorMin         = 1
	capitalRatioIndicatorMin = 0.3
)

// Explain maps a probability and feature snapshot to the human-readable
// account shipped with alerts: threshold-based indicators, coarser behavioral
// pattern labels, risk banding and a summary line.
func Explain(probability float64, fv features.Vector) *Explanation {
	var indicators []string

	if fv.UrgencyScore >= urgencyIndicatorMin {
		indicators = append(indicators, fmt.Sprintf("High urgency language (%d instances)", int(fv.UrgencyScore)))
	}
	if fv.AuthorityScore >= authorityIndicatorMin {
		indicators = append(indicators, fmt.Sprintf("Authority impersonation (%d instances)", int(fv.AuthorityScore)))
	}
	if fv.InfoRequestScore >= infoRequestIndicatorMin {
		indicators = append(indicators, fmt.Sprintf("Personal information requests (%d instances)", int(fv.InfoRequestScore)))
	}
	if fv.PlatformMigrationScore >= platformIndicatorMin {
		indicators = append(indicators, fmt.Sprintf("Platform migration attempt (%d instances)", int(fv.PlatformMigrationScore)))
	}
	if fv.FinancialScore >= financialIndicatorMin {
		indicators = append(indicators, fmt.Sprintf("Financial terminology (%d instances)", int(fv.FinancialScore)))
	}
	if fv.LinkCount >= linkIndicatorMin {
		indicators = append(indicators, "Contains suspicious links")
	}
	if fv.CapitalRatio > capitalRatioIndicatorMin {
		indicators = append(indicators, "Excessive capitalization")
	}

	var patterns []string
	if fv.ScarcityScore > 0 {
		patterns = append(patterns, "Scarcity tactics")
	}
	if fv.SocialProofScore > 0 {
		patterns = append(patterns, "Social proof manipulation")
	}
	if fv.NegativeEmotionScore > fv.PositiveEmotionScore {
		patterns = append(patterns, "Fear/negative emotion dominance")
	}

	return &Explanation{
		Probability:        probability,
		RiskLevel:          RiskLevelFor(probability),
		RiskScore:          int(math.Round(probability * 100)),
		KeyIndicators:      indicators,
		BehavioralPatterns: patterns,
		FeatureAnalysis:    fv,
		// A fixed optimistic offset, not a calibrated estimate. Callers must
		// not treat this as true posterior confidence.
		Confidence: math.Min(probability+0.1, 0.95),
		Summary:    summarize(indicators, patterns),
	}
}

// summarize builds the one-line reason string shown in notifications.
func summarize(indicators, patterns []string) string {
	if len(indicators) == 0 && len(patterns) == 0 {
		return "No strong phishing indicators detected"
	}

	elements := append(append([]string{}, indicators...), patterns...)
	summary := "Phishing detection based on: "
	if len(elements) <= 3 {
		return summary + strings.Join(elements, ", ")
	}
	return summary + strings.Join(elements[:3], ", ") +
		fmt.Sprintf(" and %d more indicators", len(elements)-3)
}
