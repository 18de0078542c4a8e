package analysis

import "strings"

// Threat family labels, matched against indicator substrings. Urgency and
// authority are the strongest tells, so they carry a larger confidence
// increment.
type threatFamily struct {
	fragment   string
	label      string
	confidence float64
}

var threatFamilies = []threatFamily{
	{"urgency", "Urgency-Based Phishing", 0.3},
	{"authority", "Authority Impersonation", 0.3},
	{"financial", "Financial Scam", 0.2},
	{"platform migration", "Platform Migration Attack", 0.2},
	{"personal information", "Information Harvesting", 0.2},
}

const unclassifiedThreat = "Unclassified Social Engineering"

// classifyThreat scans the indicators for family fragments and accumulates
// per-family confidence, capped at 1.0. The first two matched families are
// primary; any remainder is secondary.
func classifyThreat(indicators, patterns []string) ThreatClassification {
	var types []string
	confidence := 0.0

	for _, fam := range threatFamilies {
		for _, ind := range indicators {
			if strings.Contains(strings.ToLower(ind), fam.fragment) {
				types = append(types, fam.label)
				confidence += fam.confidence
				break
			}
		}
	}
	if confidence > 1.0 {
		confidence = 1.0
	}

	tc := ThreatClassification{
		Confidence: confidence,
		Techniques: patterns,
	}
	switch {
	case len(types) == 0:
		tc.PrimaryTypes = []string{unclassifiedThreat}
		tc.SecondaryTypes = []string{}
	case len(types) <= 2:
		tc.PrimaryTypes = types
		tc.SecondaryTypes = []string{}
	default:
		tc.PrimaryTypes = types[:2]
		tc.SecondaryTypes = types[2:]
	}
	return tc
}

// PrimaryThreatType returns the headline threat label for alert records.
func (tc ThreatClassification) PrimaryThreatType() string {
	if len(tc.PrimaryTypes) == 0 {
		return unclassifiedThreat
	}
	return tc.PrimaryTypes[0]
}
