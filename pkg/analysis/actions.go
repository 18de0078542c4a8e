package analysis

import "github.com/honeyshield/honeyshield/pkg/ml"

// Per-tier operator playbook lines shipped with alerts and notifications.
var recommendedActions = map[ml.RiskLevel]string{
	ml.RiskCritical: "🚨 IMMEDIATE ACTION REQUIRED: Block sender, report to security team, and investigate potential breach",
	ml.RiskHigh:     "🔴 HIGH PRIORITY: Isolate conversation, monitor for patterns, and prepare incident response",
	ml.RiskMedium:   "🟡 MEDIUM PRIORITY: Flag for review, monitor engagement, and gather additional context",
	ml.RiskLow:      "🟢 LOW PRIORITY: Continue normal monitoring with standard precautions",
}

const defaultAction = "Monitor with standard security protocols"

// recommendedAction returns the playbook line for a tier.
func recommendedAction(level ml.RiskLevel) string {
	if action, ok := recommendedActions[level]; ok {
		return action
	}
	return defaultAction
}
