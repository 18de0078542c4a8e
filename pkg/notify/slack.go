// Package notify delivers alerts to a Slack-compatible incoming webhook.
// Delivery is best-effort with a structured outcome: callers get a success
// flag and a detail string, never a panic or an uncaught error.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/honeyshield/honeyshield/pkg/alerts"
	"github.com/honeyshield/honeyshield/pkg/httputil"
)

// WebhookPrefix is the only accepted webhook URL shape. Anything else is
// treated as unconfigured, not as an error.
const WebhookPrefix = "https://hooks.slack.com/services/"

// previewLimit caps the message body shown in the notification.
const previewLimit = 200

// sendTimeout bounds one webhook delivery.
const sendTimeout = 10 * time.Second

// ErrNotConfigured reports a missing or malformed webhook URL.
var ErrNotConfigured = errors.New("notification channel not configured: set a hooks.slack.com webhook URL")

var severityColors = map[string]string{
	alerts.SeverityCritical: "#ff0000",
	alerts.SeverityHigh:     "#ff6b6b",
	alerts.SeverityMedium:   "#ffa726",
	alerts.SeverityLow:      "#4caf50",
}

var severityEmoji = map[string]string{
	alerts.SeverityCritical: "🚨",
	alerts.SeverityHigh:     "⚠️",
	alerts.SeverityMedium:   "🔍",
	alerts.SeverityLow:      "ℹ️",
}

// SlackNotifier posts alert notifications to an incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	now        func() time.Time
}

// NewSlackNotifier builds a notifier for the given webhook URL. An empty or
// malformed URL yields a notifier that reports unconfigured and refuses to
// send, which downstream treats as "feature disabled".
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     httputil.NewHTTPClient(sendTimeout),
		now:        time.Now,
	}
}

// IsConfigured reports whether the webhook URL is present and well-formed.
func (n *SlackNotifier) IsConfigured() bool {
	return strings.HasPrefix(n.webhookURL, WebhookPrefix)
}

// Send delivers one alert. The boolean is the delivery outcome; the string
// carries the reason on failure and a short confirmation on success.
func (n *SlackNotifier) Send(ctx context.Context, a alerts.Alert) (bool, string) {
	if !n.IsConfigured() {
		return false, ErrNotConfigured.Error()
	}
	return n.post(ctx, n.buildPayload(a))
}

// TestConnection posts a plain-text probe so operators can verify the
// webhook before wiring it into the pipeline.
func (n *SlackNotifier) TestConnection(ctx context.Context) (bool, string) {
	if !n.IsConfigured() {
		return false, ErrNotConfigured.Error()
	}
	return n.post(ctx, map[string]any{
		"text": "🔧 Honeyshield connection test: your webhook is properly configured",
	})
}

func (n *SlackNotifier) post(ctx context.Context, payload map[string]any) (bool, string) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Sprintf("payload marshal failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Sprintf("request build failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return false, fmt.Sprintf("webhook delivery failed: %v", err)
	}
	defer httputil.DrainAndClose(resp.Body)

	if err := httputil.CheckResponse(resp, "slack webhook"); err != nil {
		return false, err.Error()
	}
	return true, "delivered"
}

// buildPayload assembles the Slack blocks message: header, severity fields,
// sender fields, truncated preview, indicators, recommended action and an
// alert-id footer, plus a severity-colored attachment strip.
func (n *SlackNotifier) buildPayload(a alerts.Alert) map[string]any {
	color, ok := severityColors[a.Severity]
	if !ok {
		color = "#000000"
	}
	emoji, ok := severityEmoji[a.Severity]
	if !ok {
		emoji = "📢"
	}

	preview := a.MessageContent
	if len(preview) > previewLimit {
		// Back off to a rune boundary so the cut never splits a
		// multi-byte character.
		cut := previewLimit
		for cut > 0 && !utf8.RuneStart(preview[cut]) {
			cut--
		}
		preview = preview[:cut] + "..."
	}

	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type":  "plain_text",
				"text":  fmt.Sprintf("%s Honeyshield Security Alert %s", emoji, emoji),
				"emoji": true,
			},
		},
		{
			"type": "section",
			"fields": []map[string]any{
				{"type": "mrkdwn", "text": fmt.Sprintf("*Severity:*\n%s", a.Severity)},
				{"type": "mrkdwn", "text": fmt.Sprintf("*Risk Score:*\n%d/100", a.RiskScore)},
				{"type": "mrkdwn", "text": fmt.Sprintf("*Threat Type:*\n%s", a.ThreatType)},
				{"type": "mrkdwn", "text": fmt.Sprintf("*Source:*\n%s", a.SourcePlatform)},
			},
		},
		{
			"type": "section",
			"fields": []map[string]any{
				{"type": "mrkdwn", "text": fmt.Sprintf("*Sender:*\n%s", a.SenderName)},
				{"type": "mrkdwn", "text": fmt.Sprintf("*Time:*\n%s", n.now().Format("15:04:05"))},
			},
		},
		{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Message Preview:*\n```%s```", preview),
			},
		},
	}

	if a.Indicators != "" && a.Indicators != "None" {
		blocks = append(blocks, map[string]any{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Detection Indicators:*\n%s", a.Indicators),
			},
		})
	}

	blocks = append(blocks,
		map[string]any{
			"type": "section",
			"text": map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("*Recommended Action:*\n%s", a.RecommendedAction),
			},
		},
		map[string]any{"type": "divider"},
		map[string]any{
			"type": "context",
			"elements": []map[string]any{
				{
					"type": "mrkdwn",
					"text": fmt.Sprintf("Alert ID: `%s` | Generated by Honeyshield Security System", a.AlertID),
				},
			},
		},
	)

	return map[string]any{
		"blocks": blocks,
		"attachments": []map[string]any{
			{
				"color": color,
				"blocks": []map[string]any{
					{
						"type": "section",
						"text": map[string]any{
							"type":  "plain_text",
							"text":  fmt.Sprintf("%s severity alert detected", a.Severity),
							"emoji": true,
						},
					},
				},
			},
		},
	}
}
