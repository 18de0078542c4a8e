// Package training supplies labeled corpora for model training, either
// loaded from a JSON file or synthesized from templates modeled on
// real-world LinkedIn phishing campaigns.
package training

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/honeyshield/honeyshield/pkg/ml"
)

type messageTemplate struct {
	template string
	slots    map[string][]string
}

var phishingTemplates = []messageTemplate{
	{
		template: "URGENT: Your {platform} account shows suspicious login attempts from {location}. To prevent immediate suspension, verify your identity at: {link}",
		slots: map[string][]string{
			"platform": {"LinkedIn", "Facebook", "Google", "Microsoft", "Apple"},
			"location": {"China", "Russia", "Nigeria", "unknown location", "new device"},
		},
	},
	{
		template: "Security Alert: Unusual activity detected on your account. Click to secure: {link} This is mandatory to avoid permanent termination.",
	},
	{
		template: "Investment Opportunity: Get {return}% returns on your investment. Limited time offer! Contact me on {platform} at {contact}",
		slots: map[string][]string{
			"return":   {"300", "500", "1000", "2000"},
			"platform": {"WhatsApp", "Telegram", "Signal", "WeChat"},
			"contact":  {"this number", "my personal number", "the provided contact"},
		},
	},
	{
		template: "You've been selected for an exclusive {offer}! To claim your prize, provide your personal information at: {link}",
		slots: map[string][]string{
			"offer": {"prize", "reward", "bonus", "special offer", "limited opportunity"},
		},
	},
	{
		template: "Official Notice: Your {service} requires immediate verification due to policy updates. Failure to comply within {timeframe} will result in {consequence}",
		slots: map[string][]string{
			"service":     {"account", "subscription", "membership", "service"},
			"timeframe":   {"24 hours", "2 hours", "immediately", "today"},
			"consequence": {"suspension", "termination", "legal action", "fees"},
		},
	},
}

var legitimateTemplates = []messageTemplate{
	{
		template: "Hi {name}, I came across your profile and was impressed by your work in {field}. Would you be open to connecting?",
		slots: map[string][]string{
			"name":  {"", "there", ""},
			"field": {"tech", "marketing", "finance", "engineering", "design"},
		},
	},
	{
		template: "Enjoyed your recent post about {topic}! I particularly liked your point about {detail}",
		slots: map[string][]string{
			"topic":  {"AI", "leadership", "innovation", "industry trends", "technology"},
			"detail": {"the future impact", "practical applications", "your insights", "the analysis"},
		},
	},
	{
		template: "Would you be available for a quick chat about {subject} next week? I'd love to get your perspective",
		slots: map[string][]string{
			"subject": {"industry developments", "potential collaboration", "professional interests", "mutual connections"},
		},
	},
	{
		template: "Thanks for connecting! I look forward to seeing your content and learning from your experience in {industry}",
		slots: map[string][]string{
			"industry": {"technology", "business", "healthcare", "education", "finance"},
		},
	},
}

// openerVariations are prepended to a quarter of the samples so the model
// does not learn to key on a fixed message start.
var openerVariations = []string{
	"Kindly ",
	"Please be advised ",
	"Important: ",
	"Attention: ",
	"Hello, ",
	"Hi there, ",
	"Greetings, ",
	"",
}

// Generator produces balanced synthetic corpora. The same seed yields the
// same corpus.
type Generator struct {
	rng *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

func (g *Generator) fill(t messageTemplate) string {
	text := t.template
	// Slot order must be deterministic for a seeded rng, so iterate a
	// sorted key list rather than the map.
	keys := make([]string, 0, len(t.slots))
	for k := range t.slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, slot := range keys {
		placeholder := "{" + slot + "}"
		choices := t.slots[slot]
		for strings.Contains(text, placeholder) {
			text = strings.Replace(text, placeholder, choices[g.rng.Intn(len(choices))], 1)
		}
	}
	for strings.Contains(text, "{link}") {
		text = strings.Replace(text, "{link}", fmt.Sprintf("http://verify-%d.com", 1000+g.rng.Intn(9000)), 1)
	}
	// Collapse the double space left by an empty {name} fill.
	return strings.Join(strings.Fields(text), " ")
}

// Phishing returns one synthetic scam message.
func (g *Generator) Phishing() string {
	return g.fill(phishingTemplates[g.rng.Intn(len(phishingTemplates))])
}

// Legitimate returns one synthetic professional message.
func (g *Generator) Legitimate() string {
	return g.fill(legitimateTemplates[g.rng.Intn(len(legitimateTemplates))])
}

// Dataset generates a balanced corpus of the requested size, alternating
// phishing and legitimate samples, with opener variations applied to a
// quarter of them.
func (g *Generator) Dataset(size int) []ml.Sample {
	samples := make([]ml.Sample, 0, size)
	for i := 0; i < size; i++ {
		if i%2 == 0 {
			samples = append(samples, ml.Sample{Text: g.Phishing(), Label: 1})
		} else {
			samples = append(samples, ml.Sample{Text: g.Legitimate(), Label: 0})
		}
	}
	for _, idx := range g.rng.Perm(len(samples))[:len(samples)/4] {
		opener := openerVariations[g.rng.Intn(len(openerVariations))]
		if opener != "" && !hasOpener(samples[idx].Text) {
			samples[idx].Text = opener + samples[idx].Text
		}
	}
	return samples
}

func hasOpener(text string) bool {
	for _, v := range openerVariations {
		if v != "" && strings.HasPrefix(text, v) {
			return true
		}
	}
	return false
}
