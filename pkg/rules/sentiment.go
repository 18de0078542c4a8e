package rules

import (
	"strings"
	"unicode"
)

// Sentiment is an explicit sentiment outcome. Scored is false when the text
// contains no lexicon words at all, so callers can tell "neutral" apart from
// "nothing to measure".
type Sentiment struct {
	Polarity float64 `json:"polarity"`
	Hits     int     `json:"hits"`
	Scored   bool    `json:"scored"`
}

// positiveWords and negativeWords form a compact valence lexicon covering the
// vocabulary manipulation messages actually use: flattery, reward language on
// the positive side, threat and loss language on the negative side.
var positiveWords = wordSet(
	"amazing", "awesome", "beautiful", "best", "congratulations", "delighted",
	"excellent", "exciting", "fantastic", "free", "great", "guaranteed",
	"happy", "incredible", "love", "lucky", "perfect", "prize", "reward",
	"rich", "special", "trust", "win", "winner", "wonderful",
)

var negativeWords = wordSet(
	"afraid", "angry", "bad", "blocked", "danger", "dead", "fail", "fear",
	"fraud", "hate", "jail", "locked", "lose", "loss", "penalty", "police",
	"problem", "risk", "scared", "sorry", "suspended", "terminated",
	"terrible", "threat", "trouble", "warning", "worst",
)

func wordSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// AnalyzeSentiment computes lexicon polarity in [-1, 1]: the signed fraction
// of valence words among all valence hits.
func AnalyzeSentiment(text string) Sentiment {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	pos, neg := 0, 0
	for _, w := range words {
		if _, ok := positiveWords[w]; ok {
			pos++
		}
		if _, ok := negativeWords[w]; ok {
			neg++
		}
	}

	total := pos + neg
	if total == 0 {
		return Sentiment{}
	}
	return Sentiment{
		Polarity: float64(pos-neg) / float64(total),
		Hits:     total,
		Scored:   true,
	}
}
