// Package features turns raw message text into a fixed, versioned vector of
// linguistic and behavioral signals. Extraction is deterministic, side-effect
// free and total: every input, including the empty string, yields a complete
// vector with zeroed counts and guarded ratios.
//
// The behavioral signals are deliberately cheap and interpretable - they feed
// both the classifier (concatenated after the lexical vector) and the
// human-readable explanations attached to alerts.
package features

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/honeyshield/honeyshield/pkg/patterns"
)

// SchemaVersion identifies the feature layout. Bump when fields are added,
// removed or reordered: a model trained against one version must never be fed
// vectors from another.
const SchemaVersion = 1

// Vector is the fixed feature schema. Field order defines the positional
// layout used when concatenating with the lexical vector, so it is stable
// across train, predict and process restarts.
type Vector struct {
	TextLength        float64 `json:"text_length"`
	WordCount         float64 `json:"word_count"`
	SentenceCount     float64 `json:"sentence_count"`
	AvgSentenceLength float64 `json:"avg_sentence_length"`
	AvgWordLength     float64 `json:"avg_word_length"`

	UrgencyScore           float64 `json:"urgency_score"`
	AuthorityScore         float64 `json:"authority_score"`
	ScarcityScore          float64 `json:"scarcity_score"`
	SocialProofScore       float64 `json:"social_proof_score"`
	InfoRequestScore       float64 `json:"info_request_score"`
	FinancialScore         float64 `json:"financial_score"`
	PlatformMigrationScore float64 `json:"platform_migration_score"`

	QuestionMarks    float64 `json:"question_marks"`
	ExclamationMarks float64 `json:"exclamation_marks"`
	CapitalRatio     float64 `json:"capital_ratio"`
	LinkCount        float64 `json:"link_count"`

	UniqueWordRatio float64 `json:"unique_word_ratio"`
	LongWordCount   float64 `json:"long_word_count"`

	PositiveEmotionScore float64 `json:"positive_emotion_score"`
	NegativeEmotionScore float64 `json:"negative_emotion_score"`
}

// featureNames is the canonical ordered name list, matching Vector field order.
var featureNames = []string{
	"text_length",
	"word_count",
	"sentence_count",
	"avg_sentence_length",
	"avg_word_length",
	"urgency_score",
	"authority_score",
	"scarcity_score",
	"social_proof_score",
	"info_request_score",
	"financial_score",
	"platform_migration_score",
	"question_marks",
	"exclamation_marks",
	"capital_ratio",
	"link_count",
	"unique_word_ratio",
	"long_word_count",
	"positive_emotion_score",
	"negative_emotion_score",
}

// Names returns the ordered feature names. The returned slice is shared;
// callers must not mutate it.
func Names() []string {
	return featureNames
}

// Count returns the number of features in the schema.
func Count() int {
	return len(featureNames)
}

// Values returns the vector as a positionally stable []float64, in the order
// reported by Names.
func (v Vector) Values() []float64 {
	return []float64{
		v.TextLength,
		v.WordCount,
		v.SentenceCount,
		v.AvgSentenceLength,
		v.AvgWordLength,
		v.UrgencyScore,
		v.AuthorityScore,
		v.ScarcityScore,
		v.SocialProofScore,
		v.InfoRequestScore,
		v.FinancialScore,
		v.PlatformMigrationScore,
		v.QuestionMarks,
		v.ExclamationMarks,
		v.CapitalRatio,
		v.LinkCount,
		v.UniqueWordRatio,
		v.LongWordCount,
		v.PositiveEmotionScore,
		v.NegativeEmotionScore,
	}
}

// Extract computes the full feature vector for a message. Never fails:
// counts default to 0 and ratio denominators are floored at 1.
func Extract(text string) Vector {
	// NFKC folds fullwidth and compatibility forms so that vocabulary
	// matching sees the same codepoints the corpora were built from.
	text = norm.NFKC.String(text)

	reg := patterns.Get()
	words := strings.Fields(text)

	var v Vector

	v.TextLength = float64(len(text))
	v.WordCount = float64(len(words))
	v.SentenceCount = float64(countSentences(text))
	v.AvgSentenceLength = v.WordCount / v.SentenceCount
	v.AvgWordLength = totalWordLength(words) / maxf(v.WordCount, 1)

	v.UrgencyScore = float64(reg.CountMatches(text, patterns.CategoryUrgency))
	v.AuthorityScore = float64(reg.CountMatches(text, patterns.CategoryAuthority))
	v.ScarcityScore = float64(reg.CountMatches(text, patterns.CategoryScarcity))
	v.SocialProofScore = float64(reg.CountMatches(text, patterns.CategorySocialProof))
	v.InfoRequestScore = float64(reg.CountMatches(text, patterns.CategoryInfoRequest))
	v.FinancialScore = float64(reg.CountMatches(text, patterns.CategoryFinancial))
	v.PlatformMigrationScore = float64(reg.CountMatches(text, patterns.CategoryPlatformMigration))

	v.QuestionMarks = float64(strings.Count(text, "?"))
	v.ExclamationMarks = float64(strings.Count(text, "!"))
	v.CapitalRatio = capitalRatio(text)
	v.LinkCount = float64(reg.CountMatches(text, patterns.CategoryLink))

	v.UniqueWordRatio = float64(uniqueWords(words)) / maxf(v.WordCount, 1)
	v.LongWordCount = float64(longWords(words, 6))

	v.PositiveEmotionScore = float64(reg.CountMatches(text, patterns.CategoryPositiveEmotion))
	v.NegativeEmotionScore = float64(reg.CountMatches(text, patterns.CategoryNegativeEmotion))

	return v
}

// countSentences splits on terminal punctuation and counts non-empty
// fragments, flooring at 1 so per-sentence ratios never divide by zero.
func countSentences(text string) int {
	count := 0
	for _, s := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if strings.TrimSpace(s) != "" {
			count++
		}
	}
	if count < 1 {
		return 1
	}
	return count
}

func totalWordLength(words []string) float64 {
	total := 0
	for _, w := range words {
		total += len(w)
	}
	return float64(total)
}

func capitalRatio(text string) float64 {
	if len(text) == 0 {
		return 0
	}
	upper := 0
	for _, r := range text {
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return float64(upper) / float64(len(text))
}

func uniqueWords(words []string) int {
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[w] = struct{}{}
	}
	return len(seen)
}

func longWords(words []string, minLen int) int {
	count := 0
	for _, w := range words {
		if len(w) > minLen {
			count++
		}
	}
	return count
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
