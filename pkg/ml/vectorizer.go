package ml

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// VectorizerConfig controls the lexical vector space.
type VectorizerConfig struct {
	MaxFeatures int     // Vocabulary size cap (default 2000)
	NgramMin    int     // Smallest n-gram (default 1)
	NgramMax    int     // Largest n-gram (default 3)
	MinDF       int     // Drop terms in fewer than MinDF documents (default 2)
	MaxDF       float64 // Drop terms in more than MaxDF fraction of documents (default 0.8)
}

// DefaultVectorizerConfig mirrors the settings the model was tuned with.
func DefaultVectorizerConfig() VectorizerConfig {
	return VectorizerConfig{
		MaxFeatures: 2000,
		NgramMin:    1,
		NgramMax:    3,
		MinDF:       2,
		MaxDF:       0.8,
	}
}

// Vectorizer maps text onto a TF-IDF weighted n-gram space. Fit builds the
// vocabulary once over a training corpus; Transform then projects any single
// text into that fixed space (out-of-vocabulary terms contribute zero).
//
// A fitted Vectorizer is immutable and safe for concurrent Transform calls.
// Fit must not run concurrently with Transform on the same instance.
type Vectorizer struct {
	Config VectorizerConfig

	// Fitted state. Exported for gob round-tripping of the model artifact.
	Vocabulary map[string]int // term -> column index
	IDF        []float64      // per-column inverse document frequency
	Fitted     bool
}

// NewVectorizer creates an unfitted vectorizer.
func NewVectorizer(cfg VectorizerConfig) *Vectorizer {
	if cfg.MaxFeatures <= 0 {
		cfg = DefaultVectorizerConfig()
	}
	return &Vectorizer{Config: cfg}
}

// Fit builds the vocabulary and IDF table over the corpus.
func (v *Vectorizer) Fit(texts []string) {
	n := len(texts)
	docFreq := make(map[string]int)
	termFreq := make(map[string]int)

	for _, text := range texts {
		terms := v.terms(text)
		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			termFreq[t]++
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				docFreq[t]++
			}
		}
	}

	// Document-frequency floor and ceiling suppress rare noise and
	// near-universal terms that carry no signal.
	maxDocs := int(v.Config.MaxDF * float64(n))
	candidates := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df < v.Config.MinDF {
			continue
		}
		if n > 1 && df > maxDocs {
			continue
		}
		candidates = append(candidates, term)
	}

	// Keep the most frequent MaxFeatures terms; ties break alphabetically so
	// the vocabulary is reproducible run to run.
	sort.Slice(candidates, func(i, j int) bool {
		if termFreq[candidates[i]] != termFreq[candidates[j]] {
			return termFreq[candidates[i]] > termFreq[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})
	if len(candidates) > v.Config.MaxFeatures {
		candidates = candidates[:v.Config.MaxFeatures]
	}
	sort.Strings(candidates)

	v.Vocabulary = make(map[string]int, len(candidates))
	v.IDF = make([]float64, len(candidates))
	for i, term := range candidates {
		v.Vocabulary[term] = i
		// Smoothed IDF: ln((1+n)/(1+df)) + 1
		v.IDF[i] = math.Log(float64(1+n)/float64(1+docFreq[term])) + 1
	}
	v.Fitted = true
}

// Transform projects a single text into the fitted space. The result is an
// L2-normalized dense vector of VocabularySize length. Terms outside the
// fitted vocabulary contribute zero.
func (v *Vectorizer) Transform(text string) []float64 {
	out := make([]float64, len(v.IDF))
	if !v.Fitted {
		return out
	}

	for _, term := range v.terms(text) {
		if col, ok := v.Vocabulary[term]; ok {
			out[col] += v.IDF[col]
		}
	}

	var sumSq float64
	for _, x := range out {
		sumSq += x * x
	}
	if sumSq > 0 {
		norm := math.Sqrt(sumSq)
		for i := range out {
			out[i] /= norm
		}
	}
	return out
}

// VocabularySize returns the number of lexical columns.
func (v *Vectorizer) VocabularySize() int {
	return len(v.IDF)
}

// FeatureNames returns the vocabulary terms in column order.
func (v *Vectorizer) FeatureNames() []string {
	names := make([]string, len(v.IDF))
	for term, col := range v.Vocabulary {
		names[col] = term
	}
	return names
}

// terms tokenizes, drops stopwords and emits n-grams in the configured range.
func (v *Vectorizer) terms(text string) []string {
	tokens := tokenize(text)

	kept := tokens[:0]
	for _, tok := range tokens {
		if _, stop := stopwords[tok]; !stop {
			kept = append(kept, tok)
		}
	}

	var terms []string
	for n := v.Config.NgramMin; n <= v.Config.NgramMax; n++ {
		for i := 0; i+n <= len(kept); i++ {
			terms = append(terms, strings.Join(kept[i:i+n], " "))
		}
	}
	return terms
}

// tokenize lowercases and splits on any non-letter, non-digit rune.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// stopwords is a compact english stopword list. Near-universal glue words add
// vocabulary columns without adding signal.
var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "about", "above", "after", "again", "all", "am", "an", "and",
		"any", "are", "as", "at", "be", "because", "been", "before", "being",
		"below", "between", "both", "but", "by", "can", "did", "do", "does",
		"doing", "down", "during", "each", "few", "for", "from", "further",
		"had", "has", "have", "having", "he", "her", "here", "hers", "him",
		"his", "how", "i", "if", "in", "into", "is", "it", "its", "itself",
		"just", "me", "more", "most", "my", "myself", "no", "nor", "not",
		"of", "off", "on", "once", "or", "other", "our", "ours", "out",
		"over", "own", "s", "same", "she", "should", "so", "some", "such",
		"t", "than", "that", "the", "their", "theirs", "them", "then",
		"there", "these", "they", "this", "those", "through", "to", "too",
		"under", "until", "up", "very", "was", "we", "were", "what", "when",
		"where", "which", "while", "who", "whom", "why", "will", "with",
		"you", "your", "yours", "yourself",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
