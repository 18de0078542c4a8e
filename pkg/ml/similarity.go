package ml

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"
)

// KnownScam is a labeled manipulation message indexed for similarity lookup.
type KnownScam struct {
	Text     string
	Category string
}

// ScamMatch is a single nearest-neighbor hit from the index.
type ScamMatch struct {
	Text       string
	Category   string
	Similarity float32
}

// SimilarityResult is the outcome of a nearest-known-scam lookup.
type SimilarityResult struct {
	Found      bool
	Best       ScamMatch
	TopMatches []ScamMatch
}

// SimilarityIndex holds known scam messages in an in-process vector store and
// answers "which known scam does this message resemble most". Embeddings come
// from a fitted Vectorizer, so the index and the classifier share one lexical
// space and the lookup needs no external model.
type SimilarityIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	vectorizer *Vectorizer
	mu         sync.RWMutex
	count      int
}

// NewSimilarityIndex creates an empty index backed by the given fitted vectorizer.
func NewSimilarityIndex(v *Vectorizer) (*SimilarityIndex, error) {
	if v == nil || !v.Fitted {
		return nil, errors.New("similarity index requires a fitted vectorizer")
	}

	db := chromem.NewDB()

	embeddingFunc := func(ctx context.Context, text string) ([]float32, error) {
		emb, ok := embed(v, text)
		if !ok {
			return nil, errors.New("text shares no vocabulary with the index")
		}
		return emb, nil
	}

	collection, err := db.CreateCollection("known_scams", nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	return &SimilarityIndex{
		db:         db,
		collection: collection,
		vectorizer: v,
	}, nil
}

// AddSamples indexes the given known scams. Samples with no vocabulary overlap
// against the fitted vectorizer are skipped, since a zero vector has no
// meaningful cosine neighborhood.
func (si *SimilarityIndex) AddSamples(ctx context.Context, scams []KnownScam) (int, error) {
	si.mu.Lock()
	defer si.mu.Unlock()

	added := 0
	for _, s := range scams {
		emb, ok := embed(si.vectorizer, s.Text)
		if !ok {
			continue
		}
		doc := chromem.Document{
			ID:        fmt.Sprintf("scam_%d", si.count+added),
			Content:   s.Text,
			Embedding: emb,
			Metadata: map[string]string{
				"category": s.Category,
			},
		}
		if err := si.collection.AddDocument(ctx, doc); err != nil {
			return added, fmt.Errorf("failed to index sample: %w", err)
		}
		added++
	}
	si.count += added
	return added, nil
}

// Size reports how many samples the index holds.
func (si *SimilarityIndex) Size() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return si.count
}

// Nearest returns the known scams most similar to text, best match first.
// An empty index, or a message with no vocabulary overlap, yields Found=false.
func (si *SimilarityIndex) Nearest(ctx context.Context, text string, topK int) (*SimilarityResult, error) {
	si.mu.RLock()
	defer si.mu.RUnlock()

	if si.count == 0 {
		return &SimilarityResult{}, nil
	}
	if _, ok := embed(si.vectorizer, text); !ok {
		return &SimilarityResult{}, nil
	}

	if topK < 1 {
		topK = 1
	}
	if topK > si.count {
		topK = si.count
	}

	results, err := si.collection.Query(ctx, strings.ToLower(text), topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("similarity query failed: %w", err)
	}
	if len(results) == 0 {
		return &SimilarityResult{}, nil
	}

	matches := make([]ScamMatch, len(results))
	for i, r := range results {
		matches[i] = ScamMatch{
			Text:       r.Content,
			Category:   r.Metadata["category"],
			Similarity: r.Similarity,
		}
	}

	return &SimilarityResult{
		Found:      true,
		Best:       matches[0],
		TopMatches: matches,
	}, nil
}

// embed converts a message into a unit-length float32 vector via the fitted
// vectorizer. The second return is false when the message shares no terms with
// the vocabulary, which would otherwise produce a zero vector.
func embed(v *Vectorizer, text string) ([]float32, bool) {
	dense := v.Transform(text)
	out := make([]float32, len(dense))
	nonzero := false
	for i, val := range dense {
		out[i] = float32(val)
		if val != 0 {
			nonzero = true
		}
	}
	return out, nonzero
}
