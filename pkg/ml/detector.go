// Package ml implements the trained scoring path: a TF-IDF lexical vectorizer
// concatenated with the behavioral feature vector, classified by a bagged
// decision-tree ensemble. Explanation generation lives here too, since it
// consumes the same feature snapshot the classifier saw.
package ml

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"

	"github.com/honeyshield/honeyshield/pkg/features"
)

// ErrNotTrained is returned when prediction is attempted before a model has
// been fitted or loaded. This is a programming error at the call site, not a
// condition to degrade around: scoring without a fitted model is forbidden.
var ErrNotTrained = errors.New("model not trained: fit or load a model before predicting")

// RiskLevel bands a continuous probability into operator-facing severities.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
	RiskUnknown  RiskLevel = "UNKNOWN" // batch entries whose analysis failed
)

// RiskLevelFor buckets a probability. The bands are total and
// non-overlapping: exactly one level applies for any p in [0,1].
func RiskLevelFor(probability float64) RiskLevel {
	switch {
	case probability > 0.8:
		return RiskCritical
	case probability > 0.6:
		return RiskHigh
	case probability > 0.4:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Explanation is the human-readable account of a single prediction.
type Explanation struct {
	Probability        float64         `json:"probability"`
	RiskLevel          RiskLevel       `json:"risk_level"`
	RiskScore          int             `json:"risk_score"`
	KeyIndicators      []string        `json:"key_indicators"`
	BehavioralPatterns []string        `json:"behavioral_patterns"`
	FeatureAnalysis    features.Vector `json:"feature_analysis"`
	Confidence         float64         `json:"confidence"`
	Summary            string          `json:"explanation_summary"`
}

// Sample is one labeled training example. Label is 0 (legitimate) or 1
// (phishing).
type Sample struct {
	Text  string `json:"text"`
	Label int    `json:"label"`
}

// FeatureImportance pairs a feature name with its normalized importance.
type FeatureImportance struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// TrainReport summarizes a training run.
type TrainReport struct {
	TrainAccuracy float64             `json:"train_accuracy"`
	TestAccuracy  float64             `json:"test_accuracy"`
	TrainSize     int                 `json:"train_size"`
	TestSize      int                 `json:"test_size"`
	TopFeatures   []FeatureImportance `json:"top_features"`
}

// Detector owns the vectorizer + forest pair. Train mutates the pair in
// place and must not run concurrently with Predict on the same instance; a
// trained Detector is immutable and safe for concurrent prediction.
type Detector struct {
	vectorizer *Vectorizer
	forest     *Forest
	trained    bool
}

// NewDetector creates an untrained detector with the given configs.
func NewDetector(vcfg VectorizerConfig, fcfg ForestConfig) *Detector {
	return &Detector{
		vectorizer: NewVectorizer(vcfg),
		forest:     NewForest(fcfg),
	}
}

// NewDefaultDetector creates an untrained detector with production settings.
func NewDefaultDetector() *Detector {
	return NewDetector(DefaultVectorizerConfig(), DefaultForestConfig())
}

// IsTrained reports whether the detector can serve predictions.
func (d *Detector) IsTrained() bool {
	return d.trained
}

// SimilarityIndex builds an empty known-scam index sharing this detector's
// fitted lexical space. Returns ErrNotTrained before Train or Load.
func (d *Detector) SimilarityIndex() (*SimilarityIndex, error) {
	if !d.trained {
		return nil, ErrNotTrained
	}
	return NewSimilarityIndex(d.vectorizer)
}

// Train fits the lexical space and the ensemble over the corpus, holding out
// a label-stratified test fraction for evaluation.
func (d *Detector) Train(samples []Sample, testFraction float64) (*TrainReport, error) {
	if len(samples) < 4 {
		return nil, fmt.Errorf("corpus too small: %d samples", len(samples))
	}
	if testFraction <= 0 || testFraction >= 1 {
		testFraction = 0.2
	}

	texts := make([]string, len(samples))
	for i, s := range samples {
		texts[i] = s.Text
	}
	d.vectorizer.Fit(texts)

	X := make([][]float64, len(samples))
	y := make([]int, len(samples))
	for i, s := range samples {
		X[i] = d.combine(s.Text)
		y[i] = s.Label
	}

	trainIdx, testIdx := stratifiedSplit(y, testFraction, d.forest.Config.Seed)

	trainX := make([][]float64, len(trainIdx))
	trainY := make([]int, len(trainIdx))
	for i, j := range trainIdx {
		trainX[i] = X[j]
		trainY[i] = y[j]
	}

	d.forest.Fit(trainX, trainY)
	d.trained = true

	report := &TrainReport{
		TrainAccuracy: d.accuracy(trainIdx, X, y),
		TestAccuracy:  d.accuracy(testIdx, X, y),
		TrainSize:     len(trainIdx),
		TestSize:      len(testIdx),
		TopFeatures:   d.topImportances(10),
	}

	log.Printf("[TRAIN] completed: train_acc=%.3f test_acc=%.3f vocab=%d",
		report.TrainAccuracy, report.TestAccuracy, d.vectorizer.VocabularySize())

	return report, nil
}

// Predict returns the phishing probability and its explanation. Fails with
// ErrNotTrained before Train or a model load; there is no heuristic fallback.
func (d *Detector) Predict(text string) (float64, *Explanation, error) {
	if !d.trained {
		return 0, nil, ErrNotTrained
	}

	fv := features.Extract(text)
	probability := d.forest.PredictProba(combineVectors(d.vectorizer.Transform(text), fv))

	return probability, Explain(probability, fv), nil
}

// combine builds the full lexical+behavioral row for one text.
func (d *Detector) combine(text string) []float64 {
	return combineVectors(d.vectorizer.Transform(text), features.Extract(text))
}

func combineVectors(lexical []float64, fv features.Vector) []float64 {
	dense := fv.Values()
	combined := make([]float64, 0, len(lexical)+len(dense))
	combined = append(combined, lexical...)
	combined = append(combined, dense...)
	return combined
}

func (d *Detector) accuracy(idx []int, X [][]float64, y []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	correct := 0
	for _, i := range idx {
		if d.forest.Predict(X[i]) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(idx))
}

// topImportances ranks combined-space columns and maps them back to lexical
// terms or behavioral feature names.
func (d *Detector) topImportances(n int) []FeatureImportance {
	imps := d.forest.FeatureImportances()
	vocabSize := d.vectorizer.VocabularySize()
	lexNames := d.vectorizer.FeatureNames()
	denseNames := features.Names()

	ranked := make([]FeatureImportance, 0, len(imps))
	for col, imp := range imps {
		if imp == 0 {
			continue
		}
		var name string
		if col < vocabSize {
			name = lexNames[col]
		} else if col-vocabSize < len(denseNames) {
			name = denseNames[col-vocabSize]
		} else {
			continue
		}
		ranked = append(ranked, FeatureImportance{Name: name, Importance: imp})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Importance != ranked[j].Importance {
			return ranked[i].Importance > ranked[j].Importance
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// stratifiedSplit partitions indexes into train/test preserving the label
// balance of the corpus. Deterministic for a fixed seed.
func stratifiedSplit(y []int, testFraction float64, seed int64) (train, test []int) {
	byLabel := map[int][]int{}
	for i, label := range y {
		byLabel[label] = append(byLabel[label], i)
	}

	// Deterministic shuffle per label group.
	rng := rand.New(rand.NewSource(seed))
	labels := make([]int, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	for _, label := range labels {
		idx := byLabel[label]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		cut := int(float64(len(idx)) * testFraction)
		if cut == 0 && len(idx) > 1 {
			cut = 1
		}
		test = append(test, idx[:cut]...)
		train = append(train, idx[cut:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}
