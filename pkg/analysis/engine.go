package analysis

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/honeyshield/honeyshield/pkg/features"
	"github.com/honeyshield/honeyshield/pkg/httputil"
	"github.com/honeyshield/honeyshield/pkg/ml"
	"github.com/honeyshield/honeyshield/pkg/rules"
)

// Engine runs the full analysis pipeline. The detector must be trained or
// loaded before construction; there is no heuristic-only degraded mode, an
// unfitted model refuses to score rather than guessing.
type Engine struct {
	detector *ml.Detector
	scorer   *rules.Scorer
	index    *ml.SimilarityIndex
	sem      *httputil.Semaphore
	now      func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithSimilarityIndex attaches a known-scam index; its nearest match is
// recorded on every report as audit evidence.
func WithSimilarityIndex(idx *ml.SimilarityIndex) Option {
	return func(e *Engine) { e.index = idx }
}

// WithRuleScorer overrides the default rule-based cross-check scorer.
func WithRuleScorer(s *rules.Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithBatchConcurrency bounds how many messages a batch analyzes at once.
func WithBatchConcurrency(n int) Option {
	return func(e *Engine) { e.sem = httputil.NewSemaphore(n) }
}

// withClock fixes the engine clock, for temporal-context tests.
func withClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an engine around a trained detector. Returns
// ml.ErrNotTrained if the detector is not ready.
func NewEngine(detector *ml.Detector, opts ...Option) (*Engine, error) {
	if detector == nil || !detector.IsTrained() {
		return nil, ml.ErrNotTrained
	}

	e := &Engine{
		detector: detector,
		scorer:   rules.NewScorer(rules.DefaultConfig()),
		sem:      httputil.NewSemaphore(8),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Analyze scores a single message and assembles the full report.
func (e *Engine) Analyze(ctx context.Context, content string) (*Report, error) {
	probability, expl, err := e.detector.Predict(content)
	if err != nil {
		return nil, fmt.Errorf("classification failed: %w", err)
	}

	now := e.now()
	report := &Report{
		FinalScore:           int(math.Round(probability * 100)),
		RiskLevel:            expl.RiskLevel,
		Probability:          probability,
		Confidence:           expl.Confidence,
		KeyIndicators:        expl.KeyIndicators,
		BehavioralPatterns:   expl.BehavioralPatterns,
		FeatureAnalysis:      expl.FeatureAnalysis,
		Summary:              expl.Summary,
		ThreatClassification: classifyThreat(expl.KeyIndicators, expl.BehavioralPatterns),
		TemporalContext:      temporalContext(now),
		RecommendedAction:    recommendedAction(expl.RiskLevel),
		AnalyzedAt:           now,
	}

	if e.scorer != nil {
		audit := e.scorer.Score(content)
		report.RuleAudit = &audit
		report.RuleTechniques = rules.Techniques(audit)
	}

	if e.index != nil {
		if near, err := e.index.Nearest(ctx, content, 1); err != nil {
			log.Printf("[WARN] similarity lookup failed: %v", err)
		} else if near.Found {
			report.NearestKnownScam = &SimilarityEvidence{
				MatchedText: near.Best.Text,
				Category:    near.Best.Category,
				Similarity:  near.Best.Similarity,
			}
		}
	}

	return report, nil
}

// AnalyzeBatch scores messages independently under the batch concurrency
// bound. A failure on one message never aborts the batch: the failed slot
// carries risk level UNKNOWN and score 0 with the error recorded. Results
// keep input order.
func (e *Engine) AnalyzeBatch(ctx context.Context, contents []string) []*Report {
	reports := make([]*Report, len(contents))
	var wg sync.WaitGroup

	for i, content := range contents {
		if err := e.sem.Acquire(ctx); err != nil {
			reports[i] = errorReport(err)
			continue
		}
		wg.Add(1)
		go func(i int, content string) {
			defer wg.Done()
			defer e.sem.Release()
			reports[i] = e.analyzeIsolated(ctx, content)
		}(i, content)
	}

	wg.Wait()
	return reports
}

// analyzeIsolated converts any failure, including a panic in a sub-scorer,
// into an UNKNOWN report slot.
func (e *Engine) analyzeIsolated(ctx context.Context, content string) (report *Report) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WARN] analysis panic isolated: %v", r)
			report = errorReport(fmt.Errorf("analysis panic: %v", r))
		}
	}()

	report, err := e.Analyze(ctx, content)
	if err != nil {
		log.Printf("[WARN] batch item failed: %v", err)
		return errorReport(err)
	}
	return report
}

func errorReport(err error) *Report {
	return &Report{
		FinalScore: 0,
		RiskLevel:  ml.RiskUnknown,
		Err:        err.Error(),
	}
}

// ExtractFeatures exposes the raw feature snapshot for a text, used by the
// HTTP debug surface.
func (e *Engine) ExtractFeatures(text string) features.Vector {
	return features.Extract(text)
}
