package ml

import (
	"math"
	"math/rand"
)

// ForestConfig controls the bagged tree ensemble.
type ForestConfig struct {
	Trees           int   // Number of bagged trees (default 200)
	MaxDepth        int   // Depth cap per tree (default 20)
	MinSamplesSplit int   // Smallest node that may still split (default 5)
	Seed            int64 // RNG seed; fixed so retraining is reproducible
}

// DefaultForestConfig mirrors the settings the model was tuned with.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		Trees:           200,
		MaxDepth:        20,
		MinSamplesSplit: 5,
		Seed:            42,
	}
}

// treeNode is one node of a serialized decision tree. Leaves carry the
// positive-class fraction of the training samples that reached them; internal
// nodes carry a feature/threshold split with child indexes into the same
// slice. Flat storage keeps the artifact gob-friendly.
type treeNode struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Leaf      bool
	Value     float64 // positive-class fraction at a leaf
}

// tree is a single CART classifier.
type tree struct {
	Nodes []treeNode
}

func (t *tree) predict(x []float64) float64 {
	i := 0
	for !t.Nodes[i].Leaf {
		if x[t.Nodes[i].Feature] <= t.Nodes[i].Threshold {
			i = t.Nodes[i].Left
		} else {
			i = t.Nodes[i].Right
		}
	}
	return t.Nodes[i].Value
}

// Forest is a bagged ensemble of decision trees over the combined
// lexical+behavioral representation. A fitted Forest is immutable and safe
// for concurrent PredictProba calls; Fit must not race with prediction on
// the same instance.
type Forest struct {
	Config ForestConfig

	// Fitted state, exported for gob round-tripping.
	Trees       []tree
	NumFeatures int
	Importances []float64
	Fitted      bool
}

// NewForest creates an unfitted ensemble.
func NewForest(cfg ForestConfig) *Forest {
	if cfg.Trees <= 0 {
		cfg = DefaultForestConfig()
	}
	return &Forest{Config: cfg}
}

// Fit trains the ensemble on feature matrix X with binary labels y.
func (f *Forest) Fit(X [][]float64, y []int) {
	if len(X) == 0 {
		return
	}
	f.NumFeatures = len(X[0])
	f.Trees = make([]tree, f.Config.Trees)
	f.Importances = make([]float64, f.NumFeatures)

	rng := rand.New(rand.NewSource(f.Config.Seed))

	// Random-subspace splits: each node considers sqrt(d) candidate features,
	// which decorrelates the bagged trees.
	mtry := int(math.Sqrt(float64(f.NumFeatures)))
	if mtry < 1 {
		mtry = 1
	}

	for i := range f.Trees {
		// Bootstrap sample with replacement.
		idx := make([]int, len(X))
		for j := range idx {
			idx[j] = rng.Intn(len(X))
		}

		b := &treeBuilder{
			X:       X,
			y:       y,
			cfg:     f.Config,
			mtry:    mtry,
			rng:     rng,
			imp:     f.Importances,
			totalN:  float64(len(idx)),
			numFeat: f.NumFeatures,
		}
		b.grow(idx, 0)
		f.Trees[i] = tree{Nodes: b.nodes}
	}

	// Normalize accumulated impurity decreases into importances.
	var total float64
	for _, v := range f.Importances {
		total += v
	}
	if total > 0 {
		for i := range f.Importances {
			f.Importances[i] /= total
		}
	}

	f.Fitted = true
}

// PredictProba returns the positive-class probability as the mean of the
// per-tree leaf fractions. Deterministic for a fitted forest.
func (f *Forest) PredictProba(x []float64) float64 {
	if !f.Fitted || len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].predict(x)
	}
	return sum / float64(len(f.Trees))
}

// Predict returns the hard label at the 0.5 boundary.
func (f *Forest) Predict(x []float64) int {
	if f.PredictProba(x) > 0.5 {
		return 1
	}
	return 0
}

// FeatureImportances returns normalized mean impurity decrease per feature.
func (f *Forest) FeatureImportances() []float64 {
	return f.Importances
}

// treeBuilder grows a single tree recursively over bootstrap indexes.
type treeBuilder struct {
	X       [][]float64
	y       []int
	cfg     ForestConfig
	mtry    int
	rng     *rand.Rand
	nodes   []treeNode
	imp     []float64
	totalN  float64
	numFeat int
}

// grow appends the subtree for idx and returns its root node index.
func (b *treeBuilder) grow(idx []int, depth int) int {
	pos := 0
	for _, i := range idx {
		pos += b.y[i]
	}
	frac := float64(pos) / float64(len(idx))

	// Stop on purity, depth or node size.
	if pos == 0 || pos == len(idx) ||
		depth >= b.cfg.MaxDepth || len(idx) < b.cfg.MinSamplesSplit {
		return b.leaf(frac)
	}

	feature, threshold, gain, ok := b.bestSplit(idx, frac)
	if !ok {
		return b.leaf(frac)
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return b.leaf(frac)
	}

	b.imp[feature] += gain * float64(len(idx)) / b.totalN

	node := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{Feature: feature, Threshold: threshold})
	b.nodes[node].Left = b.grow(left, depth+1)
	b.nodes[node].Right = b.grow(right, depth+1)
	return node
}

func (b *treeBuilder) leaf(frac float64) int {
	b.nodes = append(b.nodes, treeNode{Leaf: true, Value: frac})
	return len(b.nodes) - 1
}

// bestSplit scans mtry random features for the gini-optimal threshold.
func (b *treeBuilder) bestSplit(idx []int, parentFrac float64) (int, float64, float64, bool) {
	parentGini := gini(parentFrac)

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	for k := 0; k < b.mtry; k++ {
		feature := b.rng.Intn(b.numFeat)

		// Midpoints between distinct observed values are the only
		// thresholds worth testing; sampling a handful keeps node cost
		// bounded on the wide lexical matrix.
		for trial := 0; trial < 8; trial++ {
			a := b.X[idx[b.rng.Intn(len(idx))]][feature]
			c := b.X[idx[b.rng.Intn(len(idx))]][feature]
			if a == c {
				continue
			}
			threshold := (a + c) / 2

			var nL, posL, nR, posR int
			for _, i := range idx {
				if b.X[i][feature] <= threshold {
					nL++
					posL += b.y[i]
				} else {
					nR++
					posR += b.y[i]
				}
			}
			if nL == 0 || nR == 0 {
				continue
			}

			wL := float64(nL) / float64(len(idx))
			wR := float64(nR) / float64(len(idx))
			gain := parentGini -
				wL*gini(float64(posL)/float64(nL)) -
				wR*gini(float64(posR)/float64(nR))

			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	if bestFeature < 0 || bestGain <= 1e-12 {
		return 0, 0, 0, false
	}
	return bestFeature, bestThreshold, bestGain, true
}

// gini returns binary gini impurity for a positive-class fraction.
func gini(p float64) float64 {
	return 2 * p * (1 - p)
}
