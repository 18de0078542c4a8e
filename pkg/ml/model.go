package ml

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/honeyshield/honeyshield/pkg/features"
)

// modelBundle is the serialized model artifact: the fitted lexical space, the
// fitted ensemble, the trained flag and the behavioral feature names the
// model was fit against. Gob preserves float64 values exactly, so a loaded
// model reproduces a saved model's probabilities bit for bit.
type modelBundle struct {
	SchemaVersion int
	Vectorizer    Vectorizer
	Forest        Forest
	IsTrained     bool
	FeatureNames  []string
}

// Save writes the trained model to path. Saving an untrained detector is an
// error; there is nothing meaningful to persist.
func (d *Detector) Save(path string) error {
	if !d.trained {
		return ErrNotTrained
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	defer f.Close()

	bundle := modelBundle{
		SchemaVersion: features.SchemaVersion,
		Vectorizer:    *d.vectorizer,
		Forest:        *d.forest,
		IsTrained:     d.trained,
		FeatureNames:  features.Names(),
	}
	if err := gob.NewEncoder(f).Encode(&bundle); err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	return nil
}

// Load replaces the detector's state with a previously saved artifact.
// Rejects artifacts from a different feature schema version: positional
// concatenation with the lexical vector is only valid against the layout the
// model was trained with.
func (d *Detector) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()

	var bundle modelBundle
	if err := gob.NewDecoder(f).Decode(&bundle); err != nil {
		return fmt.Errorf("decode model: %w", err)
	}
	if bundle.SchemaVersion != features.SchemaVersion {
		return fmt.Errorf("model feature schema v%d does not match runtime v%d; retrain required",
			bundle.SchemaVersion, features.SchemaVersion)
	}
	if !bundle.IsTrained {
		return fmt.Errorf("model artifact %s was saved untrained", path)
	}

	d.vectorizer = &bundle.Vectorizer
	d.forest = &bundle.Forest
	d.trained = true
	return nil
}
