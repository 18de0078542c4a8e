package training

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/honeyshield/honeyshield/pkg/ml"
)

// LoadCorpus reads a labeled corpus from a JSON file containing an array
// of {"text": ..., "label": 0|1} objects. Unknown fields are ignored so
// datasets exported with extra metadata load unchanged.
func LoadCorpus(path string) ([]ml.Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}

	var samples []ml.Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse corpus: %w", err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("corpus %s contains no samples", path)
	}
	for i, s := range samples {
		if s.Text == "" {
			return nil, fmt.Errorf("corpus sample %d has empty text", i)
		}
		if s.Label != 0 && s.Label != 1 {
			return nil, fmt.Errorf("corpus sample %d has label %d, want 0 or 1", i, s.Label)
		}
	}
	return samples, nil
}

// SaveCorpus writes a corpus to a JSON file, one use being to inspect or
// hand-edit a generated dataset before training on it.
func SaveCorpus(path string, samples []ml.Sample) error {
	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode corpus: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write corpus: %w", err)
	}
	return nil
}
