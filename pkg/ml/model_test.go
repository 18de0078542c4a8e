package ml

import (
	"os"
	"path/filepath"
	"testing"
)

func TestModelSaveLoadRoundTrip(t *testing.T) {
	d := trainedDetector(t)
	path := filepath.Join(t.TempDir(), "model.gob")

	if err := d.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded := NewDefaultDetector()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !loaded.IsTrained() {
		t.Fatal("loaded detector should report trained")
	}

	probes := []string{
		"URGENT: verify your bank account password immediately",
		"Great to connect! See you at the conference",
		"Move to WhatsApp and send me your phone number right away",
		"The quarterly report is attached for review",
	}
	for _, probe := range probes {
		want, wantExpl, err := d.Predict(probe)
		if err != nil {
			t.Fatalf("predict failed: %v", err)
		}
		got, gotExpl, err := loaded.Predict(probe)
		if err != nil {
			t.Fatalf("predict on loaded model failed: %v", err)
		}
		if got != want {
			t.Errorf("loaded model disagrees on %q: %v vs %v", probe, got, want)
		}
		if gotExpl.RiskScore != wantExpl.RiskScore {
			t.Errorf("risk score drifted through save/load: %d vs %d", gotExpl.RiskScore, wantExpl.RiskScore)
		}
	}
}

func TestModelSaveUntrained(t *testing.T) {
	d := NewDefaultDetector()
	if err := d.Save(filepath.Join(t.TempDir(), "model.gob")); err != ErrNotTrained {
		t.Errorf("expected ErrNotTrained, got %v", err)
	}
}

func TestModelLoadMissingFile(t *testing.T) {
	d := NewDefaultDetector()
	if err := d.Load(filepath.Join(t.TempDir(), "missing.gob")); err == nil {
		t.Error("expected error loading a missing file")
	}
}

func TestModelLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.gob")
	if err := os.WriteFile(path, []byte("not a model"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := NewDefaultDetector()
	if err := d.Load(path); err == nil {
		t.Error("expected error loading a corrupt file")
	}
	if d.IsTrained() {
		t.Error("failed load must not mark the detector trained")
	}
}
