package features

import (
	"math"
	"testing"
)

func TestExtractEmptyString(t *testing.T) {
	v := Extract("")

	for i, val := range v.Values() {
		if val < 0 {
			t.Errorf("feature %s = %f, want >= 0", Names()[i], val)
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			t.Errorf("feature %s = %f, want finite", Names()[i], val)
		}
	}

	if v.WordCount != 0 {
		t.Errorf("WordCount = %f, want 0", v.WordCount)
	}
	if v.SentenceCount != 1 {
		t.Errorf("SentenceCount = %f, want 1 (floored)", v.SentenceCount)
	}
}

func TestExtractNeverNegativeOrNaN(t *testing.T) {
	inputs := []string{
		"",
		" ",
		"...",
		"?!?!?!",
		"a",
		"URGENT: Your account will be suspended! Click http://fake.com",
		"Hi, nice to connect!",
		"日本語のメッセージ with mixed scripts",
		"​​ invisible ​",
	}

	for _, input := range inputs {
		v := Extract(input)
		for i, val := range v.Values() {
			if val < 0 || math.IsNaN(val) || math.IsInf(val, 0) {
				t.Errorf("Extract(%q): feature %s = %f", input, Names()[i], val)
			}
		}
	}
}

func TestExtractManipulationSignals(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		check func(t *testing.T, v Vector)
	}{
		{
			name: "urgency and link",
			text: "URGENT: Your account will be suspended! Click http://fake.com",
			check: func(t *testing.T, v Vector) {
				if v.UrgencyScore < 1 {
					t.Errorf("UrgencyScore = %f, want >= 1", v.UrgencyScore)
				}
				if v.LinkCount < 1 {
					t.Errorf("LinkCount = %f, want >= 1", v.LinkCount)
				}
				if v.ExclamationMarks < 1 {
					t.Errorf("ExclamationMarks = %f, want >= 1", v.ExclamationMarks)
				}
			},
		},
		{
			name: "platform migration",
			text: "Add me on WhatsApp or Telegram, text me anytime",
			check: func(t *testing.T, v Vector) {
				if v.PlatformMigrationScore < 2 {
					t.Errorf("PlatformMigrationScore = %f, want >= 2", v.PlatformMigrationScore)
				}
			},
		},
		{
			name: "info harvesting",
			text: "Please verify your bank account number and confirm your password",
			check: func(t *testing.T, v Vector) {
				if v.InfoRequestScore < 4 {
					t.Errorf("InfoRequestScore = %f, want >= 4", v.InfoRequestScore)
				}
			},
		},
		{
			name: "benign greeting has no manipulation hits",
			text: "Hi, nice to connect!",
			check: func(t *testing.T, v Vector) {
				if v.UrgencyScore != 0 || v.InfoRequestScore != 0 || v.PlatformMigrationScore != 0 {
					t.Errorf("benign text scored urgency=%f info=%f platform=%f",
						v.UrgencyScore, v.InfoRequestScore, v.PlatformMigrationScore)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Extract(tt.text))
		})
	}
}

func TestExtractDeterministic(t *testing.T) {
	text := "Limited time investment opportunity! Contact me on Telegram immediately."

	a := Extract(text).Values()
	b := Extract(text).Values()

	for i := range a {
		if a[i] != b[i] {
			t.Errorf("feature %s differs across calls: %f vs %f", Names()[i], a[i], b[i])
		}
	}
}

func TestValuesMatchesNames(t *testing.T) {
	v := Extract("sample text")
	if len(v.Values()) != len(Names()) {
		t.Fatalf("Values() has %d entries, Names() has %d", len(v.Values()), len(Names()))
	}
	if Count() != len(Names()) {
		t.Fatalf("Count() = %d, want %d", Count(), len(Names()))
	}
}

func TestCapitalRatio(t *testing.T) {
	v := Extract("ABCD")
	if v.CapitalRatio != 1.0 {
		t.Errorf("CapitalRatio = %f, want 1.0", v.CapitalRatio)
	}

	v = Extract("abcd")
	if v.CapitalRatio != 0.0 {
		t.Errorf("CapitalRatio = %f, want 0.0", v.CapitalRatio)
	}
}
