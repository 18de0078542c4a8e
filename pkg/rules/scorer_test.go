package rules

import (
	"strings"
	"testing"
)

func TestScoreBenignMessage(t *testing.T) {
	s := NewScorer(DefaultConfig())

	res := s.Score("Hi, nice to connect! Looking forward to the conference.")
	if res.RiskScore != 0 {
		t.Errorf("benign message scored %d, want 0", res.RiskScore)
	}
	if len(res.Keywords) != 0 {
		t.Errorf("unexpected keywords: %v", res.Keywords)
	}
}

func TestScoreEmptyAndDegenerateInput(t *testing.T) {
	s := NewScorer(DefaultConfig())

	for _, text := range []string{"", "   ", "\x00\x01", strings.Repeat("!", 500)} {
		res := s.Score(text)
		if res.RiskScore != 0 {
			t.Errorf("degenerate input %q scored %d, want 0", text, res.RiskScore)
		}
	}
}

func TestScoreKeywordAccumulation(t *testing.T) {
	cfg := DefaultConfig()
	s := NewScorer(cfg)

	// "urgent" and "verify" are single keywords; "verify your account" is a
	// high-risk phrase counted at double weight.
	res := s.Score("It is urgent that you verify your account")
	want := cfg.KeywordWeight*2 + cfg.KeywordWeight*2 + cfg.EscalationWeight
	if res.RiskScore != want {
		t.Errorf("score = %d, want %d (keywords %v, notes %v)", res.RiskScore, want, res.Keywords, res.Notes)
	}

	found := strings.Join(res.Keywords, ", ")
	for _, kw := range []string{"urgent", "verify", "verify your account"} {
		if !strings.Contains(found, kw) {
			t.Errorf("expected keyword %q in %v", kw, res.Keywords)
		}
	}
}

func TestScoreEscalationAndPrivateInfo(t *testing.T) {
	cfg := DefaultConfig()
	s := NewScorer(cfg)

	tests := []struct {
		name     string
		text     string
		wantNote string
	}{
		{"escalation", "we need to talk right away", "Rapid relationship escalation detected"},
		{"private info", "what is your phone number?", "Potential private information request"},
		{"contact channel", "add me on whatsapp", "Potential private information request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Score(tt.text)
			if res.RiskScore == 0 {
				t.Fatalf("expected a positive score for %q", tt.text)
			}
			for _, note := range res.Notes {
				if note == tt.wantNote {
					return
				}
			}
			t.Errorf("missing note %q in %v", tt.wantNote, res.Notes)
		})
	}
}

func TestScoreClampedAtHundred(t *testing.T) {
	s := NewScorer(DefaultConfig())

	// Stack every rule family at once.
	res := s.Score("URGENT winner! Verify your account password immediately, " +
		"claim your prize money, act now, limited time, send me your phone number " +
		"on whatsapp, wire transfer the bitcoin investment, this is the bank")
	if res.RiskScore != 100 {
		t.Errorf("score = %d, want clamp at 100", res.RiskScore)
	}
}

func TestScoreSentimentBonus(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SuspiciousKeywords = nil
	cfg.HighRiskPhrases = nil
	s := NewScorer(cfg)

	res := s.Score("Wonderful amazing fantastic incredible, you are so lucky")
	if res.RiskScore != cfg.SentimentWeight {
		t.Errorf("score = %d, want sentiment bonus %d (notes %v)", res.RiskScore, cfg.SentimentWeight, res.Notes)
	}

	res = s.Score("Great demo today, although the deploy hit a problem")
	if res.RiskScore != 0 {
		t.Errorf("mixed sentiment should add nothing, got %d (notes %v)", res.RiskScore, res.Notes)
	}
}

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantScored bool
		wantSign   int
	}{
		{"no lexicon coverage", "the meeting is on thursday", false, 0},
		{"positive", "amazing wonderful fantastic", true, 1},
		{"negative", "warning: account suspended, penalty and jail", true, -1},
		{"balanced", "great news but terrible timing", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeSentiment(tt.text)
			if got.Scored != tt.wantScored {
				t.Fatalf("Scored = %v, want %v", got.Scored, tt.wantScored)
			}
			switch {
			case tt.wantSign > 0 && got.Polarity <= 0.5:
				t.Errorf("expected strongly positive polarity, got %f", got.Polarity)
			case tt.wantSign < 0 && got.Polarity >= -0.5:
				t.Errorf("expected strongly negative polarity, got %f", got.Polarity)
			case tt.wantSign == 0 && tt.wantScored && got.Polarity != 0:
				t.Errorf("expected neutral polarity, got %f", got.Polarity)
			}
		})
	}
}

func TestTechniques(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want []string
	}{
		{
			"low score",
			Result{RiskScore: 20},
			[]string{TechniqueUndetermined},
		},
		{
			"identity floor",
			Result{RiskScore: 40},
			[]string{TechniqueGatherIdentity},
		},
		{
			"private info note",
			Result{RiskScore: 45, Notes: []string{"Potential private information request"}},
			[]string{TechniqueGatherIdentity, TechniqueSearchVictim},
		},
		{
			"capability floor",
			Result{RiskScore: 85},
			[]string{TechniqueGatherIdentity, TechniqueEstablishAccts, TechniqueObtainCapab},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Techniques(tt.res)
			if len(got) != len(tt.want) {
				t.Fatalf("Techniques() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("technique %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
