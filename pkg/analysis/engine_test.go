package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/honeyshield/honeyshield/pkg/ml"
)

func corpus() []ml.Sample {
	phishing := []string{
		"URGENT: verify your bank account immediately or it will be suspended",
		"Your account will be suspended! Verify your password immediately at http://secure-login.example",
		"Act now, verify your bank details immediately before your account is locked",
		"This is the security team, we need your password and account number immediately",
		"Congratulations you won a prize! Send your bank account details to claim the money",
		"You won! Claim your prize money now, just confirm your bank account and password",
		"Let's move to WhatsApp, give me your phone number and personal email right away",
		"Add me on Telegram urgent, send me your phone number so we can talk",
		"I am a government official, confirm your account password immediately or face penalty",
		"Limited time offer, invest your money now and wire the payment immediately",
	}
	legitimate := []string{
		"Hi, great to connect! I enjoyed your talk at the conference last week",
		"Thanks for connecting, I enjoyed reading your article about design systems",
		"Are we still on for the project meeting on Thursday afternoon?",
		"The quarterly report is attached, let me know if the numbers look right",
		"Congrats on the new role! The team here sends their best wishes",
		"I pushed the fix to the main branch, the tests pass on my machine",
		"Lunch on Friday works for me, see you at the usual place",
		"The conference schedule is out, your session is on Thursday morning",
		"Nice meeting you at the meetup, happy to share my notes from the workshop",
		"The design review went well, I will send the meeting notes tomorrow",
	}

	samples := make([]ml.Sample, 0, len(phishing)+len(legitimate))
	for _, t := range phishing {
		samples = append(samples, ml.Sample{Text: t, Label: 1})
	}
	for _, t := range legitimate {
		samples = append(samples, ml.Sample{Text: t, Label: 0})
	}
	return samples
}

func testEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	d := ml.NewDefaultDetector()
	if _, err := d.Train(corpus(), 0.2); err != nil {
		t.Fatalf("training failed: %v", err)
	}
	e, err := NewEngine(d, opts...)
	if err != nil {
		t.Fatalf("engine construction failed: %v", err)
	}
	return e
}

func TestNewEngineRequiresTrainedDetector(t *testing.T) {
	if _, err := NewEngine(nil); err != ml.ErrNotTrained {
		t.Errorf("nil detector: expected ErrNotTrained, got %v", err)
	}
	if _, err := NewEngine(ml.NewDefaultDetector()); err != ml.ErrNotTrained {
		t.Errorf("untrained detector: expected ErrNotTrained, got %v", err)
	}
}

func TestAnalyzeReportInvariants(t *testing.T) {
	e := testEngine(t)

	report, err := e.Analyze(context.Background(), "URGENT: verify your bank account password immediately, this is the security team http://fake.example")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if report.FinalScore < 0 || report.FinalScore > 100 {
		t.Errorf("final score out of bounds: %d", report.FinalScore)
	}
	want := int(float64(report.Probability)*100 + 0.5)
	if report.FinalScore != want {
		t.Errorf("final score %d does not round probability %.4f", report.FinalScore, report.Probability)
	}
	if report.RiskLevel != ml.RiskLevelFor(report.Probability) {
		t.Errorf("risk level %s disagrees with probability %.3f", report.RiskLevel, report.Probability)
	}
	if report.RecommendedAction == "" {
		t.Error("missing recommended action")
	}
	if len(report.ThreatClassification.PrimaryTypes) == 0 {
		t.Error("threat classification must always carry at least one primary type")
	}
	if report.RuleAudit == nil {
		t.Error("expected the rule-based audit result on the report")
	}
	if len(report.RuleTechniques) == 0 {
		t.Error("expected rule techniques on the report")
	}
}

func TestAnalyzeBenignVersusPhishing(t *testing.T) {
	e := testEngine(t)
	ctx := context.Background()

	phish, err := e.Analyze(ctx, "URGENT: verify your bank account password immediately or it will be suspended")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	benign, err := e.Analyze(ctx, "Hi, nice to connect!")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if phish.FinalScore <= benign.FinalScore {
		t.Errorf("phishing score %d should exceed benign score %d", phish.FinalScore, benign.FinalScore)
	}
	if benign.RiskLevel != ml.RiskLow {
		t.Errorf("benign greeting rated %s, want %s", benign.RiskLevel, ml.RiskLow)
	}
	if benign.FinalScore >= 40 {
		t.Errorf("benign score %d crosses the alerting floor", benign.FinalScore)
	}
}

func TestThreatClassification(t *testing.T) {
	tests := []struct {
		name        string
		indicators  []string
		wantPrimary []string
		wantSecond  int
		wantConf    float64
	}{
		{
			"no indicators",
			nil,
			[]string{"Unclassified Social Engineering"},
			0, 0,
		},
		{
			"urgency only",
			[]string{"High urgency language (3 instances)"},
			[]string{"Urgency-Based Phishing"},
			0, 0.3,
		},
		{
			"two families",
			[]string{"High urgency language (2 instances)", "Authority impersonation (2 instances)"},
			[]string{"Urgency-Based Phishing", "Authority Impersonation"},
			0, 0.6,
		},
		{
			"all families capped",
			[]string{
				"High urgency language (2 instances)",
				"Authority impersonation (2 instances)",
				"Financial terminology (2 instances)",
				"Platform migration attempt (1 instances)",
				"Personal information requests (3 instances)",
			},
			[]string{"Urgency-Based Phishing", "Authority Impersonation"},
			3, 1.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := classifyThreat(tt.indicators, nil)
			if len(tc.PrimaryTypes) != len(tt.wantPrimary) {
				t.Fatalf("primary = %v, want %v", tc.PrimaryTypes, tt.wantPrimary)
			}
			for i := range tt.wantPrimary {
				if tc.PrimaryTypes[i] != tt.wantPrimary[i] {
					t.Errorf("primary[%d] = %q, want %q", i, tc.PrimaryTypes[i], tt.wantPrimary[i])
				}
			}
			if len(tc.SecondaryTypes) != tt.wantSecond {
				t.Errorf("secondary = %v, want %d entries", tc.SecondaryTypes, tt.wantSecond)
			}
			if diff := tc.Confidence - tt.wantConf; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("confidence = %f, want %f", tc.Confidence, tt.wantConf)
			}
		})
	}
}

func TestTemporalContext(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"weekday morning", time.Date(2025, 6, 10, 10, 30, 0, 0, time.UTC), "business_hours"},
		{"weekday night", time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC), "off_hours"},
		{"weekday early", time.Date(2025, 6, 10, 8, 59, 0, 0, time.UTC), "off_hours"},
		{"saturday noon", time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC), "off_hours"},
		{"sunday noon", time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC), "off_hours"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := temporalContext(tt.at)
			if got.TimeContext != tt.want {
				t.Errorf("temporalContext(%v) = %s, want %s", tt.at, got.TimeContext, tt.want)
			}
			if got.HourOfDay != tt.at.Hour() {
				t.Errorf("hour = %d, want %d", got.HourOfDay, tt.at.Hour())
			}
		})
	}
}

func TestAnalyzeUsesEngineClock(t *testing.T) {
	at := time.Date(2025, 6, 14, 3, 0, 0, 0, time.UTC)
	e := testEngine(t, withClock(func() time.Time { return at }))

	report, err := e.Analyze(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if report.TemporalContext.TimeContext != "off_hours" {
		t.Errorf("expected off_hours at 03:00 Saturday, got %s", report.TemporalContext.TimeContext)
	}
	if !report.AnalyzedAt.Equal(at) {
		t.Errorf("analyzed at %v, want %v", report.AnalyzedAt, at)
	}
}

func TestRecommendedActions(t *testing.T) {
	tests := []struct {
		level ml.RiskLevel
		want  string
	}{
		{ml.RiskCritical, "🚨 IMMEDIATE ACTION REQUIRED: Block sender, report to security team, and investigate potential breach"},
		{ml.RiskHigh, "🔴 HIGH PRIORITY: Isolate conversation, monitor for patterns, and prepare incident response"},
		{ml.RiskMedium, "🟡 MEDIUM PRIORITY: Flag for review, monitor engagement, and gather additional context"},
		{ml.RiskLow, "🟢 LOW PRIORITY: Continue normal monitoring with standard precautions"},
		{ml.RiskUnknown, "Monitor with standard security protocols"},
	}
	for _, tt := range tests {
		if got := recommendedAction(tt.level); got != tt.want {
			t.Errorf("recommendedAction(%s) = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestAnalyzeBatchKeepsOrder(t *testing.T) {
	e := testEngine(t, WithBatchConcurrency(4))

	contents := []string{
		"URGENT: verify your bank account password immediately",
		"Hi, nice to connect!",
		"Move to WhatsApp and send me your phone number right away",
		"The quarterly report is attached",
	}
	reports := e.AnalyzeBatch(context.Background(), contents)

	if len(reports) != len(contents) {
		t.Fatalf("expected %d reports, got %d", len(contents), len(reports))
	}
	for i, r := range reports {
		if r == nil {
			t.Fatalf("missing report at %d", i)
		}
		if r.Err != "" {
			t.Errorf("unexpected error at %d: %s", i, r.Err)
		}
	}
	if reports[0].FinalScore <= reports[1].FinalScore {
		t.Errorf("order not preserved: phishing %d vs benign %d", reports[0].FinalScore, reports[1].FinalScore)
	}
}

func TestAnalyzeBatchIsolatesFailures(t *testing.T) {
	e := testEngine(t, WithBatchConcurrency(1))

	// Hold the only slot so acquisition can only fail via the cancelled
	// context, deterministically.
	if !e.sem.TryAcquire() {
		t.Fatal("could not reserve the batch slot")
	}
	defer e.sem.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reports := e.AnalyzeBatch(ctx, []string{"first", "second"})
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	for i, r := range reports {
		if r.RiskLevel != ml.RiskUnknown {
			t.Errorf("report %d risk = %s, want UNKNOWN", i, r.RiskLevel)
		}
		if r.FinalScore != 0 {
			t.Errorf("report %d score = %d, want 0", i, r.FinalScore)
		}
		if r.Err == "" {
			t.Errorf("report %d should record the failure", i)
		}
	}
}

func TestAnalyzeWithSimilarityIndex(t *testing.T) {
	d := ml.NewDefaultDetector()
	if _, err := d.Train(corpus(), 0.2); err != nil {
		t.Fatalf("training failed: %v", err)
	}
	idx, err := d.SimilarityIndex()
	if err != nil {
		t.Fatalf("index construction failed: %v", err)
	}
	if _, err := idx.AddSamples(context.Background(), []ml.KnownScam{
		{Text: "URGENT: verify your bank account immediately or it will be suspended", Category: "credential_harvesting"},
	}); err != nil {
		t.Fatalf("indexing failed: %v", err)
	}

	e, err := NewEngine(d, WithSimilarityIndex(idx))
	if err != nil {
		t.Fatalf("engine construction failed: %v", err)
	}

	report, err := e.Analyze(context.Background(), "urgent, verify your bank account immediately")
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	if report.NearestKnownScam == nil {
		t.Fatal("expected nearest known scam evidence")
	}
	if report.NearestKnownScam.Category != "credential_harvesting" {
		t.Errorf("unexpected category %q", report.NearestKnownScam.Category)
	}
}
