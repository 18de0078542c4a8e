package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"

	"github.com/honeyshield/honeyshield/pkg/alerts"
	"github.com/honeyshield/honeyshield/pkg/analysis"
	"github.com/honeyshield/honeyshield/pkg/audit"
	"github.com/honeyshield/honeyshield/pkg/config"
	"github.com/honeyshield/honeyshield/pkg/ml"
	"github.com/honeyshield/honeyshield/pkg/notify"
	"github.com/honeyshield/honeyshield/pkg/rules"
	"github.com/honeyshield/honeyshield/pkg/storage"
	"github.com/honeyshield/honeyshield/pkg/training"
)

const Version = "0.1.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServer()
	case "scan":
		if len(os.Args) < 3 {
			fmt.Println("Usage: honeyshield scan <text>")
			os.Exit(1)
		}
		runCLIScan(strings.Join(os.Args[2:], " "))
	case "train":
		runTrain(os.Args[2:])
	case "version":
		fmt.Printf("Honeyshield v%s\n", Version)
		fmt.Println("Social Engineering Detection for LinkedIn Messages")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Honeyshield v%s - Social Engineering Detector\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  honeyshield serve             Start the HTTP analysis server")
	fmt.Println("  honeyshield scan <text>       Analyze a single message and print the report")
	fmt.Println("  honeyshield train [flags]     Train the detection model")
	fmt.Println("  honeyshield version           Show version")
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  honeyshield serve")
	fmt.Println("  honeyshield scan \"URGENT: verify your account now\"")
	fmt.Println("  honeyshield train --size 5000 --output honeyshield_model.gob")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_URL                  Postgres connection string (optional)")
	fmt.Println("  REDIS_ADDR                    Redis for notification cooldown (optional)")
	fmt.Println("  SLACK_WEBHOOK_URL             Slack incoming webhook (optional)")
	fmt.Println("  HONEYSHIELD_MODEL_PATH        Trained model path")
	fmt.Println("  HONEYSHIELD_SCORING_FILE      YAML scoring overrides")
}

// knownScamSeed primes the similarity index with confirmed campaign texts
// so near-duplicates surface as evidence in reports.
var knownScamSeed = []ml.KnownScam{
	{Text: "URGENT: Your LinkedIn account shows suspicious login attempts. Verify your identity immediately to prevent suspension.", Category: "credential_harvesting"},
	{Text: "Investment opportunity with 500% guaranteed returns. Contact me on WhatsApp for details before the offer expires.", Category: "investment_fraud"},
	{Text: "You have been selected for an exclusive prize. Provide your personal information to claim your reward today.", Category: "advance_fee"},
	{Text: "Official security notice: unusual activity detected on your account. Click the link to secure it or face permanent termination.", Category: "credential_harvesting"},
	{Text: "I am a recruiter with a confidential offer. Send me your passport details and bank information to process onboarding.", Category: "identity_theft"},
}

func buildEngine(cfg *config.Config) (*analysis.Engine, error) {
	detector := ml.NewDefaultDetector()
	if err := detector.Load(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model %s not loadable (run 'honeyshield train' first): %w", cfg.ModelPath, err)
	}

	opts := []analysis.Option{
		analysis.WithRuleScorer(rules.NewScorer(cfg.Scoring)),
		analysis.WithBatchConcurrency(cfg.BatchConcurrency),
	}

	index, err := detector.SimilarityIndex()
	if err != nil {
		log.Printf("[WARN] similarity index unavailable: %v", err)
	} else {
		added, err := index.AddSamples(context.Background(), knownScamSeed)
		if err != nil {
			log.Printf("[WARN] seeding similarity index failed: %v", err)
		} else {
			log.Printf("[STARTUP] similarity index seeded with %d known scams", added)
			opts = append(opts, analysis.WithSimilarityIndex(index))
		}
	}

	return analysis.NewEngine(detector, opts...)
}

// ============================================================================
// HTTP Server Mode
// ============================================================================

type analyzeRequest struct {
	SenderName       string `json:"sender_name"`
	SenderProfileURL string `json:"sender_profile_url"`
	Content          string `json:"content"`
}

func (r analyzeRequest) message() analysis.Message {
	return analysis.Message{
		SenderName:       r.SenderName,
		SenderProfileURL: r.SenderProfileURL,
		Content:          r.Content,
		ReceivedAt:       time.Now(),
	}
}

func runServer() {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[STARTUP] invalid configuration: %v", err)
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		log.Fatalf("[STARTUP] %v", err)
	}

	ctx := context.Background()

	var pg *storage.PostgresStore
	var store alerts.Store
	if cfg.DatabaseURL != "" {
		pg, err = storage.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[STARTUP] database connection failed: %v", err)
		}
		defer pg.Close()
		if err := pg.InitSchema(ctx); err != nil {
			log.Fatalf("[STARTUP] schema initialization failed: %v", err)
		}
		store = pg
		log.Println("[STARTUP] Postgres persistence enabled")
	} else {
		store = alerts.NewMemoryStore()
		log.Println("[STARTUP] running with in-memory alert store")
	}

	managerOpts := []alerts.ManagerOption{
		alerts.WithSourcePlatform(cfg.SourcePlatform),
	}

	notifier := notify.NewSlackNotifier(cfg.WebhookURL)
	if notifier.IsConfigured() {
		managerOpts = append(managerOpts, alerts.WithNotifier(notifier))
		log.Println("[STARTUP] Slack notifications enabled")
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[WARN] Redis unreachable, notification cooldown disabled: %v", err)
		} else {
			managerOpts = append(managerOpts, alerts.WithCooldown(alerts.NewCooldown(client, cfg.CooldownWindow)))
			log.Println("[STARTUP] notification cooldown enabled")
		}
	}

	if cfg.AuditLogPath != "" {
		auditLog, err := audit.Open(cfg.AuditLogPath)
		if err != nil {
			log.Printf("[WARN] audit log disabled: %v", err)
		} else {
			defer auditLog.Close()
			managerOpts = append(managerOpts, alerts.WithAuditLog(auditLog))
		}
	}

	manager := alerts.NewManager(store, managerOpts...)

	app := newRouter(engine, manager, pg, rules.NewScorer(cfg.Scoring))

	log.Printf("[STARTUP] Honeyshield HTTP server starting on %s", cfg.ListenAddr)
	log.Printf("Endpoints:")
	log.Printf("  GET    /health                 - Health check")
	log.Printf("  POST   /analyze                - Analyze one message")
	log.Printf("  POST   /analyze/batch          - Analyze a batch of messages")
	log.Printf("  POST   /messages               - Rule-path message ingest")
	log.Printf("  GET    /messages               - Recently analyzed messages")
	log.Printf("  GET    /alerts                 - Recent alerts (hours, severity filters)")
	log.Printf("  POST   /alerts/:id/resolve     - Resolve an alert")
	log.Printf("  DELETE /alerts/resolved        - Purge resolved alerts")
	log.Printf("  GET    /stats                  - Aggregate threat statistics")

	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}

// newRouter wires the HTTP surface. pg may be nil; endpoints needing
// persistence then answer 503.
func newRouter(engine *analysis.Engine, manager *alerts.Manager, pg *storage.PostgresStore, scorer *rules.Scorer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Honeyshield",
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	app.Post("/analyze", func(c fiber.Ctx) error {
		var req analyzeRequest
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Content == "" {
			return c.Status(400).JSON(fiber.Map{"error": "content field is required"})
		}

		report, err := engine.Analyze(c.Context(), req.Content)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}

		msg := req.message()
		alert, err := manager.ProcessReport(c.Context(), msg, report)
		if err != nil {
			// A qualifying message whose alert could not be persisted is
			// a lost alert; the caller must see that, not a null alert.
			log.Printf("[WARN] alert persistence failed: %v", err)
			return c.Status(500).JSON(fiber.Map{
				"error":  fmt.Sprintf("alert persistence failed: %v", err),
				"report": report,
			})
		}
		logMessage(c.Context(), pg, msg, report)

		return c.JSON(fiber.Map{"report": report, "alert": alert})
	})

	app.Post("/analyze/batch", func(c fiber.Ctx) error {
		var req struct {
			Messages []analyzeRequest `json:"messages"`
		}
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if len(req.Messages) == 0 {
			return c.Status(400).JSON(fiber.Map{"error": "messages field is required"})
		}

		contents := make([]string, len(req.Messages))
		for i, m := range req.Messages {
			contents[i] = m.Content
		}
		reports := engine.AnalyzeBatch(c.Context(), contents)

		results := make([]fiber.Map, len(reports))
		for i, report := range reports {
			entry := fiber.Map{"report": report, "alert": nil}
			if report.Err == "" {
				msg := req.Messages[i].message()
				alert, err := manager.ProcessReport(c.Context(), msg, report)
				if err != nil {
					// Batch entries isolate failures, so the lost alert is
					// reported per entry instead of failing the batch.
					log.Printf("[WARN] alert persistence failed: %v", err)
					entry["alert_error"] = fmt.Sprintf("alert persistence failed: %v", err)
				} else {
					entry["alert"] = alert
				}
				logMessage(c.Context(), pg, msg, report)
			}
			results[i] = entry
		}
		return c.JSON(fiber.Map{"results": results})
	})

	// Rule-path ingest: scores with the rule tables only and persists the
	// message row without running the model or raising alerts.
	app.Post("/messages", func(c fiber.Ctx) error {
		if pg == nil {
			return c.Status(503).JSON(fiber.Map{"error": "persistence not configured"})
		}
		var req analyzeRequest
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Content == "" {
			return c.Status(400).JSON(fiber.Map{"error": "content field is required"})
		}

		res := scorer.Score(req.Content)
		rec := &storage.MessageRecord{
			SenderName:     req.SenderName,
			SenderProfile:  req.SenderProfileURL,
			MessageContent: req.Content,
			Timestamp:      time.Now(),
			RiskScore:      res.RiskScore,
			RiskLevel:      alerts.SeverityFor(res.RiskScore),
			KeywordsFound:  strings.Join(res.Keywords, ", "),
			AnalysisNotes:  strings.Join(res.Notes, "; "),
		}
		if err := pg.LogMessage(c.Context(), rec, strings.Join(rules.Techniques(res), ", ")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"risk_score": res.RiskScore, "keywords_found": res.Keywords, "analysis_notes": res.Notes})
	})

	app.Get("/messages", func(c fiber.Ctx) error {
		if pg == nil {
			return c.Status(503).JSON(fiber.Map{"error": "persistence not configured"})
		}
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		msgs, err := pg.RecentMessages(c.Context(), limit)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"messages": msgs})
	})

	app.Get("/alerts", func(c fiber.Ctx) error {
		hours, _ := strconv.Atoi(c.Query("hours", "24"))
		if hours <= 0 {
			hours = 24
		}
		list, err := manager.ListRecent(c.Context(), time.Duration(hours)*time.Hour, c.Query("severity"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"alerts": list})
	})

	app.Post("/alerts/:id/resolve", func(c fiber.Ctx) error {
		if err := manager.Resolve(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "resolved"})
	})

	app.Delete("/alerts/resolved", func(c fiber.Ctx) error {
		n, err := manager.ClearResolved(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"cleared": n})
	})

	app.Get("/stats", func(c fiber.Ctx) error {
		if pg == nil {
			return c.Status(503).JSON(fiber.Map{"error": "persistence not configured"})
		}
		stats, err := pg.ThreatStats(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(stats)
	})

	return app
}

func logMessage(ctx context.Context, pg *storage.PostgresStore, msg analysis.Message, report *analysis.Report) {
	if pg == nil {
		return
	}
	rec := &storage.MessageRecord{
		SenderName:     msg.SenderName,
		SenderProfile:  msg.SenderProfileURL,
		MessageContent: msg.Content,
		Timestamp:      msg.ReceivedAt,
		RiskScore:      report.FinalScore,
		RiskLevel:      string(report.RiskLevel),
	}
	if report.RuleAudit != nil {
		rec.KeywordsFound = strings.Join(report.RuleAudit.Keywords, ", ")
		rec.AnalysisNotes = strings.Join(report.RuleAudit.Notes, "; ")
	}
	if err := pg.LogMessage(ctx, rec, strings.Join(report.RuleTechniques, ", ")); err != nil {
		log.Printf("[WARN] message logging failed: %v", err)
	}
}

// ============================================================================
// CLI Mode
// ============================================================================

func runCLIScan(text string) {
	cfg := config.New()
	engine, err := buildEngine(cfg)
	if err != nil {
		log.Fatal(err)
	}

	report, err := engine.Analyze(context.Background(), text)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
}

// ============================================================================
// Training Mode
// ============================================================================

func runTrain(args []string) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	size := fs.Int("size", 5000, "synthetic dataset size")
	seed := fs.Int64("seed", 42, "generator seed")
	corpus := fs.String("corpus", "", "labeled JSON corpus (overrides the generator)")
	fraction := fs.Float64("test-fraction", 0.2, "holdout fraction")
	output := fs.String("output", "", "model output path (default: configured model path)")
	fs.Parse(args)

	cfg := config.New()
	path := *output
	if path == "" {
		path = cfg.ModelPath
	}

	var samples []ml.Sample
	var err error
	if *corpus != "" {
		samples, err = training.LoadCorpus(*corpus)
		if err != nil {
			log.Fatalf("[TRAIN] %v", err)
		}
		log.Printf("[TRAIN] loaded %d samples from %s", len(samples), *corpus)
	} else {
		samples = training.NewGenerator(*seed).Dataset(*size)
		log.Printf("[TRAIN] generated %d synthetic samples (seed %d)", len(samples), *seed)
	}

	detector := ml.NewDefaultDetector()
	report, err := detector.Train(samples, *fraction)
	if err != nil {
		log.Fatalf("[TRAIN] training failed: %v", err)
	}
	if err := detector.Save(path); err != nil {
		log.Fatalf("[TRAIN] saving model failed: %v", err)
	}

	if cfg.AuditLogPath != "" {
		if auditLog, err := audit.Open(cfg.AuditLogPath); err == nil {
			auditLog.Record(audit.EventModelTrained, map[string]any{
				"samples":        len(samples),
				"train_accuracy": report.TrainAccuracy,
				"test_accuracy":  report.TestAccuracy,
				"model_path":     path,
			})
			auditLog.Close()
		}
	}

	log.Printf("[TRAIN] model saved to %s (train %.3f, test %.3f)", path, report.TrainAccuracy, report.TestAccuracy)
	for _, f := range report.TopFeatures {
		fmt.Printf("  %-30s %.4f\n", f.Name, f.Importance)
	}
}
