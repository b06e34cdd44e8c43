package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/avergara/recruiter-triage/internal/ai"
	"github.com/avergara/recruiter-triage/internal/ai/gemini"
	"github.com/avergara/recruiter-triage/internal/inbox"
	"github.com/avergara/recruiter-triage/internal/logger"
	"github.com/avergara/recruiter-triage/internal/metrics"
	"github.com/avergara/recruiter-triage/internal/secrets"
	"github.com/avergara/recruiter-triage/internal/store"
	"github.com/avergara/recruiter-triage/internal/triage"

	"github.com/manifoldco/promptui"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes              = "Yes"
	PromptNo               = "No"
	PromptReportByDecision = "Report by decision"
	PromptReviewQueue      = "Show manual review queue"
	PromptRecentHistory    = "Show recent history"
	PromptOutcomesToFile   = "Dump outcomes to file"

	recentHistoryLimit = 20
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Save the evaluated outcomes?",
	Items: []string{PromptYes, PromptNo, PromptReportByDecision, PromptReviewQueue, PromptRecentHistory, PromptOutcomesToFile},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate every message in the inbox file and review the outcomes",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before saving outcomes")
	runCmd.Flags().StringP("inbox-file", "i", "", "JSON file with inbound messages to evaluate")

	viper.BindPFlag("inbox-file", runCmd.Flags().Lookup("inbox-file"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the recruiter-triage", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	if config.Profile == nil {
		logger.Fatal("candidate profile is required under the profile section")
	}

	// A broken profile is fatal, unlike LLM failures: nothing can be
	// evaluated against a profile that does not validate.
	if err := config.Profile.Finalize(); err != nil {
		logger.Fatal("validating the profile", zap.Error(err))
	}

	assistant, err := newAssistant(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("running without an LLM, deterministic fallbacks only", zap.Error(err))
	}

	m := startMetrics(config.Metrics, logger)

	repository := openStore(ctx, config.Store, logger)
	if repository != nil {
		defer repository.Close()
	}

	inboxFile := viper.GetString("inbox-file")
	if inboxFile == "" {
		inboxFile = config.InboxFile
	}
	if inboxFile == "" {
		logger.Fatal("inbox file is required",
			zap.String("hint", "set the --inbox-file flag or the 'inbox-file' key in the configuration file"),
		)
	}

	messages, err := inbox.FromFile(inboxFile)
	if err != nil {
		logger.Fatal("reading the inbox", zap.Error(err))
	}

	if len(messages) == 0 {
		logger.Info("exiting", zap.String("reason", "no messages in the inbox"))
		return
	}

	logger.Info("evaluating messages", zap.Int("count", len(messages)))

	pipeline, err := triage.NewPipeline(config.Profile, assistant, logger, m)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	outcomes := make([]*triage.Outcome, 0, len(messages))
	for _, msg := range messages {
		outcome, err := pipeline.Process(ctx, msg)
		if err != nil {
			logger.Fatal("evaluating a message", zap.String("sender", msg.Sender), zap.Error(err))
		}
		outcomes = append(outcomes, outcome)
	}

	logger.Info("evaluation finished", zap.Int("count", len(outcomes)))

	action := PromptYes
	for {
		var err error
		if cmd.Flag("auto-approve").Value.String() == "false" {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		if err := handleAction(ctx, action, outcomes, repository, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, outcomes []*triage.Outcome, repository *store.Store, log *zap.Logger) error {
	switch action {
	case PromptYes:
		return saveOutcomes(ctx, outcomes, repository, log)
	case PromptNo:
		log.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptReportByDecision:
		pretty, _ := json.MarshalIndent(reportByDecision(outcomes), "", "  ")
		log.Info(string(pretty), zap.Int("outcomes count", len(outcomes)))
		return nil
	case PromptReviewQueue:
		for _, outcome := range outcomes {
			if !outcome.RequiresManualReview {
				continue
			}
			log.Info("needs review",
				zap.String(logger.FieldSender, outcome.Message.Sender),
				zap.String(logger.FieldDecision, string(outcome.Decision)),
				zap.String("reason", outcome.ManualReviewReason),
			)
		}
		return nil
	case PromptRecentHistory:
		return showRecentHistory(ctx, repository, log)
	case PromptOutcomesToFile:
		filename, err := dumpToTmpFile(outcomes)
		if err != nil {
			return fmt.Errorf("dump outcomes to file: %w", err)
		}
		log.Info("dumping outcomes to file", zap.String("filename", filename))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func saveOutcomes(ctx context.Context, outcomes []*triage.Outcome, repository *store.Store, log *zap.Logger) error {
	for _, outcome := range outcomes {
		if outcome.ResponseText != "" {
			log.Info("drafted response",
				zap.String(logger.FieldSender, outcome.Message.Sender),
				zap.String(logger.FieldDecision, string(outcome.Decision)),
				zap.String("source", outcome.ResponseSource),
				zap.String("response", outcome.ResponseText),
			)
		}

		if repository == nil {
			continue
		}

		if err := repository.SaveOutcome(ctx, outcome); err != nil {
			return fmt.Errorf("saving outcome for %s: %w", outcome.Message.Sender, err)
		}
	}

	if repository == nil {
		log.Info("no store configured, outcomes were not persisted",
			zap.String("hint", "set store.database-url or TRIAGE_DATABASE_URL to keep history"),
		)
		return errExit
	}

	log.Info("outcomes saved", zap.Int("count", len(outcomes)))
	return errExit
}

// showRecentHistory lists past evaluations from the store so new outcomes
// can be compared with what was decided before.
func showRecentHistory(ctx context.Context, repository *store.Store, log *zap.Logger) error {
	if repository == nil {
		log.Info("no store configured, history is unavailable",
			zap.String("hint", "set store.database-url or TRIAGE_DATABASE_URL to keep history"),
		)
		return nil
	}

	recent, err := repository.RecentOutcomes(ctx, recentHistoryLimit)
	if err != nil {
		return fmt.Errorf("listing recent outcomes: %w", err)
	}

	if len(recent) == 0 {
		log.Info("no past outcomes stored yet")
		return nil
	}

	for _, outcome := range recent {
		log.Info("past outcome",
			zap.String(logger.FieldSender, outcome.Sender),
			zap.String(logger.FieldDecision, outcome.Decision),
			zap.String("tier", outcome.Tier),
			zap.Int("total_score", outcome.TotalScore),
			zap.Time("evaluated_at", outcome.EvaluatedAt),
		)
	}

	return nil
}

func reportByDecision(outcomes []*triage.Outcome) map[string][]string {
	report := make(map[string][]string)
	for _, outcome := range outcomes {
		key := string(outcome.Decision)
		report[key] = append(report[key], outcome.Message.Sender)
	}
	return report
}

func dumpToTmpFile(outcomes []*triage.Outcome) (string, error) {
	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", app+"-outcomes-*.json")
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", err
	}

	return f.Name(), nil
}

func newAssistant(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Assistant, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("ai is not enabled in the configuration")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, gemini.Config{
		Model:      cfg.Gemini.Model,
		MaxRetries: cfg.Gemini.MaxRetries,
	})
	if err != nil {
		return nil, err
	}

	assistantLogger := logger.With(
		zap.String("provider", "gemini"),
		zap.String("model", generator.Model()),
	)

	return gemini.NewAssistant(generator, assistantLogger, cfg.Gemini.MaxLogLength), nil
}

// startMetrics registers the triage collectors and, when a listen address is
// configured, exposes them over HTTP.
func startMetrics(cfg *MetricsConfig, logger *zap.Logger) *metrics.Metrics {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	if cfg == nil || cfg.Listen == "" {
		return m
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(cfg.Listen, mux); err != nil {
			logger.Warn("metrics listener stopped", zap.Error(err))
		}
	}()

	logger.Info("metrics exposed", zap.String("listen", cfg.Listen))

	return m
}

func openStore(ctx context.Context, cfg *StoreConfig, logger *zap.Logger) *store.Store {
	databaseURL := ""
	if cfg != nil {
		databaseURL = cfg.DatabaseURL
	}
	if databaseURL == "" {
		databaseURL = viper.GetString("store.database-url")
	}
	if databaseURL == "" {
		return nil
	}

	repository, err := store.New(ctx, databaseURL, logger)
	if err != nil {
		logger.Warn("running without persistence", zap.Error(err))
		return nil
	}

	return repository
}
