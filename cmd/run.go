package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sharphuman/hr-passive-cv/internal/ai"
	"github.com/sharphuman/hr-passive-cv/internal/ai/gemini"
	"github.com/sharphuman/hr-passive-cv/internal/filtering"
	"github.com/sharphuman/hr-passive-cv/internal/logger"
	"github.com/sharphuman/hr-passive-cv/internal/mailer"
	"github.com/sharphuman/hr-passive-cv/internal/report"
	"github.com/sharphuman/hr-passive-cv/internal/secrets"
	"github.com/sharphuman/hr-passive-cv/internal/sourcing"
	"github.com/sharphuman/hr-passive-cv/internal/websearch"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes                 = "Yes"
	PromptNo                  = "No"
	PromptReportByDomain      = "Report by domain"
	PromptCandidatesToFile    = "Dump candidates to file"
	PromptAppendToExcludeFile = "Append report to exclude file"
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the hr-passive-cv sourcing pipeline",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before delivering the report")
	runCmd.Flags().StringP("exclude-file", "e", "", "special file with candidates to exclude. Default is unset.")
	runCmd.Flags().Int("min-score", report.DefaultMinScore, "minimum score a candidate must exceed to enter the report")

	viper.BindPFlag("exclude-file", runCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("report.min-score", runCmd.Flags().Lookup("min-score"))
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

	logger.Info("starting the hr-passive-cv", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		logger.Fatal("config is required")
	}

	job, err := resolveJob(config)
	if err != nil {
		logger.Fatal("resolving the job request", zap.Error(err))
	}

	if config.Search == nil || strings.TrimSpace(config.Search.EngineID) == "" {
		logger.Fatal("search engine id is required under search.engine-id")
	}

	googleKey, err := secrets.Load(secrets.Source{
		Name: "google api key",
		File: config.Search.APIKeyFile,
	})
	if err != nil {
		logger.Fatal(
			"loading google api key",
			zap.Error(err),
			zap.String("hint", "set GOOGLE_API_KEY_FILE environment variable or the 'search.api-key-file' key in the configuration file"),
		)
	}

	planner, scorer, err := newAIComponents(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("building ai components", zap.Error(err))
	}

	ws := websearch.New(ctx, logger, googleKey, config.Search.EngineID)
	aggregator := sourcing.NewAggregator(ws, &sourcing.AggregatorConfig{
		ResultsPerQuery: config.Search.ResultsPerQuery,
		Denylist:        config.Search.Denylist,
	}, logger)

	logger.Info("generating the search strategy")

	strategy, err := planner.Plan(ctx, job)
	if err != nil {
		logger.Error("strategy generation failed", zap.Error(err))
		logger.Info("exiting", zap.String("reason", "no strategy"))
		return
	}

	logger.Info("starting the search",
		zap.String("role", strategy.RoleTitle),
		zap.Strings("queries", strategy.Queries),
	)

	candidates := aggregator.Collect(strategy.Queries)

	// One pipeline-level retry with the location constraint dropped. The
	// original location still applies at scoring time.
	if candidates.Len() == 0 && config.Search.RetryWithoutLocation && job.Location != "" {
		logger.Info("no results, retrying strategy without location constraint")

		relaxed, err := planner.Plan(ctx, job.WithoutLocation())
		if err != nil {
			logger.Warn("relaxed strategy generation failed", zap.Error(err))
		} else {
			strategy = relaxed
			candidates = aggregator.Collect(strategy.Queries)
		}
	}

	if candidates.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no profiles found by search (junk filter active)"))
		return
	}

	logger.Info("aggregated candidates", zap.Int("count", candidates.Len()))

	steps := []filtering.Filter{
		filtering.NewExcludeFile(),
		filtering.NewDomains(),
		filtering.NewAIScore(),
	}

	if !config.AI.Enabled {
		filtering.DisableByName(steps, "ai_score", "disabled in config")
	}

	for _, status := range filtering.Describe(steps) {
		logger.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	filterCfg := &filtering.Config{
		ExcludeFile: viper.GetString("exclude-file"),
		Domains:     config.Search.ExcludeDomains,
		AI:          toFilterAIConfig(config.AI),
	}

	deps := filtering.Deps{
		Logger: logger,
		Scorer: scorer,
		Job:    job,
		Role:   strategy.RoleTitle,
	}

	filtered, err := filtering.Run(ctx, filterCfg, deps, steps, candidates)
	if err != nil {
		logger.Fatal("filtering failed", zap.Error(err))
	}
	candidates = filtered

	if candidates.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no candidates left after filters"))
		return
	}

	minScore := viper.GetInt("report.min-score")

	ranked, err := report.Rank(candidates, strategy.RoleTitle, minScore)
	switch {
	case errors.Is(err, report.ErrAllBelowThreshold):
		logger.Info("exiting",
			zap.String("reason", "candidates found but scores were too low"),
			zap.Int("min_score", minScore),
			zap.Int("candidates", candidates.Len()),
		)
		return
	case errors.Is(err, report.ErrNoCandidates):
		logger.Info("exiting", zap.String("reason", "no candidates to rank"))
		return
	case err != nil:
		logger.Fatal("ranking failed", zap.Error(err))
	}

	logger.Info("ranked report ready",
		zap.String("role", ranked.Role),
		zap.Int("count", ranked.Len()),
		zap.Int("min_score", ranked.MinScore),
	)

	action := PromptYes
	for {
		var err error
		if cmd.Flag("auto-approve").Value.String() == "false" {
			_, action, err = buildPrompt(candidates).Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		logger.Info("current report", zap.Int("count", ranked.Len()))

		if err := handleAction(ctx, action, logger, config, job, candidates, ranked); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func buildPrompt(candidates *sourcing.Candidates) *promptui.Select {
	items := []string{PromptYes, PromptNo, PromptReportByDomain, PromptCandidatesToFile}

	if viper.GetString("exclude-file") != "" && candidates.Len() != 0 {
		items = append(items, PromptAppendToExcludeFile)
	}

	return &promptui.Select{
		Label: "Deliver the report?",
		Items: items,
	}
}

func handleAction(ctx context.Context, action string, logger *zap.Logger, config *Config, job *sourcing.JobRequest, candidates *sourcing.Candidates, ranked *report.Report) error {
	switch action {
	case PromptYes:
		return deliver(ctx, logger, config, job, candidates, ranked)
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptReportByDomain:
		pretty, _ := json.MarshalIndent(candidates.ReportByDomain(), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", candidates.Len()))
		return nil
	case PromptCandidatesToFile:
		filename, err := candidates.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		excludeFile := viper.GetString("exclude-file")

		excluded, err := sourcing.GetExcludedCandidatesFromFile(excludeFile)
		if err != nil {
			return err
		}

		excluded.Append(candidates.ToExcluded())

		if err := excluded.ToFile(excludeFile); err != nil {
			return err
		}

		logger.Info("appended to exclude file", zap.String("filename", excludeFile))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// deliver archives the ranked report and sends the summary email. A sink
// failure is surfaced after the report exists; the candidate table is never
// lost with it.
func deliver(ctx context.Context, logger *zap.Logger, config *Config, job *sourcing.JobRequest, candidates *sourcing.Candidates, ranked *report.Report) error {
	store, err := report.NewStore(config.Report.ArchiveDB)
	if err != nil {
		return salvage(logger, candidates, fmt.Errorf("opening report archive: %w", err))
	}
	defer store.Close()

	locator, err := store.SaveReport(ctx, ranked, job)
	if err != nil {
		return salvage(logger, candidates, fmt.Errorf("archiving report: %w", err))
	}

	logger.Info("report archived", zap.String("locator", locator))

	if config.Email == nil || !config.Email.Enabled {
		logger.Info("email delivery is disabled")
		return errExit
	}

	password, err := secrets.Load(secrets.Source{
		Name: "smtp password",
		File: config.Email.PasswordFile,
	})
	if err != nil {
		return fmt.Errorf("loading smtp password: %w", err)
	}

	m := mailer.New(&mailer.Config{
		Host:     config.Email.SMTPHost,
		Port:     config.Email.SMTPPort,
		From:     config.Email.From,
		Password: password,
	})

	if err := m.SendReport(config.Email.To, ranked, locator); err != nil {
		return fmt.Errorf("sending summary email: %w", err)
	}

	logger.Info("summary email sent", zap.String("to", config.Email.To))
	return errExit
}

// salvage dumps the working set to a temp file before surfacing a sink
// error, so the run's output survives the failure.
func salvage(logger *zap.Logger, candidates *sourcing.Candidates, sinkErr error) error {
	filename, dumpErr := candidates.DumpToTmpFile()
	if dumpErr != nil {
		logger.Warn("dumping candidates after sink failure failed", zap.Error(dumpErr))
		return sinkErr
	}

	logger.Warn("report sink failed, candidates dumped to file",
		zap.String("filename", filename),
	)
	return sinkErr
}

func resolveJob(config *Config) (*sourcing.JobRequest, error) {
	if config.Job == nil {
		return nil, errors.New("job section is required in the configuration file")
	}

	description := strings.TrimSpace(config.Job.Description)

	if file := strings.TrimSpace(config.Job.DescriptionFile); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading job description from file %q: %w", file, err)
		}
		description = strings.TrimSpace(string(data))
	}

	if description == "" {
		return nil, errors.New("job description is required")
	}

	return &sourcing.JobRequest{
		Description: description,
		Location:    strings.TrimSpace(config.Job.Location),
		WorkStyle:   strings.TrimSpace(config.Job.WorkStyle),
	}, nil
}

func newAIComponents(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Planner, ai.Scorer, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, nil, errors.New("ai.gemini configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	genLogger := logger.WithCommonFields(log, "gemini", cfg.Gemini.Model).
		With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, nil, err
	}

	planner := gemini.NewPlanner(generator, cfg.Gemini.MaxLogLength, genLogger)
	scorer := gemini.NewScorer(generator, cfg.Gemini.MaxLogLength, genLogger)

	return planner, scorer, nil
}

func toFilterAIConfig(cfg *AIConfig) *filtering.AIConfig {
	if cfg == nil {
		return nil
	}

	out := &filtering.AIConfig{
		Enabled:  cfg.Enabled,
		Provider: cfg.Provider,
	}

	if cfg.Gemini != nil {
		out.Gemini = &filtering.GeminiConfig{
			Model:        cfg.Gemini.Model,
			MaxRetries:   cfg.Gemini.MaxRetries,
			MaxLogLength: cfg.Gemini.MaxLogLength,
		}
	}

	return out
}
