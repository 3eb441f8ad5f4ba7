package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spigell/placement-matcher/internal/ai"
	"github.com/spigell/placement-matcher/internal/ai/gemini"
	"github.com/spigell/placement-matcher/internal/engine"
	"github.com/spigell/placement-matcher/internal/filtering"
	"github.com/spigell/placement-matcher/internal/logger"
	"github.com/spigell/placement-matcher/internal/metrics"
	"github.com/spigell/placement-matcher/internal/normalize"
	"github.com/spigell/placement-matcher/internal/ranking"
	"github.com/spigell/placement-matcher/internal/roster"
	"github.com/spigell/placement-matcher/internal/secrets"
	"github.com/spigell/placement-matcher/internal/utils"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptBestJobPerCandidate = "Best job per candidate"
	PromptBestCandidatePerJob = "Best candidate per job"
	PromptTopMatches          = "Top matches"
	PromptTopPerCandidate     = "Top matches per candidate"
	PromptSummary             = "Summary"
	PromptReportByStage       = "Report by stage"
	PromptExplain             = "Explain top matches"
	PromptAppendToExcludeFile = "Append shown candidates to exclude file"
	PromptResultsToFile       = "Dump results to file"
	PromptExit                = "Exit"

	defaultExplainTop = 5
	excludeReason     = "appended from the top matches view"
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Score every candidate against every open job",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("data", "", "roster document (json, yaml or toml file, or http(s) url)")
	runCmd.Flags().String("now", "", "reference date for training weeks (default is today)")
	runCmd.Flags().Int("top", engine.DefaultTop, "size of the top matches list")
	runCmd.Flags().Int("per-candidate", ranking.DefaultPerCandidate, "matches kept per candidate in the grouped view")
	runCmd.Flags().StringP("exclude-file", "e", "", "special file with candidates to exclude. Default is unset.")
	runCmd.Flags().String("metrics-file", "", "write prometheus metrics in textfile format to this path")
	runCmd.Flags().BoolP("auto", "y", false, "print all views and exit without a prompt")

	viper.BindPFlag("data", runCmd.Flags().Lookup("data"))
	viper.BindPFlag("now", runCmd.Flags().Lookup("now"))
	viper.BindPFlag("ranking.top", runCmd.Flags().Lookup("top"))
	viper.BindPFlag("ranking.per-candidate", runCmd.Flags().Lookup("per-candidate"))
	viper.BindPFlag("exclude-file", runCmd.Flags().Lookup("exclude-file"))
	viper.BindPFlag("metrics-file", runCmd.Flags().Lookup("metrics-file"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), zap.String("app", app))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the placement-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	now, err := resolveNow(config.Now)
	if err != nil {
		logger.Fatal("parsing reference date", zap.Error(err), zap.String("now", config.Now))
	}

	client := roster.NewClient(ctx, logger)
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}

	doc, err := roster.Read(config.Data, client)
	if err != nil {
		logger.Fatal("reading roster", zap.Error(err), zap.String("data", config.Data))
	}

	m := metrics.New()
	eng := engine.New(engineConfig(config), logger, m)

	report, err := eng.Run(ctx, engine.Input{Document: doc, Now: now})
	if err != nil {
		logger.Fatal("scoring failed", zap.Error(err))
	}

	defer writeMetrics(config, m, logger)

	if report.Matrix.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no candidate and job pairs left after filters"))
		showSummary(report, logger)
		return
	}

	if auto, _ := cmd.Flags().GetBool("auto"); auto {
		for _, action := range []string{PromptSummary, PromptBestJobPerCandidate, PromptBestCandidatePerJob, PromptTopMatches, PromptTopPerCandidate} {
			if err := handleAction(ctx, action, eng, doc, &report, config, m, logger); err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}
		return
	}

	prompt := promptui.Select{
		Label: "Choose a view",
		Items: menuItems(config),
		Size:  12,
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(ctx, action, eng, doc, &report, config, m, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func menuItems(config *Config) []string {
	items := []string{
		PromptBestJobPerCandidate,
		PromptBestCandidatePerJob,
		PromptTopMatches,
		PromptTopPerCandidate,
		PromptSummary,
		PromptReportByStage,
	}

	if config.AI != nil && config.AI.Enabled {
		items = append(items, PromptExplain)
	}
	if config.ExcludeFile != "" {
		items = append(items, PromptAppendToExcludeFile)
	}

	return append(items, PromptResultsToFile, PromptExit)
}

func handleAction(ctx context.Context, action string, eng *engine.Engine, doc map[string]any, report **engine.Report, config *Config, m *metrics.Metrics, logger *zap.Logger) error {
	r := *report

	switch action {
	case PromptBestJobPerCandidate:
		showMatches("best job per candidate", r.Views.BestJobPerCandidate, logger)
	case PromptBestCandidatePerJob:
		showMatches("best candidate per job", r.Views.BestCandidatePerJob, logger)
	case PromptTopMatches:
		showMatches("top matches", r.Views.Top, logger)
	case PromptTopPerCandidate:
		pretty, _ := json.MarshalIndent(groupRows(r.Views.TopPerCandidate), "", "  ")
		logger.Info(string(pretty), zap.String("view", "top matches per candidate"), zap.Int("candidates", len(r.Views.TopPerCandidate)))
	case PromptSummary:
		showSummary(r, logger)
	case PromptReportByStage:
		pretty, _ := json.MarshalIndent(r.Roster.Candidates.ReportByStage(), "", "  ")
		logger.Info(string(pretty), zap.Int("candidates count", r.Roster.Candidates.Len()))
	case PromptExplain:
		return explain(ctx, r, config.AI, m, logger)
	case PromptAppendToExcludeFile:
		shown := shownCandidates(r)
		if err := filtering.AppendToExcludeFile(config.ExcludeFile, shown, roster.ExcludeActorUser, excludeReason, r.Now); err != nil {
			return err
		}
		logger.Info("appended to exclude file", zap.String("filename", config.ExcludeFile), zap.Strings("candidates", shown.Names()))

		// Rerun so the views reflect the updated exclude file.
		next, err := eng.Run(ctx, engine.Input{Document: doc, Now: r.Now})
		if err != nil {
			return fmt.Errorf("rescoring after exclusion: %w", err)
		}
		*report = next
	case PromptResultsToFile:
		filename, err := utils.DumpToTmpFile(app+"-*.json", r)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}

	return nil
}

func engineConfig(config *Config) engine.Config {
	cfg := engine.DefaultConfig()

	if s := config.Scoring; s != nil {
		if s.ConfidenceDefault != nil {
			cfg.Rules.ConfidenceDefault = *s.ConfidenceDefault
		}
		if s.ReadinessDefault != nil {
			cfg.Rules.ReadinessDefault = *s.ReadinessDefault
		}
		if len(s.BonusKeywords) > 0 {
			cfg.Rules.BonusKeywords = s.BonusKeywords
		}
		cfg.FreeTextFields = s.BonusFields
	}

	if r := config.Ranking; r != nil {
		cfg.Top = r.Top
		cfg.PerCandidate = r.PerCandidate
	}

	cfg.Filters.ExcludeFile = config.ExcludeFile
	if config.Exclude != nil {
		cfg.Filters.Candidates = config.Exclude.Candidates
		cfg.Filters.Accounts = config.Exclude.Accounts
	}

	return cfg
}

// resolveNow returns today when the date is not configured.
func resolveNow(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return normalize.Day(time.Now()), nil
	}

	now, ok := normalize.ParseDate(raw)
	if !ok {
		return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
	}
	return now, nil
}

func writeMetrics(config *Config, m *metrics.Metrics, logger *zap.Logger) {
	if config.MetricsFile == "" {
		return
	}

	if err := m.WriteTextfile(config.MetricsFile); err != nil {
		logger.Warn("writing metrics file", zap.Error(err), zap.String("filename", config.MetricsFile))
		return
	}
	logger.Info("metrics written", zap.String("filename", config.MetricsFile))
}

// shownCandidates returns the distinct candidates of the top matches view.
func shownCandidates(r *engine.Report) *roster.Candidates {
	shown := &roster.Candidates{}
	seen := make(map[int]bool)

	for _, res := range r.Views.Top {
		if seen[res.Candidate.Index] {
			continue
		}
		seen[res.Candidate.Index] = true

		if c := r.Candidate(res); c != nil {
			shown.Items = append(shown.Items, c)
		}
	}
	return shown
}

func explain(ctx context.Context, r *engine.Report, cfg *AIConfig, m *metrics.Metrics, logger *zap.Logger) error {
	explainer, err := newExplainer(ctx, cfg, logger)
	if err != nil {
		logger.Warn("skipping explanations", zap.Error(err))
		return nil
	}

	limit := cfg.ExplainTop
	if limit <= 0 {
		limit = defaultExplainTop
	}

	top := r.Views.Top
	if len(top) > limit {
		top = top[:limit]
	}

	matches := make([]ai.MatchContext, 0, len(top))
	for _, res := range top {
		matches = append(matches, ai.MatchContext{
			Candidate: r.Candidate(res),
			Job:       r.Job(res),
			Result:    res,
		})
	}

	explained, err := ai.ExplainAll(ctx, explainer, logger, matches)
	for _, e := range explained {
		m.ObserveExplanation(e.Explanation != nil)
	}
	if err != nil {
		return fmt.Errorf("explaining matches: %w", err)
	}

	pretty, _ := json.MarshalIndent(explainedRows(explained), "", "  ")
	logger.Info(string(pretty), zap.Int("explained", len(explained)))
	return nil
}

func newExplainer(ctx context.Context, cfg *AIConfig, base *zap.Logger) (ai.Explainer, error) {
	if cfg == nil || cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
	}

	genLogger := base.With(append(
		logger.AIFields("gemini", cfg.Gemini.Model),
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)...)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	explainer := gemini.NewExplainer(generator, cfg.Gemini.MaxLogLength, genLogger)
	explainer.SetPromptOverrides(gemini.PromptOverrides{
		Tone:             cfg.Gemini.Tone,
		Focus:            cfg.Gemini.Focus,
		UserInstructions: cfg.Gemini.Instructions,
	})

	return explainer, nil
}
