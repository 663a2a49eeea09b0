package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/naka-gawa/github-issue-stats/internal/config"
	"github.com/naka-gawa/github-issue-stats/internal/domain"
	"github.com/naka-gawa/github-issue-stats/internal/gateway"
	"github.com/naka-gawa/github-issue-stats/internal/logging"
	"github.com/naka-gawa/github-issue-stats/internal/usecase"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var settings = config.New()

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "Reports issue activity counts per repository",
	Long: `Reports, per repository, the number of issues open at the end of the window and the
number created, closed, created and still open, and meaningfully updated inside it.
Pull requests are excluded. The window defaults to the last 7 days ending at 03:00 UTC today.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Get the verbose flag from the root command to set up the logger.
		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := logging.New(os.Stderr, verbose)

		configFile, _ := cmd.InheritedFlags().GetString("config")
		cfg, err := config.Load(settings, configFile)
		if err != nil {
			return err
		}
		logger.Debug("configuration loaded",
			"token", logging.MaskSensitive(cfg.GitHub.Token),
			"api_url", cfg.GitHub.APIURL,
			"owner", cfg.Owner,
			"repositories", cfg.Repositories)

		sinceStr, _ := cmd.Flags().GetString("since")
		untilStr, _ := cmd.Flags().GetString("until")
		window, err := resolveWindow(time.Now(), sinceStr, untilStr, cfg.Window)
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		if format != "json" && format != "yaml" {
			return fmt.Errorf("invalid --format %q: use json or yaml", format)
		}

		// Inject dependencies and run the main business logic.
		githubGateway, err := gateway.NewGitHubGateway(gateway.Options{
			Token:            cfg.GitHub.Token,
			BaseURL:          cfg.GitHub.APIURL,
			TimelineMaxPages: cfg.Timeline.MaxPages,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		aggregator := usecase.NewAggregator(githubGateway, logger, cfg.Concurrency)

		report, err := aggregator.Run(ctx, cfg.Owner, cfg.Repositories, window)
		if err != nil {
			return fmt.Errorf("failed to aggregate issue stats: %w", err)
		}
		if err := writeReport(cmd.OutOrStdout(), report, format); err != nil {
			return err
		}
		if report.Summary.Failed > 0 {
			return fmt.Errorf("%d of %d repositories failed", report.Summary.Failed, len(report.Repositories))
		}
		return nil
	},
}

func writeReport(w io.Writer, report *domain.BatchReport, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to marshal report to YAML: %w", err)
		}
		return enc.Close()
	}
	// Marshal the results into a pretty-printed JSON string.
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonData))
	return err
}

func init() {
	rootCmd.AddCommand(issuesCmd)
	flags := issuesCmd.Flags()
	flags.StringP("owner", "o", "", "Repository owner (user or organization)")
	flags.StringSliceP("repo", "r", nil, "Repository names under the owner; all active repositories when omitted")
	flags.String("since", "", "Window start, YYYY-MM-DDTHH:MM:SSZ (default: until minus lookback)")
	flags.String("until", "", "Window end, YYYY-MM-DDTHH:MM:SSZ (default: today at the reference hour)")
	flags.Int("lookback-days", 7, "Window length in days when --since is not given")
	flags.Int("reference-hour", 3, "UTC hour at which the default window ends")
	flags.Int("timeline-max-pages", 0, "Maximum timeline pages per issue, most recent kept (0 for no limit)")
	flags.Int("concurrency", 1, "Number of issues classified at once")
	flags.String("format", "json", "Output format: json or yaml")

	settings.BindPFlag(config.KeyOwner, flags.Lookup("owner"))
	settings.BindPFlag(config.KeyRepositories, flags.Lookup("repo"))
	settings.BindPFlag(config.KeyLookbackDays, flags.Lookup("lookback-days"))
	settings.BindPFlag(config.KeyReferenceHour, flags.Lookup("reference-hour"))
	settings.BindPFlag(config.KeyTimelinePages, flags.Lookup("timeline-max-pages"))
	settings.BindPFlag(config.KeyConcurrency, flags.Lookup("concurrency"))
}
