package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tagharvest/internal/termfetch"
	"tagharvest/pkg/config"
	"tagharvest/pkg/logger"
	"tagharvest/pkg/ratelimit"
	"tagharvest/pkg/storage"
	"tagharvest/pkg/trends"
	"tagharvest/pkg/ui"
)

var (
	// Trends command flags
	trendsDir string
	terms     []string
)

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Download the Google Trends series of each search term",
	Long: `Fetch the interest-over-time series of every configured search term and
write it to <trends-dir>/google_trends_<term>.csv with the header date,value.

Terms whose file already exists are skipped. A failing term is retried with
a doubling delay and then left for the next run.`,
	Example: `  # Walk the built-in term list
  tagharvest trends

  # Two terms into a custom directory
  tagharvest trends --terms "#Gaza,#MeToo" --trends-dir ./series`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(map[string]interface{}{
			"trends-dir": trendsDir,
			"terms":      terms,
		})
		if err != nil {
			return err
		}
		stats, err := runTrends(cmd.Context(), s)
		if err != nil {
			return err
		}
		s.finish("trends", stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trendsCmd)
	trendsCmd.Flags().StringVar(&trendsDir, "trends-dir", "", "output directory (default google_trends)")
	trendsCmd.Flags().StringSliceVar(&terms, "terms", nil, "comma separated search terms instead of the configured list")
}

func runTrends(ctx context.Context, s *session) (ui.Stats, error) {
	cfg := s.cfg
	log := s.log.WithField("step", "trends")

	client, err := trends.NewClient(trendsOptions(cfg, log))
	if err != nil {
		return ui.Stats{}, fmt.Errorf("failed to create Trends client: %w", err)
	}
	store, err := storage.NewManager(cfg.Trends.OutputDir)
	if err != nil {
		return ui.Stats{}, err
	}

	engine := &termfetch.Engine{
		Fetcher:      client,
		Storage:      store,
		Timeframe:    cfg.Trends.Timeframe,
		Geo:          cfg.Trends.Geo,
		MaxAttempts:  cfg.Trends.MaxAttempts,
		InitialDelay: cfg.Trends.InitialDelay,
		Factor:       cfg.Trends.BackoffFactor,
		Cooldown:     cfg.Trends.Cooldown,
		Tracker:      s.tracker,
		Logger:       log,
	}
	return engine.Run(ctx, cfg.Trends.Terms), nil
}

func trendsOptions(cfg *config.Config, log logger.Logger) trends.Options {
	return trends.Options{
		Language:  cfg.Trends.Language,
		TZ:        cfg.Trends.TZ,
		UserAgent: cfg.Browser.UserAgent,
		Timeout:   cfg.Trends.Timeout,
		Limiter:   ratelimit.PerMinute(cfg.Trends.RequestsPerMinute, 1),
		Logger:    log,
	}
}
