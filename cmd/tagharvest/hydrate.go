package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tagharvest/internal/hydrate"
	"tagharvest/pkg/auth"
	"tagharvest/pkg/checkpoint"
	"tagharvest/pkg/logger"
	"tagharvest/pkg/ratelimit"
	"tagharvest/pkg/storage"
	"tagharvest/pkg/tiktok"
	"tagharvest/pkg/ui"
)

var (
	// Hydrate command flags
	inputPath   string
	outputPath  string
	ledgerPath  string
	noLedger    bool
	rateLimit   int
	accountName string
)

var hydrateCmd = &cobra.Command{
	Use:   "hydrate",
	Short: "Fetch engagement counters for every checkpointed video",
	Long: `Read the checkpoint written by discover and fetch the detail record of
every video ID. Each successful record is appended to the output CSV at once:

  hashtag,video_date,likes,views,shares,comments

A failing ID is logged and skipped. IDs hydrated by an earlier run are
skipped as well unless --no-ledger is given.`,
	Example: `  # Hydrate the default checkpoint
  tagharvest hydrate

  # Custom files and a slower pace
  tagharvest hydrate --input ids.json --output rows.csv --rate-limit 30

  # Use a stored TikTok account
  tagharvest hydrate --account research`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(hydrateFlags())
		if err != nil {
			return err
		}
		cp := checkpoint.NewStore(s.cfg.HydrationInput(), s.log).Load()
		stats, err := runHydrate(cmd.Context(), s, cp)
		if err != nil {
			return err
		}
		s.finish("hydrate", stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hydrateCmd)
	hydrateCmd.Flags().StringVarP(&inputPath, "input", "i", "", "checkpoint to hydrate (default: the discover checkpoint)")
	addHydrateFlags(hydrateCmd)
}

func addHydrateFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "hydrated CSV file (default hydrated_results.csv)")
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "database of already hydrated IDs (default hydrated.db)")
	cmd.Flags().BoolVar(&noLedger, "no-ledger", false, "hydrate every ID even if an earlier run did")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "detail requests per minute (default 60)")
	cmd.Flags().StringVarP(&accountName, "account", "a", "", "stored account to use (see 'tagharvest auth list')")
}

func hydrateFlags() map[string]interface{} {
	return map[string]interface{}{
		"input":      inputPath,
		"output":     outputPath,
		"ledger":     ledgerPath,
		"no-ledger":  noLedger,
		"rate-limit": rateLimit,
		"account":    accountName,
	}
}

// runHydrate fetches the detail record of every ID in cp
func runHydrate(ctx context.Context, s *session, cp checkpoint.Checkpoint) (ui.Stats, error) {
	cfg := s.cfg
	log := s.log.WithField("step", "hydrate")

	if cp.Total() == 0 {
		log.WarnWithFields("checkpoint is empty, nothing to hydrate", map[string]interface{}{
			"path": cfg.HydrationInput(),
		})
		return ui.Stats{}, nil
	}

	account, err := resolveAccount(cfg.TikTok.Account, log)
	if err != nil {
		return ui.Stats{}, err
	}
	opts := tiktok.Options{
		BaseURL:   cfg.TikTok.BaseURL,
		UserAgent: cfg.Browser.UserAgent,
		Timeout:   cfg.Hydration.Timeout,
		MSToken:   cfg.TikTok.MSToken,
		Limiter:   ratelimit.PerMinute(cfg.Hydration.RequestsPerMinute, cfg.Hydration.Burst),
		Logger:    log,
	}
	if account != nil {
		if opts.MSToken == "" {
			opts.MSToken = account.MSToken
		}
		opts.SessionID = account.SessionID
		if account.UserAgent != "" {
			opts.UserAgent = account.UserAgent
		}
	}

	client, err := tiktok.NewClient(opts)
	if err != nil {
		return ui.Stats{}, fmt.Errorf("failed to create TikTok client: %w", err)
	}
	defer client.Close()

	sink, err := storage.OpenCSVSink(cfg.Hydration.Output, hydrate.Header)
	if err != nil {
		return ui.Stats{}, err
	}
	defer sink.Close()

	hopts := hydrate.Options{Tracker: s.tracker, Logger: log}
	if cfg.Hydration.SkipHydrated {
		ledger, err := checkpoint.OpenLedger(cfg.Hydration.LedgerPath)
		if err != nil {
			return ui.Stats{}, err
		}
		defer ledger.Close()
		hopts.Ledger = ledger
	}

	stats := hydrate.NewEngine(client, sink, hopts).Run(ctx, cp)
	log.InfoWithFields("hydrated rows written", map[string]interface{}{
		"rows":     sink.Rows(),
		"output":   cfg.Hydration.Output,
		"renewals": client.Renewals(),
	})
	return stats, nil
}

// resolveAccount returns the named account, or the default one if any.
// Running without an account is allowed; a named account must exist.
func resolveAccount(name string, log logger.Logger) (*auth.Account, error) {
	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Warn("credential stores unavailable, continuing without an account")
		return nil, nil
	}

	account, err := manager.Resolve(name)
	switch {
	case err == nil:
		log.WithField("account", account.Name).Info("using stored credentials")
		return account, nil
	case name == "" && errors.Is(err, auth.ErrCredentialsNotFound):
		log.Debug("no stored account, hydrating anonymously")
		return nil, nil
	default:
		return nil, fmt.Errorf("account %q: %w", name, err)
	}
}
