package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tagharvest/pkg/config"
	"tagharvest/pkg/logger"
	"tagharvest/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	noColor       bool
	notifications bool
	quiet         bool
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tagharvest",
	Short: "Harvest TikTok hashtag videos and Google Trends series",
	Long: `tagharvest collects research data about hashtags in three steps:

  discover  scroll each hashtag page in a browser and checkpoint video IDs
  hydrate   fetch likes, views, shares and comments for every checkpointed ID
  trends    download the interest-over-time series of each search term

Every step can be interrupted and re-run; finished work is skipped.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetColor(!noColor)
		if quiet {
			logLevel = "error"
		}
		if !quiet && isRunCommand(cmd) {
			ui.PrintBanner()
		}
	},
}

// Execute adds all child commands to the root command and runs it. SIGINT
// and SIGTERM cancel the command context so partial work is persisted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./tagharvest.yaml or $HOME/.tagharvest.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "send a desktop notification when a run ends")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress everything except errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print every item as it is processed")

	rootCmd.SetVersionTemplate(`tagharvest {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func isRunCommand(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "discover", "hydrate", "trends", "run":
		return true
	}
	return false
}

// session is the shared state of one harvesting command
type session struct {
	cfg      *config.Config
	log      logger.Logger
	runID    string
	tracker  *ui.Tracker
	notifier *ui.Notifier
}

// newSession loads the configuration with flags on top and prepares
// logging and progress reporting
func newSession(flags map[string]interface{}) (*session, error) {
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if noColor {
		cfg.Logging.NoColor = true
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	runID := uuid.NewString()
	log := logger.WithFields(map[string]interface{}{
		"run_id":  runID,
		"version": version,
	})

	tracker := ui.NewTracker()
	if !quiet && term.IsTerminal(int(os.Stdout.Fd())) {
		tracker.Display = ui.NewProgressDisplay(os.Stdout, verbose)
	}

	return &session{
		cfg:      cfg,
		log:      log,
		runID:    runID,
		tracker:  tracker,
		notifier: ui.NewNotifier(notifications),
	}, nil
}

// finish prints and announces the totals of a step
func (s *session) finish(step string, stats ui.Stats) {
	s.log.InfoWithFields(step+" finished", map[string]interface{}{
		"attempted": stats.Attempted,
		"succeeded": stats.Succeeded,
		"failed":    stats.Failed,
		"skipped":   stats.Skipped,
	})
	s.notifier.SendSuccess("tagharvest "+step, stats.String())
}
