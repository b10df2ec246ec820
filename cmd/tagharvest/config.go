package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"tagharvest/pkg/config"
	"tagharvest/pkg/storage"
	"tagharvest/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage tagharvest configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (TAGHARVEST_*, plus TARGET_PER, TIME_LIMIT_S, OUT, PROXY, UA)
  - .env files
  - Configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with every default",
	Long: `Write the default configuration, including the tag and term lists, to
'tagharvest.yaml' or the path given with --config. Secrets are never written.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from every source and report all invalid values
at once. Exits with status 1 when the configuration cannot be used.`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = "tagharvest.yaml"
	}
	if storage.Exists(path) {
		return fmt.Errorf("configuration file already exists: %s (remove it first to start over)", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the tag and term lists and the output paths")
	fmt.Println("2. Run 'tagharvest config validate' to check the file")
	fmt.Println("3. Start with 'tagharvest discover' or 'tagharvest trends'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	// ms_token is tagged out of YAML output
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	if cfg.TikTok.MSToken != "" {
		fmt.Println("\nms_token: set from environment")
	}
	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (TAGHARVEST_*)")
	fmt.Println("3. .env files")
	if configFile != "" {
		fmt.Printf("4. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("4. Configuration file: (searched in the working and home directories)")
	}
	fmt.Println("5. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" && !storage.Exists(configFile) {
		return fmt.Errorf("configuration file not found: %s", configFile)
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	var warnings []string
	if len(cfg.Discovery.Tags) == 0 {
		warnings = append(warnings, "discovery tag list is empty")
	}
	if len(cfg.Trends.Terms) == 0 {
		warnings = append(warnings, "trends term list is empty")
	}
	if cfg.Browser.RemoteURL == "" && cfg.Browser.Bin != "" {
		if _, err := os.Stat(cfg.Browser.Bin); err != nil {
			warnings = append(warnings, fmt.Sprintf("browser binary not found: %s", cfg.Browser.Bin))
		}
	}
	for _, w := range warnings {
		ui.PrintWarning(w)
	}

	ui.PrintSuccess("Configuration is valid")
	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Tags: %d, target %d per tag, %s budget\n", len(cfg.Discovery.Tags), cfg.Discovery.TargetPerTag, cfg.Discovery.TimeLimit)
	fmt.Printf("  Checkpoint: %s\n", cfg.Discovery.Checkpoint)
	fmt.Printf("  Hydrated output: %s (%d requests/minute)\n", cfg.Hydration.Output, cfg.Hydration.RequestsPerMinute)
	fmt.Printf("  Trend terms: %d into %s\n", len(cfg.Trends.Terms), cfg.Trends.OutputDir)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
