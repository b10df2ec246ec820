package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for a harvesting run
type Config struct {
	Discovery DiscoveryConfig `yaml:"discovery" json:"discovery"`
	Hydration HydrationConfig `yaml:"hydration" json:"hydration"`
	Trends    TrendsConfig    `yaml:"trends" json:"trends"`
	Browser   BrowserConfig   `yaml:"browser" json:"browser"`
	TikTok    TikTokConfig    `yaml:"tiktok" json:"tiktok"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// DiscoveryConfig controls the scroll-and-observe ID discovery pass
type DiscoveryConfig struct {
	TargetPerTag    int           `yaml:"target_per_tag" json:"target_per_tag"`
	TimeLimit       time.Duration `yaml:"time_limit" json:"time_limit"`
	ContentWait     time.Duration `yaml:"content_wait" json:"content_wait"`
	ScrollPause     time.Duration `yaml:"scroll_pause" json:"scroll_pause"`
	ScrollJitter    time.Duration `yaml:"scroll_jitter" json:"scroll_jitter"`
	StagnationLimit int           `yaml:"stagnation_limit" json:"stagnation_limit"`
	GrowthTimeout   time.Duration `yaml:"growth_timeout" json:"growth_timeout"`
	ChallengePoll   time.Duration `yaml:"challenge_poll" json:"challenge_poll"`
	ChallengeWait   time.Duration `yaml:"challenge_wait" json:"challenge_wait"`
	Checkpoint      string        `yaml:"checkpoint" json:"checkpoint"`
	Tags            []string      `yaml:"tags" json:"tags"`
}

// HydrationConfig controls the per-ID detail fetch
type HydrationConfig struct {
	// Input is the checkpoint to hydrate; empty means Discovery.Checkpoint
	Input             string        `yaml:"input" json:"input"`
	Output            string        `yaml:"output" json:"output"`
	LedgerPath        string        `yaml:"ledger_path" json:"ledger_path"`
	SkipHydrated      bool          `yaml:"skip_hydrated" json:"skip_hydrated"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	Burst             int           `yaml:"burst" json:"burst"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
}

// TrendsConfig controls the per-term time series fetch
type TrendsConfig struct {
	OutputDir         string        `yaml:"output_dir" json:"output_dir"`
	Timeframe         string        `yaml:"timeframe" json:"timeframe"`
	Geo               string        `yaml:"geo" json:"geo"`
	Language          string        `yaml:"language" json:"language"`
	TZ                int           `yaml:"tz" json:"tz"`
	MaxAttempts       int           `yaml:"max_attempts" json:"max_attempts"`
	InitialDelay      time.Duration `yaml:"initial_delay" json:"initial_delay"`
	BackoffFactor     float64       `yaml:"backoff_factor" json:"backoff_factor"`
	Cooldown          time.Duration `yaml:"cooldown" json:"cooldown"`
	// RequestsPerMinute paces individual API calls; one term costs two or three
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	Terms             []string      `yaml:"terms" json:"terms"`
}

// BrowserConfig describes the single browser session shared by a discovery run
type BrowserConfig struct {
	Headless       bool   `yaml:"headless" json:"headless"`
	Proxy          string `yaml:"proxy" json:"proxy"`
	UserAgent      string `yaml:"user_agent" json:"user_agent"`
	Locale         string `yaml:"locale" json:"locale"`
	ViewportWidth  int    `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height" json:"viewport_height"`
	SessionDir     string `yaml:"session_dir" json:"session_dir"`
	// RemoteURL connects to an already running browser instead of launching one
	RemoteURL string `yaml:"remote_url" json:"remote_url"`
	Bin       string `yaml:"bin" json:"bin"`
}

// TikTokConfig holds settings for the item-detail client
type TikTokConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	// Account selects stored credentials; empty means the default account
	Account string `yaml:"account" json:"account"`
	MSToken string `yaml:"-" json:"-"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			TargetPerTag:    500,
			TimeLimit:       1000 * time.Second,
			ContentWait:     60 * time.Second,
			ScrollPause:     1600 * time.Millisecond,
			ScrollJitter:    400 * time.Millisecond,
			StagnationLimit: 25,
			GrowthTimeout:   45 * time.Second,
			ChallengePoll:   time.Second,
			ChallengeWait:   180 * time.Second,
			Checkpoint:      "ids_by_tag.json",
			Tags:            append([]string(nil), DefaultDiscoveryTags...),
		},
		Hydration: HydrationConfig{
			Output:            "hydrated_results.csv",
			LedgerPath:        "hydrated.db",
			SkipHydrated:      true,
			RequestsPerMinute: 60,
			Burst:             1,
			Timeout:           30 * time.Second,
		},
		Trends: TrendsConfig{
			OutputDir:         "google_trends",
			Timeframe:         "2020-01-01 2025-10-18",
			Geo:               "",
			Language:          "en-US",
			TZ:                0,
			MaxAttempts:       5,
			InitialDelay:      10 * time.Second,
			BackoffFactor:     2.0,
			Cooldown:          20 * time.Second,
			RequestsPerMinute: 20,
			Timeout:           30 * time.Second,
			Terms:             append([]string(nil), DefaultTrendTerms...),
		},
		Browser: BrowserConfig{
			Headless:       true,
			UserAgent:      DefaultUserAgent,
			Locale:         "en-US",
			ViewportWidth:  1366,
			ViewportHeight: 864,
			SessionDir:     ".tagharvest_browser",
		},
		TikTok: TikTokConfig{
			BaseURL: "https://www.tiktok.com",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// HydrationInput resolves the checkpoint path the hydrate step reads
func (c *Config) HydrationInput() string {
	if c.Hydration.Input != "" {
		return c.Hydration.Input
	}
	return c.Discovery.Checkpoint
}

// firstEnv returns the first non-empty value among the named variables
func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// LoadFromEnv loads configuration from environment variables.
// The short names (TARGET_PER, TIME_LIMIT_S, OUT, PROXY, UA) are accepted
// alongside the TAGHARVEST_ prefixed forms, which win when both are set.
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := firstEnv("TAGHARVEST_TARGET_PER_TAG", "TARGET_PER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("target per tag %q: %w", v, err))
		} else {
			c.Discovery.TargetPerTag = n
		}
	}
	if v := firstEnv("TAGHARVEST_TIME_LIMIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("time limit %q: %w", v, err))
		} else {
			c.Discovery.TimeLimit = d
		}
	} else if v := os.Getenv("TIME_LIMIT_S"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TIME_LIMIT_S %q: %w", v, err))
		} else {
			c.Discovery.TimeLimit = time.Duration(n) * time.Second
		}
	}
	if v := firstEnv("TAGHARVEST_CHECKPOINT", "OUT"); v != "" {
		c.Discovery.Checkpoint = v
	}
	if v := firstEnv("TAGHARVEST_HYDRATED_OUTPUT"); v != "" {
		c.Hydration.Output = v
	}
	if v := firstEnv("TAGHARVEST_LEDGER"); v != "" {
		c.Hydration.LedgerPath = v
	}
	if v := firstEnv("TAGHARVEST_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("requests per minute %q: %w", v, err))
		} else {
			c.Hydration.RequestsPerMinute = n
		}
	}
	if v := firstEnv("TAGHARVEST_TRENDS_DIR"); v != "" {
		c.Trends.OutputDir = v
	}
	if v := firstEnv("TAGHARVEST_TRENDS_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("trends requests per minute %q: %w", v, err))
		} else {
			c.Trends.RequestsPerMinute = n
		}
	}
	if v := firstEnv("TAGHARVEST_PROXY", "PROXY"); v != "" {
		c.Browser.Proxy = v
	}
	if v := firstEnv("TAGHARVEST_USER_AGENT", "UA"); v != "" {
		c.Browser.UserAgent = v
	}
	if v := firstEnv("TAGHARVEST_SESSION_DIR"); v != "" {
		c.Browser.SessionDir = v
	}
	if v := firstEnv("TAGHARVEST_HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("headless %q: %w", v, err))
		} else {
			c.Browser.Headless = b
		}
	}
	if v := firstEnv("TAGHARVEST_BROWSER_URL"); v != "" {
		c.Browser.RemoteURL = v
	}
	if v := firstEnv("TAGHARVEST_MS_TOKEN"); v != "" {
		c.TikTok.MSToken = v
	}
	if v := firstEnv("TAGHARVEST_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".tagharvest.yaml",
		".tagharvest.yml",
		filepath.Join(home, ".config", "tagharvest", "config.yaml"),
		filepath.Join(home, ".config", "tagharvest", "config.yml"),
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	d := c.Discovery
	if d.TargetPerTag <= 0 {
		errs = append(errs, errors.New("discovery target per tag must be positive"))
	}
	if d.TimeLimit <= 0 {
		errs = append(errs, errors.New("discovery time limit must be positive"))
	}
	if d.StagnationLimit <= 0 {
		errs = append(errs, errors.New("stagnation limit must be positive"))
	}
	if d.ScrollPause < 0 || d.ScrollJitter < 0 {
		errs = append(errs, errors.New("scroll pause and jitter cannot be negative"))
	}
	if d.ChallengePoll <= 0 {
		errs = append(errs, errors.New("challenge poll interval must be positive"))
	}
	if d.Checkpoint == "" {
		errs = append(errs, errors.New("checkpoint path is required"))
	}

	h := c.Hydration
	if h.Output == "" {
		errs = append(errs, errors.New("hydration output path is required"))
	}
	if h.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if h.Burst <= 0 {
		errs = append(errs, errors.New("burst must be positive"))
	}
	if h.SkipHydrated && h.LedgerPath == "" {
		errs = append(errs, errors.New("ledger path is required when skip_hydrated is set"))
	}

	tr := c.Trends
	if tr.OutputDir == "" {
		errs = append(errs, errors.New("trends output directory is required"))
	}
	if len(strings.Fields(tr.Timeframe)) != 2 {
		errs = append(errs, fmt.Errorf("trends timeframe %q must be \"YYYY-MM-DD YYYY-MM-DD\"", tr.Timeframe))
	}
	if tr.MaxAttempts < 1 {
		errs = append(errs, errors.New("trends max attempts must be at least 1"))
	}
	if tr.InitialDelay < 0 || tr.Cooldown < 0 {
		errs = append(errs, errors.New("trends delays cannot be negative"))
	}
	if tr.BackoffFactor < 1 {
		errs = append(errs, errors.New("trends backoff factor must be at least 1"))
	}
	if tr.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("trends requests per minute must be positive"))
	}

	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		errs = append(errs, errors.New("browser viewport must be positive"))
	}
	if c.Browser.SessionDir == "" {
		errs = append(errs, errors.New("browser session directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// MergeCommandLineFlags applies values collected from cobra flags.
// Zero values are ignored so unset flags never clobber file or env values.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["target"].(int); ok && v > 0 {
		c.Discovery.TargetPerTag = v
	}
	if v, ok := flags["time-limit"].(time.Duration); ok && v > 0 {
		c.Discovery.TimeLimit = v
	}
	if v, ok := flags["checkpoint"].(string); ok && v != "" {
		c.Discovery.Checkpoint = v
	}
	if v, ok := flags["tags"].([]string); ok && len(v) > 0 {
		c.Discovery.Tags = v
	}
	if v, ok := flags["input"].(string); ok && v != "" {
		c.Hydration.Input = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Hydration.Output = v
	}
	if v, ok := flags["rate-limit"].(int); ok && v > 0 {
		c.Hydration.RequestsPerMinute = v
	}
	if v, ok := flags["account"].(string); ok && v != "" {
		c.TikTok.Account = v
	}
	if v, ok := flags["ledger"].(string); ok && v != "" {
		c.Hydration.LedgerPath = v
	}
	if v, ok := flags["no-ledger"].(bool); ok && v {
		c.Hydration.SkipHydrated = false
	}
	if v, ok := flags["trends-dir"].(string); ok && v != "" {
		c.Trends.OutputDir = v
	}
	if v, ok := flags["terms"].([]string); ok && len(v) > 0 {
		c.Trends.Terms = v
	}
	if v, ok := flags["proxy"].(string); ok && v != "" {
		c.Browser.Proxy = v
	}
	if v, ok := flags["user-agent"].(string); ok && v != "" {
		c.Browser.UserAgent = v
	}
	if v, ok := flags["session-dir"].(string); ok && v != "" {
		c.Browser.SessionDir = v
	}
	if v, ok := flags["headful"].(bool); ok && v {
		c.Browser.Headless = false
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence:
// command line flags > environment variables > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tagharvest.env"))

	cfg := DefaultConfig()
	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}
