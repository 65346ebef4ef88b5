package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for a followsync run
type Config struct {
	// GitHub account and API access
	GitHub GitHubConfig `yaml:"github" json:"github"`

	// Mutation retry policy
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Delay between mutation targets
	Pacing PacingConfig `yaml:"pacing" json:"pacing"`

	// Client-side request throttle
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Usernames that are never unfollowed
	Whitelist []string `yaml:"whitelist,omitempty" json:"whitelist,omitempty"`

	// DryRun fetches and reconciles but issues no mutating calls
	DryRun bool `yaml:"dry_run" json:"dry_run"`

	// FailOnErrors makes the process exit non-zero on degraded runs
	FailOnErrors bool `yaml:"fail_on_errors" json:"fail_on_errors"`

	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`
	Snapshot      SnapshotConfig     `yaml:"snapshot" json:"snapshot"`
	History       HistoryConfig      `yaml:"history" json:"history"`
	Logging       LoggingConfig      `yaml:"logging" json:"logging"`
}

// GitHubConfig holds the account being reconciled and API settings
type GitHubConfig struct {
	Token     string        `yaml:"token,omitempty" json:"-"`
	Username  string        `yaml:"username" json:"username"`
	APIURL    string        `yaml:"api_url" json:"api_url"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// RetryConfig holds the fixed-delay retry policy for follow/unfollow calls
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts"`
	RateLimitDelay time.Duration `yaml:"rate_limit_delay" json:"rate_limit_delay"`
	FailureDelay   time.Duration `yaml:"failure_delay" json:"failure_delay"`
}

// PacingConfig holds the unconditional delay between targets
type PacingConfig struct {
	Delay time.Duration `yaml:"delay" json:"delay"`
}

// RateLimitConfig holds the client-side token bucket settings.
// RequestsPerMinute of 0 disables throttling.
type RateLimitConfig struct {
	Strategy          string `yaml:"strategy" json:"strategy"`
	RequestsPerMinute int    `yaml:"requests_per_minute" json:"requests_per_minute"`
	Burst             int    `yaml:"burst" json:"burst"`
}

// NotificationConfig holds the end-of-run report settings
type NotificationConfig struct {
	Enabled           bool          `yaml:"enabled" json:"enabled"`
	DiscordWebhookURL string        `yaml:"discord_webhook_url,omitempty" json:"-"`
	Desktop           bool          `yaml:"desktop" json:"desktop"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
}

// SnapshotConfig controls the per-run follower/following snapshot
type SnapshotConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Directory string `yaml:"directory,omitempty" json:"directory,omitempty"`
	CSV       bool   `yaml:"csv" json:"csv"`
}

// HistoryConfig controls the SQL audit store
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Driver  string `yaml:"driver" json:"driver"`
	DSN     string `yaml:"dsn,omitempty" json:"-"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file,omitempty" json:"file,omitempty"`
}

// DefaultConfig returns a Config with the stock reconciliation policy
func DefaultConfig() *Config {
	return &Config{
		GitHub: GitHubConfig{
			APIURL:    "https://api.github.com",
			UserAgent: "followsync",
			Timeout:   30 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			RateLimitDelay: 60 * time.Second,
			FailureDelay:   2 * time.Second,
		},
		Pacing: PacingConfig{
			Delay: 2 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Strategy:          "token_bucket",
			RequestsPerMinute: 0,
			Burst:             1,
		},
		Notifications: NotificationConfig{
			Enabled: true,
			Timeout: 10 * time.Second,
		},
		Snapshot: SnapshotConfig{
			Enabled: false,
			CSV:     true,
		},
		History: HistoryConfig{
			Enabled: false,
			Driver:  "sqlite",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables.
// TOKEN and USERNAME are honoured for compatibility; FOLLOWSYNC_* names win.
func (c *Config) LoadFromEnv() error {
	if v := firstEnv("FOLLOWSYNC_TOKEN", "TOKEN"); v != "" {
		c.GitHub.Token = v
	}
	if v := firstEnv("FOLLOWSYNC_USERNAME", "USERNAME"); v != "" {
		c.GitHub.Username = v
	}
	if v := os.Getenv("FOLLOWSYNC_API_URL"); v != "" {
		c.GitHub.APIURL = v
	}
	if v := os.Getenv("FOLLOWSYNC_USER_AGENT"); v != "" {
		c.GitHub.UserAgent = v
	}
	if v := os.Getenv("FOLLOWSYNC_WHITELIST"); v != "" {
		c.Whitelist = splitList(v)
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		c.Notifications.DiscordWebhookURL = v
	}
	if v := os.Getenv("FOLLOWSYNC_HISTORY_DSN"); v != "" {
		c.History.DSN = v
		c.History.Enabled = true
	}
	if v := os.Getenv("FOLLOWSYNC_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	var errs []error
	if v := os.Getenv("FOLLOWSYNC_DRY_RUN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FOLLOWSYNC_DRY_RUN: %w", err))
		}
		c.DryRun = b
	}
	if v := os.Getenv("FOLLOWSYNC_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FOLLOWSYNC_MAX_ATTEMPTS: %w", err))
		} else {
			c.Retry.MaxAttempts = n
		}
	}
	if v := os.Getenv("FOLLOWSYNC_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FOLLOWSYNC_REQUESTS_PER_MINUTE: %w", err))
		} else {
			c.RateLimit.RequestsPerMinute = n
		}
	}
	if v := os.Getenv("FOLLOWSYNC_PACING"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("FOLLOWSYNC_PACING: %w", err))
		} else {
			c.Pacing.Delay = d
		}
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
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

// FindConfigFile searches standard locations and returns the first hit
func FindConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		".followsync.yaml",
		".followsync.yml",
		filepath.Join(ConfigDir(), "config.yaml"),
		filepath.Join(home, ".followsync.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// ConfigDir returns the followsync directory under XDG_CONFIG_HOME
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "followsync")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "followsync")
}

// DataDir returns the followsync directory under XDG_DATA_HOME
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "followsync")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "followsync")
}

// Validate checks value ranges. Credentials are checked by RequireCredentials
// since they may still be filled in from the credential store.
func (c *Config) Validate() error {
	var errs []error

	if c.GitHub.APIURL == "" {
		errs = append(errs, errors.New("github api url is required"))
	} else if u, err := url.Parse(c.GitHub.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid github api url %q", c.GitHub.APIURL))
	}
	if c.GitHub.Timeout <= 0 {
		errs = append(errs, errors.New("github timeout must be positive"))
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max attempts must be positive"))
	}
	if c.Retry.RateLimitDelay < 0 || c.Retry.FailureDelay < 0 {
		errs = append(errs, errors.New("retry delays cannot be negative"))
	}
	if c.Pacing.Delay < 0 {
		errs = append(errs, errors.New("pacing delay cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("burst must be positive when throttling is enabled"))
	}

	switch c.RateLimit.Strategy {
	case "", "token_bucket", "sliding_window":
	default:
		errs = append(errs, fmt.Errorf("unknown rate limit strategy %q", c.RateLimit.Strategy))
	}

	if c.History.Enabled {
		switch c.History.Driver {
		case "sqlite", "postgres", "mysql":
		default:
			errs = append(errs, fmt.Errorf("unsupported history driver %q", c.History.Driver))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "warning": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// RequireCredentials fails when the token or username is missing
func (c *Config) RequireCredentials() error {
	var errs []error
	if c.GitHub.Token == "" {
		errs = append(errs, errors.New("github token is required (set TOKEN or FOLLOWSYNC_TOKEN, or run 'followsync auth login')"))
	}
	if c.GitHub.Username == "" {
		errs = append(errs, errors.New("github username is required (set USERNAME or FOLLOWSYNC_USERNAME)"))
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

// MergeCommandLineFlags merges explicitly set command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["token"].(string); ok && v != "" {
		c.GitHub.Token = v
	}
	if v, ok := flags["username"].(string); ok && v != "" {
		c.GitHub.Username = v
	}
	if v, ok := flags["api-url"].(string); ok && v != "" {
		c.GitHub.APIURL = v
	}
	if v, ok := flags["max-attempts"].(int); ok && v > 0 {
		c.Retry.MaxAttempts = v
	}
	if v, ok := flags["pacing"].(time.Duration); ok {
		c.Pacing.Delay = v
	}
	if v, ok := flags["whitelist"].([]string); ok && len(v) > 0 {
		c.Whitelist = append(c.Whitelist, v...)
	}
	if v, ok := flags["dry-run"].(bool); ok {
		c.DryRun = v
	}
	if v, ok := flags["fail-on-errors"].(bool); ok {
		c.FailOnErrors = v
	}
	if v, ok := flags["notify"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["desktop-notify"].(bool); ok {
		c.Notifications.Desktop = v
	}
	if v, ok := flags["snapshot"].(bool); ok {
		c.Snapshot.Enabled = v
	}
	if v, ok := flags["history"].(bool); ok {
		c.History.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence: command line flags > environment (.env included) > config file > defaults.
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	home, _ := os.UserHomeDir()
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(home, ".followsync.env"))

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

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
