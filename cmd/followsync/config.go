package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"followsync/pkg/auth"
	"followsync/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage followsync configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (FOLLOWSYNC_*, TOKEN, USERNAME, DISCORD_WEBHOOK_URL)
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.followsync.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source.

The token, webhook URL and history DSN are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

const exampleConfig = `# followsync configuration
#
# Environment variables override this file:
#   FOLLOWSYNC_TOKEN (or TOKEN), FOLLOWSYNC_USERNAME (or USERNAME),
#   DISCORD_WEBHOOK_URL, FOLLOWSYNC_WHITELIST, FOLLOWSYNC_DRY_RUN

github:
  # Account to reconcile
  username: ""
  # Personal access token with the user:follow scope.
  # Prefer 'followsync auth login' or the TOKEN variable over storing it here.
  token: ""
  api_url: "https://api.github.com"
  user_agent: "followsync"
  timeout: 30s

# Retry policy for each follow/unfollow
retry:
  max_attempts: 3
  # Wait after a 403 from GitHub
  rate_limit_delay: 60s
  # Wait after any other failure
  failure_delay: 2s

# Delay between two follow/unfollow targets
pacing:
  delay: 2s

# Client-side throttle for every API call. 0 disables it.
rate_limit:
  strategy: "token_bucket"
  requests_per_minute: 0
  burst: 1

# Accounts that are never unfollowed
whitelist: []

dry_run: false

# Exit 1 when a listing was partial or a follow/unfollow failed
fail_on_errors: false

notifications:
  enabled: true
  discord_webhook_url: ""
  desktop: false
  timeout: 10s

# Save both lists after each run under <directory>/<username>/<date>.json
snapshot:
  enabled: false
  # Defaults to $XDG_DATA_HOME/followsync/snapshots
  directory: ""
  # Also write followers/following/network CSV files
  csv: true

# Record runs and mutations in a SQL database
history:
  enabled: false
  # sqlite, postgres or mysql
  driver: "sqlite"
  # Defaults to $XDG_DATA_HOME/followsync/history.db for sqlite
  dsn: ""

logging:
  # debug, info, warn, error
  level: "info"
  file: ""
`

func runConfigInit(cmd *cobra.Command, _ []string) error {
	console := newConsole()

	configPath := configFile
	if configPath == "" {
		configPath = ".followsync.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		console.Line("To overwrite, first remove the existing file:")
		console.Line("  rm %s", configPath)
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	console.Success("Configuration file created: %s", configPath)
	console.Line("")
	console.Line("Next steps:")
	console.Line("1. Set github.username and store a token with 'followsync auth login'")
	console.Line("2. Run 'followsync config validate' to check the configuration")
	console.Line("3. Preview a run with 'followsync run --dry-run'")
	return nil
}

// maskedConfig returns a copy of cfg safe to print
func maskedConfig(cfg *config.Config) config.Config {
	display := *cfg
	if display.GitHub.Token != "" {
		display.GitHub.Token = auth.MaskToken(display.GitHub.Token)
	}
	if display.Notifications.DiscordWebhookURL != "" {
		display.Notifications.DiscordWebhookURL = auth.MaskToken(display.Notifications.DiscordWebhookURL)
	}
	if display.History.DSN != "" {
		display.History.DSN = "***"
	}
	return display
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	display := maskedConfig(cfg)
	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	console := newConsole()
	console.Heading("Current Configuration")
	console.Line("")
	fmt.Fprint(cmd.OutOrStdout(), string(data))

	console.Line("")
	console.Line("Configuration sources (in order of priority):")
	console.Line("1. Command line flags")
	console.Line("2. Environment variables (FOLLOWSYNC_*, TOKEN, USERNAME)")
	if path := resolvedConfigPath(); path != "" {
		console.Line("3. Configuration file: %s", path)
	} else {
		console.Line("3. Configuration file: (none found)")
	}
	console.Line("4. Default values")
	return nil
}

func resolvedConfigPath() string {
	if configFile != "" {
		return configFile
	}
	return config.FindConfigFile()
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	console := newConsole()

	path := resolvedConfigPath()
	if path == "" {
		return errors.New("no configuration file found, specify one with --config")
	}
	console.Info("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		return err
	}

	var warnings []string
	if err := cfg.RequireCredentials(); err != nil {
		warnings = append(warnings, err.Error())
	}
	if cfg.Notifications.Enabled && cfg.Notifications.DiscordWebhookURL == "" && !cfg.Notifications.Desktop {
		warnings = append(warnings, "notifications are enabled but no Discord webhook or desktop notifications are configured")
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
	}

	if len(warnings) > 0 {
		console.Warning("Configuration warnings:")
		for _, w := range warnings {
			console.Line("  - %s", w)
		}
		console.Line("")
	}

	console.Success("Configuration is valid")
	console.Line("")
	console.Line("Configuration summary:")
	console.Line("  Username: %s", cfg.GitHub.Username)
	console.Line("  API: %s", cfg.GitHub.APIURL)
	console.Line("  Max attempts: %d", cfg.Retry.MaxAttempts)
	console.Line("  Pacing: %s", cfg.Pacing.Delay)
	console.Line("  Whitelisted: %d", len(cfg.Whitelist))
	console.Line("  Dry run: %t", cfg.DryRun)
	console.Line("  Log level: %s", cfg.Logging.Level)
	return nil
}
