package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"followsync/pkg/config"
	"followsync/pkg/logger"
	"followsync/pkg/ui"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
	noColor    bool
	quiet      bool
	verbose    bool
)

// errDegraded is returned by run when --fail-on-errors is set and the run
// did not complete cleanly
var errDegraded = errors.New("run completed with failures")

var rootCmd = &cobra.Command{
	Use:   "followsync",
	Short: "Follow back your GitHub followers and unfollow those who don't follow back",
	Long: `followsync reconciles the accounts you follow on GitHub with the accounts
that follow you.

A run:
  1. Fetches who you follow and who follows you
  2. Follows back every follower you don't follow yet
  3. Fetches both lists again
  4. Unfollows every account that doesn't follow you back

Mutations are paced and retried, a 403 from GitHub waits a minute before the
next attempt. Running followsync without a subcommand performs a run.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSyncCmd,
}

// Execute runs the root command and exits non-zero on error
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errDegraded) {
			newConsole().Failure("Error: %v", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.followsync.yaml or $XDG_CONFIG_HOME/followsync/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	addRunFlags(rootCmd.Flags())

	rootCmd.SetVersionTemplate(`followsync {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func newConsole() *ui.Console {
	return ui.NewConsole(os.Stdout, noColor || os.Getenv("NO_COLOR") != "")
}

// effectiveLogLevel folds --quiet and --verbose into --log-level
func effectiveLogLevel() string {
	switch {
	case verbose:
		return "debug"
	case quiet:
		return "error"
	default:
		return logLevel
	}
}

// collectFlags returns the values of changed flags keyed by flag name, in
// the shape config.MergeCommandLineFlags expects
func collectFlags(fs *pflag.FlagSet) map[string]interface{} {
	flags := make(map[string]interface{})
	fs.Visit(func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "bool":
			v, _ := fs.GetBool(f.Name)
			flags[f.Name] = v
		case "int":
			v, _ := fs.GetInt(f.Name)
			flags[f.Name] = v
		case "duration":
			v, _ := fs.GetDuration(f.Name)
			flags[f.Name] = v
		case "stringSlice":
			v, _ := fs.GetStringSlice(f.Name)
			flags[f.Name] = v
		default:
			flags[f.Name] = f.Value.String()
		}
	})
	if level := effectiveLogLevel(); level != "" {
		flags["log-level"] = level
	}
	if logFile != "" {
		flags["log-file"] = logFile
	}
	return flags
}

// loadConfig loads configuration with cmd's flags on top and sets up logging
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, collectFlags(cmd.Flags()))
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}
