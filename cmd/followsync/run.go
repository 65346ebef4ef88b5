package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"followsync/pkg/auth"
	"followsync/pkg/config"
	"followsync/pkg/github"
	"followsync/pkg/history"
	"followsync/pkg/logger"
	"followsync/pkg/ratelimit"
	"followsync/pkg/report"
	"followsync/pkg/snapshot"
	"followsync/pkg/syncer"
	"followsync/pkg/ui"
	"followsync/pkg/ui/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Follow back followers, then unfollow non-followers",
	Long: `Run one reconciliation of the configured account.

Credentials come from, in order:
  - --token / FOLLOWSYNC_TOKEN / TOKEN
  - the credential store (see 'followsync auth login')

The username comes from --username, FOLLOWSYNC_USERNAME, USERNAME or the
config file.`,
	Example: `  # Reconcile using the environment
  TOKEN=ghp_xxx USERNAME=octocat followsync run

  # See what would change without touching anything
  followsync run --dry-run

  # Never unfollow these accounts
  followsync run --whitelist torvalds,gvanrossum

  # Exit 1 when any follow/unfollow failed, for cron jobs
  followsync run --fail-on-errors`,
	Args: cobra.NoArgs,
	RunE: runSyncCmd,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd.Flags())
}

func addRunFlags(fs *pflag.FlagSet) {
	fs.String("token", "", "GitHub personal access token")
	fs.StringP("username", "u", "", "GitHub username to reconcile")
	fs.String("api-url", "", "GitHub API base URL")
	fs.Int("max-attempts", 0, "attempts per follow/unfollow")
	fs.Duration("pacing", 0, "delay between targets")
	fs.StringSlice("whitelist", nil, "accounts that are never unfollowed")
	fs.Bool("dry-run", false, "fetch and reconcile without following or unfollowing")
	fs.Bool("fail-on-errors", false, "exit 1 when a fetch was partial or a mutation failed")
	fs.Bool("notify", true, "send the run report to the Discord webhook")
	fs.Bool("desktop-notify", false, "show the run report as a desktop notification")
	fs.Bool("snapshot", false, "save a snapshot of both lists after the run")
	fs.Bool("history", false, "record the run in the history database")
	fs.BoolVar(&liveView, "tui", false, "show a live progress view (terminal only)")
}

var liveView bool

// progressView receives phase progress in addition to the printed lines
type progressView interface {
	syncer.Printer
	PhaseStarted(name string, total int)
	TargetDone(target string, ok bool)
}

func runSyncCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := resolveToken(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var live *tui.TUI
	if liveView && term.IsTerminal(int(os.Stdout.Fd())) {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		live = tui.New(cfg.GitHub.Username, cfg.DryRun, os.Stdout, cancel)
		live.Start()
		defer live.Stop()
	}

	var view progressView
	if live != nil {
		view = live
	}
	sum, err := runSync(ctx, cfg, newConsole(), view, logger.GetLogger())
	if err != nil {
		return err
	}
	if cfg.FailOnErrors && sum.Degraded() {
		return errDegraded
	}
	return nil
}

// resolveToken fills the token from the credential store when the
// configuration has none, then checks that both credentials are present
func resolveToken(cfg *config.Config) error {
	if cfg.GitHub.Token == "" && cfg.GitHub.Username != "" {
		manager, err := auth.NewManager(config.ConfigDir())
		if err != nil {
			logger.WithError(err).Warn("Credential store unavailable")
		} else if token, err := manager.Token(cfg.GitHub.Username); err == nil {
			cfg.GitHub.Token = token
			logger.WithField("username", cfg.GitHub.Username).Debug("Using stored token")
		}
	}
	if err := cfg.RequireCredentials(); err != nil {
		auth.ShowQuickTokenGuide(os.Stderr)
		return err
	}
	return nil
}

// runSync performs one run with every optional stage the configuration
// enables. When view is nil the per-target lines go to console.
func runSync(ctx context.Context, cfg *config.Config, console *ui.Console, view progressView, log logger.Logger) (*syncer.Summary, error) {
	runID := uuid.NewString()
	log = log.WithField("run_id", runID)

	limiter, err := ratelimit.New(cfg.RateLimit.Strategy, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit: %w", err)
	}

	client := github.NewClient(github.Options{
		BaseURL:   cfg.GitHub.APIURL,
		Token:     cfg.GitHub.Token,
		UserAgent: cfg.GitHub.UserAgent,
		Timeout:   cfg.GitHub.Timeout,
		Limiter:   limiter,
		Logger:    log,
	})

	var printer syncer.Printer = console
	if view != nil {
		printer = view
	}

	tracker := report.NewTracker()
	s := syncer.New(client, syncer.Options{
		Username: cfg.GitHub.Username,
		Pacing:   cfg.Pacing.Delay,
		Retry: syncer.RetryPolicy{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			RateLimitDelay: cfg.Retry.RateLimitDelay,
			FailureDelay:   cfg.Retry.FailureDelay,
		},
		DryRun:    cfg.DryRun,
		Whitelist: cfg.Whitelist,
		RunID:     runID,
		Logger:    log,
		Printer:   printer,
		OnPhase: func(action github.Action, targets []string) {
			if view != nil {
				view.PhaseStarted(phaseName(action), len(targets))
			}
		},
		OnResult: func(r syncer.MutationResult) {
			ok := r.Outcome != syncer.ExhaustedRetries
			tracker.Record(r.Action, r.Target, ok)
			if view != nil {
				view.TargetDone(r.Target, ok)
			}
		},
	})

	if cfg.DryRun {
		printer.Warning("Dry run: no one will be followed or unfollowed")
	}

	sum, err := s.Run(ctx)
	if stopper, ok := view.(interface{ Stop() error }); ok {
		if stopErr := stopper.Stop(); stopErr != nil {
			log.WithError(stopErr).Warn("Live view failed")
		}
	}
	if err != nil {
		console.Warning("Run interrupted: %v", err)
		log.WithError(err).Warn("Run interrupted")
		return sum, err
	}

	if cfg.Snapshot.Enabled {
		saveSnapshot(cfg, sum, console, log)
	}
	if cfg.History.Enabled {
		recordHistory(ctx, cfg, sum, log)
	}

	notifier := report.NewNotifier(tracker, log, senders(cfg, log)...)
	rep := notifier.Deliver(ctx, runID, cfg.GitHub.Username, cfg.DryRun)

	printSummary(console, sum, rep)
	return sum, nil
}

func phaseName(action github.Action) string {
	if action == github.ActionUnfollow {
		return "Unfollowing"
	}
	return "Following back"
}

func senders(cfg *config.Config, log logger.Logger) []report.Sender {
	if !cfg.Notifications.Enabled {
		return nil
	}
	var out []report.Sender
	if cfg.Notifications.DiscordWebhookURL != "" {
		out = append(out, report.NewDiscordNotifier(cfg.Notifications.DiscordWebhookURL, cfg.Notifications.Timeout, log))
	}
	if cfg.Notifications.Desktop {
		out = append(out, report.NewDesktopNotifier())
	}
	return out
}

func snapshotDir(cfg *config.Config) string {
	if cfg.Snapshot.Directory != "" {
		return cfg.Snapshot.Directory
	}
	return filepath.Join(config.DataDir(), "snapshots")
}

func historyDSN(cfg *config.Config) string {
	if cfg.History.DSN != "" {
		return cfg.History.DSN
	}
	return filepath.Join(config.DataDir(), "history.db")
}

func saveSnapshot(cfg *config.Config, sum *syncer.Summary, console *ui.Console, log logger.Logger) {
	store := snapshot.NewStore(snapshotDir(cfg), cfg.Snapshot.CSV, log)
	snap := snapshot.New(sum.Username, sum.RunID, sum.Followers, sum.FollowingAfter(), sum.FinishedAt)
	path, err := store.Save(snap)
	if err != nil {
		log.WithError(err).Error("Failed to save snapshot")
		return
	}
	console.Dim("Snapshot saved to %s", path)
}

func recordHistory(ctx context.Context, cfg *config.Config, sum *syncer.Summary, log logger.Logger) {
	store, err := history.Open(cfg.History.Driver, historyDSN(cfg), log)
	if err != nil {
		log.WithError(err).Error("Failed to open history database")
		return
	}
	defer store.Close()

	run, mutations := history.FromSummary(sum)
	if err := store.Record(ctx, run, mutations); err != nil {
		log.WithError(err).Error("Failed to record run history")
	}
}

func printSummary(console *ui.Console, sum *syncer.Summary, rep *report.Report) {
	rows := map[string]string{
		"Followers":        strconv.Itoa(sum.Followers.Len()),
		"Following":        strconv.Itoa(sum.FollowingAfter().Len()),
		"Followed":         strconv.Itoa(rep.Followed.Count),
		"Unfollowed":       strconv.Itoa(rep.Unfollowed.Count),
		"Failed follows":   strconv.Itoa(rep.FailedFollows.Count),
		"Failed unfollows": strconv.Itoa(rep.FailedUnfollows.Count),
		"Duration":         sum.Duration().Round(time.Millisecond).String(),
	}
	if len(sum.FetchFailures) > 0 {
		rows["Partial fetches"] = strconv.Itoa(len(sum.FetchFailures))
	}
	if len(sum.Unfollow.Skipped) > 0 {
		rows["Whitelisted"] = strconv.Itoa(len(sum.Unfollow.Skipped))
	}

	console.Line("")
	console.Panel(rep.Title(), rows)
	for _, fe := range sum.FetchFailures {
		console.Warning("Partial %s listing of %s: stopped at page %d", fe.Kind, fe.Account, fe.Page)
	}
}
