package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"followsync/pkg/history"
	"followsync/pkg/logger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded runs",
	Long: `Show the runs recorded by 'followsync run --history'.

With --run, the follow/unfollow attempts of that run are listed instead.`,
	Example: `  followsync history --limit 5
  followsync history --run 0b6c2f0e-...`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var (
	historyLimit int
	historyRunID string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringP("username", "u", "", "only show runs of this account")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	historyCmd.Flags().StringVar(&historyRunID, "run", "", "show the mutations of one run")
	historyCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History.Driver, historyDSN(cfg), logger.GetLogger())
	if err != nil {
		return err
	}
	defer store.Close()

	console := newConsole()
	ctx := cmd.Context()

	if historyRunID != "" {
		mutations, err := store.Mutations(ctx, historyRunID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, mutations)
		}
		if len(mutations) == 0 {
			console.Info("No mutations recorded for run", historyRunID)
			return nil
		}
		rows := make([][]string, 0, len(mutations))
		for _, m := range mutations {
			rows = append(rows, []string{m.Target, m.Action, m.Outcome, strconv.Itoa(m.Attempts), m.Error})
		}
		console.Heading("Run %s", historyRunID)
		console.Table([]string{"Target", "Action", "Outcome", "Attempts", "Error"}, rows)
		return nil
	}

	runs, err := store.Recent(ctx, cfg.GitHub.Username, historyLimit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, runs)
	}
	if len(runs) == 0 {
		console.Info("No runs recorded", "enable history with --history or history.enabled")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		started := r.StartedAt.Local().Format("2006-01-02 15:04")
		if r.DryRun {
			started += " (dry)"
		}
		rows = append(rows, []string{
			started,
			r.Username,
			strconv.Itoa(r.Followed),
			strconv.Itoa(r.Unfollowed),
			fmt.Sprintf("%d/%d", r.FailedFollows, r.FailedUnfollows),
			strconv.Itoa(r.FetchFailures),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String(),
			r.RunID,
		})
	}
	console.Table([]string{"Started", "User", "Followed", "Unfollowed", "Failed", "Partial", "Took", "Run"}, rows)
	return nil
}
