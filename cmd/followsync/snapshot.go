package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"followsync/pkg/logger"
	"followsync/pkg/snapshot"
	"followsync/pkg/ui"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect saved follower/following snapshots",
	Long: `Inspect the snapshots saved by 'followsync run --snapshot'.

Snapshots live under $XDG_DATA_HOME/followsync/snapshots/<username>/ unless
snapshot.directory is configured.`,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshot dates",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotList,
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show [date]",
	Short: "Show a snapshot, the latest by default",
	Example: `  followsync snapshot show
  followsync snapshot show 2024-05-01 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshotShow,
}

var diffCmd = &cobra.Command{
	Use:   "diff [from] [to]",
	Short: "Show who started or stopped following between two snapshots",
	Long: `Compare two snapshots of the same account.

Without arguments the two newest snapshots are compared. With one date that
snapshot is compared to the newest one.`,
	Example: `  followsync diff
  followsync diff 2024-05-01
  followsync diff 2024-05-01 2024-06-01 --json`,
	Args: cobra.MaximumNArgs(2),
	RunE: runDiff,
}

var jsonOutput bool

func init() {
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(diffCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotShowCmd)

	for _, c := range []*cobra.Command{snapshotListCmd, snapshotShowCmd, diffCmd} {
		c.Flags().StringP("username", "u", "", "account whose snapshots to read")
	}
	snapshotShowCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
	diffCmd.Flags().BoolVar(&jsonOutput, "json", false, "print JSON")
}

// snapshotStore loads configuration and opens the snapshot store for the
// configured username
func snapshotStore(cmd *cobra.Command) (*snapshot.Store, string, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, "", err
	}
	if cfg.GitHub.Username == "" {
		return nil, "", errors.New("username is required (--username, USERNAME or github.username)")
	}
	return snapshot.NewStore(snapshotDir(cfg), cfg.Snapshot.CSV, logger.GetLogger()), cfg.GitHub.Username, nil
}

func runSnapshotList(cmd *cobra.Command, _ []string) error {
	store, username, err := snapshotStore(cmd)
	if err != nil {
		return err
	}

	dates, err := store.List(username)
	if err != nil {
		return err
	}

	console := newConsole()
	if len(dates) == 0 {
		console.Info("No snapshots", fmt.Sprintf("run 'followsync run --snapshot' to save one under %s", store.Root()))
		return nil
	}

	rows := make([][]string, 0, len(dates))
	for _, d := range dates {
		snap, err := store.Load(username, d)
		if err != nil {
			rows = append(rows, []string{d, "?", "?", "?"})
			continue
		}
		rows = append(rows, []string{
			d,
			strconv.Itoa(snap.Metadata.Followers),
			strconv.Itoa(snap.Metadata.Following),
			strconv.Itoa(snap.Metadata.Mutual),
		})
	}
	console.Heading("Snapshots of %s", username)
	console.Table([]string{"Date", "Followers", "Following", "Mutual"}, rows)
	return nil
}

func runSnapshotShow(cmd *cobra.Command, args []string) error {
	store, username, err := snapshotStore(cmd)
	if err != nil {
		return err
	}

	var snap *snapshot.Snapshot
	if len(args) == 1 {
		snap, err = store.Load(username, args[0])
	} else {
		snap, err = store.Latest(username)
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd, snap)
	}

	console := newConsole()
	console.Panel(fmt.Sprintf("%s on %s", snap.Username, snap.Date()), map[string]string{
		"Followers":     strconv.Itoa(snap.Metadata.Followers),
		"Following":     strconv.Itoa(snap.Metadata.Following),
		"Mutual":        strconv.Itoa(snap.Metadata.Mutual),
		"Not followed":  strconv.Itoa(snap.Metadata.FollowersOnly),
		"Not following": strconv.Itoa(snap.Metadata.FollowingOnly),
		"Run":           snap.RunID,
	})
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	store, username, err := snapshotStore(cmd)
	if err != nil {
		return err
	}

	prev, cur, err := diffPair(store, username, args)
	if err != nil {
		return err
	}
	diff := snapshot.Compare(prev, cur)

	if jsonOutput {
		return printJSON(cmd, diff)
	}
	printDiff(newConsole(), diff)
	return nil
}

func diffPair(store *snapshot.Store, username string, args []string) (prev, cur *snapshot.Snapshot, err error) {
	switch len(args) {
	case 0:
		return store.LatestPair(username)
	case 1:
		if prev, err = store.Load(username, args[0]); err != nil {
			return nil, nil, err
		}
		cur, err = store.Latest(username)
		return prev, cur, err
	default:
		if prev, err = store.Load(username, args[0]); err != nil {
			return nil, nil, err
		}
		cur, err = store.Load(username, args[1])
		return prev, cur, err
	}
}

func printDiff(console *ui.Console, d *snapshot.Diff) {
	console.Heading("Changes from %s to %s", d.From, d.To)
	if d.Empty() {
		console.Line("No changes in followers/following.")
		return
	}

	section := func(title string, users []string, mark func(string, ...interface{})) {
		if len(users) == 0 {
			return
		}
		console.Line("")
		console.Line("%s (%d):", title, len(users))
		for _, u := range users {
			mark("  %s", u)
		}
	}
	section("New followers", d.GainedFollowers, console.Success)
	section("Lost followers", d.LostFollowers, console.Failure)
	section("Started following", d.StartedFollowing, console.Success)
	section("Stopped following", d.StoppedFollowing, console.Failure)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
