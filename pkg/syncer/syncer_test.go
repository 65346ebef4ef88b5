package syncer

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"followsync/pkg/github"
	"followsync/pkg/graph"
	"followsync/pkg/logger"
)

func newTestSyncer(t *testing.T, client GitHubClient, opts Options) (*Syncer, *recordingSleep, *linePrinter) {
	t.Helper()
	sleep := &recordingSleep{}
	printer := &linePrinter{}
	opts.Username = testAccount
	opts.Sleep = sleep.Sleep
	opts.Printer = printer
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Pacing == 0 {
		opts.Pacing = DefaultPacing
	}
	return New(client, opts), sleep, printer
}

func TestRun_FollowsBackAndUnfollows(t *testing.T) {
	srv := newTestServer(t)
	srv.SetFollowers("a", "b", "c")
	srv.SetFollowing("b", "c", "d")

	var seen []MutationResult
	phases := map[github.Action][]string{}
	s, sleep, printer := newTestSyncer(t, newTestClient(t, srv), Options{
		RunID:    "run-1",
		OnPhase:  func(a github.Action, targets []string) { phases[a] = targets },
		OnResult: func(r MutationResult) { seen = append(seen, r) },
	})

	sum, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, srv.CountRequests(http.MethodPut, "/user/following/a"))
	assert.Equal(t, 1, srv.CountRequests(http.MethodDelete, "/user/following/d"))
	assert.Equal(t, []string{"a", "b", "c"}, srv.FollowingLogins())

	assert.Equal(t, []string{"a"}, sum.FollowBack.Targets)
	assert.Equal(t, []string{"d"}, sum.Unfollow.Targets)
	assert.Equal(t, []string{"a"}, sum.FollowBack.Succeeded())
	assert.Equal(t, []string{"d"}, sum.Unfollow.Succeeded())
	assert.False(t, sum.Degraded())
	assert.Equal(t, "run-1", sum.RunID)
	require.Len(t, seen, 2)
	assert.Equal(t, map[github.Action][]string{
		github.ActionFollow:   {"a"},
		github.ActionUnfollow: {"d"},
	}, phases)

	// one target per phase: no pacing delay
	assert.Empty(t, sleep.Delays())

	assert.Equal(t, []string{
		"",
		"1 are left to followback",
		"List of users to follow:",
		"1. Followed a.",
		"Finished processing all non-following.",
		"You follow 1 people who don't follow you back.",
		"List of non-followers:",
		"1. Unfollowed d.",
		"Finished processing all non-followers.",
	}, printer.Lines())
}

func TestRun_RefetchesBetweenPhases(t *testing.T) {
	srv := newTestServer(t)
	srv.SetFollowers("a")
	srv.SetFollowing("z")

	s, _, _ := newTestSyncer(t, newTestClient(t, srv), Options{})
	sum, err := s.Run(context.Background())
	require.NoError(t, err)

	// two fetches of each listing, each a full page then an empty one
	assert.Equal(t, 4, srv.CountRequests(http.MethodGet, "/users/octo/followers"))
	assert.Equal(t, 4, srv.CountRequests(http.MethodGet, "/users/octo/following"))
	assert.True(t, sum.Following.Contains("a"))
	assert.Equal(t, []string{"z"}, sum.Unfollow.Targets)
	assert.Equal(t, []string{"a"}, srv.FollowingLogins())
}

func TestRun_EqualSetsDoNothing(t *testing.T) {
	srv := newTestServer(t)
	srv.SetFollowers("a", "b")
	srv.SetFollowing("a", "b")

	s, sleep, printer := newTestSyncer(t, newTestClient(t, srv), Options{})
	sum, err := s.Run(context.Background())
	require.NoError(t, err)

	for _, r := range srv.Requests() {
		assert.Equal(t, http.MethodGet, r.Method)
	}
	assert.Empty(t, sum.FollowBack.Results)
	assert.Empty(t, sum.Unfollow.Results)
	assert.Empty(t, sleep.Delays())
	assert.Equal(t, []string{
		"No one left to follow back",
		"You don't follow anyone who doesn't follow you back.",
	}, printer.Lines())
}

func TestRun_PacingBetweenTargets(t *testing.T) {
	srv := newTestServer(t)
	srv.SetFollowers("a", "b", "c")

	s, sleep, printer := newTestSyncer(t, newTestClient(t, srv), Options{})
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{DefaultPacing, DefaultPacing}, sleep.Delays())
	assert.Contains(t, printer.Lines(), "1. Followed a.")
	assert.Contains(t, printer.Lines(), "2. Followed b.")
	assert.Contains(t, printer.Lines(), "3. Followed c.")
}

func TestRun_FailedFollowIsRecordedAndRunContinues(t *testing.T) {
	srv := newTestServer(t)
	srv.SetFollowers("a", "b")
	srv.ScriptMutation("a", 500, 500, 500)

	s, sleep, printer := newTestSyncer(t, newTestClient(t, srv), Options{})
	sum, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, sum.FollowBack.Failed())
	assert.Equal(t, []string{"b"}, sum.FollowBack.Succeeded())
	assert.Equal(t, 1, sum.FollowBack.Failures())
	assert.True(t, sum.Degraded())

	// two retry delays for a, then one pacing delay before b
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second, DefaultPacing}, sleep.Delays())
	assert.Contains(t, printer.Lines(), "1. Failed to follow a.")
	assert.Contains(t, printer.Lines(), "2. Followed b.")
}

func TestRun_RateLimitMessage(t *testing.T) {
	srv := newTestServer(t)
	srv.SetFollowers("a")
	srv.ScriptMutation("a", 403, 204)

	s, sleep, printer := newTestSyncer(t, newTestClient(t, srv), Options{})
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{60 * time.Second}, sleep.Delays())
	assert.Contains(t, printer.Lines(), "Rate limit hit. Waiting before retrying...")
	assert.Contains(t, printer.Lines(), "1. Followed a.")
}

func TestRun_DryRunIssuesNoMutations(t *testing.T) {
	srv := newTestServer(t)
	srv.SetFollowers("a", "b")
	srv.SetFollowing("b", "c", "d")

	s, sleep, printer := newTestSyncer(t, newTestClient(t, srv), Options{DryRun: true})
	sum, err := s.Run(context.Background())
	require.NoError(t, err)

	for _, r := range srv.Requests() {
		assert.Equal(t, http.MethodGet, r.Method)
	}
	assert.Empty(t, sleep.Delays())
	assert.True(t, sum.DryRun)
	require.Len(t, sum.Unfollow.Results, 2)
	assert.Equal(t, Skipped, sum.Unfollow.Results[0].Outcome)
	assert.Contains(t, printer.Lines(), "1. Would follow a.")
	assert.Contains(t, printer.Lines(), "2. Would unfollow d.")
}

func TestRun_WhitelistNeverUnfollowed(t *testing.T) {
	srv := newTestServer(t)
	srv.SetFollowing("torvalds", "x")

	s, _, _ := newTestSyncer(t, newTestClient(t, srv), Options{Whitelist: []string{"torvalds"}})
	sum, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"torvalds"}, sum.Unfollow.Skipped)
	assert.Equal(t, []string{"x"}, sum.Unfollow.Targets)
	assert.Equal(t, 0, srv.CountRequests(http.MethodDelete, "/user/following/torvalds"))
	assert.Equal(t, []string{"torvalds"}, srv.FollowingLogins())
}

func TestRun_PartialFetchIsDegradedNotFatal(t *testing.T) {
	srv := newTestServer(t)
	srv.SetFollowers("a")
	srv.BreakPage("following", 1, `not json`)

	log := logger.NewTestLogger()
	s, _, _ := newTestSyncer(t, newTestClient(t, srv), Options{Logger: log})
	sum, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, sum.FetchFailures, 2)
	assert.Equal(t, github.Following, sum.FetchFailures[0].Kind)
	assert.Equal(t, 1, sum.FetchFailures[0].Page)
	assert.True(t, sum.Degraded())
	assert.True(t, log.HasMessage("listing fetch aborted, continuing with partial set"))
}

func TestRun_CancelledBetweenTargets(t *testing.T) {
	srv := newTestServer(t)
	srv.SetFollowers("a", "b", "c")
	ctx, cancel := context.WithCancel(context.Background())

	printer := &linePrinter{}
	s := New(newTestClient(t, srv), Options{
		Username: testAccount,
		Pacing:   time.Second,
		Printer:  printer,
		Logger:   logger.NewNopLogger(),
		Sleep: func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		},
	})

	sum, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, sum)
	assert.Len(t, sum.FollowBack.Results, 1)
	assert.Equal(t, 1, srv.CountRequests(http.MethodPut, "/user/following/a"))
	assert.Equal(t, 0, srv.CountRequests(http.MethodPut, "/user/following/b"))
}

func TestRun_RunIDOnLogs(t *testing.T) {
	srv := newTestServer(t)
	log := logger.NewTestLogger()

	s, _, _ := newTestSyncer(t, newTestClient(t, srv), Options{RunID: "abc", Logger: log})
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	msg, ok := log.FindMessage("Run metrics")
	require.True(t, ok)
	assert.Equal(t, "abc", msg.Fields["run_id"])
	assert.Equal(t, testAccount, msg.Fields["username"])
}

func TestSummary_FollowingAfter(t *testing.T) {
	sum := &Summary{
		Following: graph.NewSet("b", "c", "d"),
		Unfollow: PhaseResult{Results: []MutationResult{
			{Target: "c", Action: github.ActionUnfollow, Outcome: Succeeded},
			{Target: "d", Action: github.ActionUnfollow, Outcome: ExhaustedRetries},
		}},
	}
	assert.Equal(t, []string{"b", "d"}, sum.FollowingAfter().Sorted())
}
