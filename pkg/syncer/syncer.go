package syncer

import (
	"context"
	"errors"
	"time"

	"followsync/pkg/github"
	"followsync/pkg/graph"
	"followsync/pkg/logger"
	"followsync/pkg/retry"
)

// DefaultPacing is the pause between consecutive targets of a phase
const DefaultPacing = 2 * time.Second

// Options configures a Syncer
type Options struct {
	Username  string
	Pacing    time.Duration
	Retry     RetryPolicy
	DryRun    bool
	Whitelist []string
	RunID     string

	// Sleep performs pacing and retry delays; defaults to retry.Wait
	Sleep   retry.SleepFunc
	Logger  logger.Logger
	Printer Printer
	// OnPhase is called before the first target of a phase
	OnPhase func(action github.Action, targets []string)
	// OnResult is called after each target is processed
	OnResult func(MutationResult)
}

// PhaseResult holds the targets and outcomes of one phase
type PhaseResult struct {
	Targets []string
	Results []MutationResult
	// Skipped lists whitelisted targets left untouched
	Skipped []string
}

// Failures counts targets that exhausted their retries
func (p PhaseResult) Failures() int {
	n := 0
	for _, r := range p.Results {
		if r.Outcome == ExhaustedRetries {
			n++
		}
	}
	return n
}

// Succeeded returns the targets that were mutated
func (p PhaseResult) Succeeded() []string {
	var out []string
	for _, r := range p.Results {
		if r.Outcome == Succeeded {
			out = append(out, r.Target)
		}
	}
	return out
}

// Failed returns the targets that exhausted their retries
func (p PhaseResult) Failed() []string {
	var out []string
	for _, r := range p.Results {
		if r.Outcome == ExhaustedRetries {
			out = append(out, r.Target)
		}
	}
	return out
}

// Summary describes a completed run
type Summary struct {
	RunID      string
	Username   string
	DryRun     bool
	StartedAt  time.Time
	FinishedAt time.Time

	FollowBack PhaseResult
	Unfollow   PhaseResult

	// FetchFailures lists every listing fetch that returned a partial set
	FetchFailures []*FetchError

	// Followers and Following are the sets observed by the final fetch
	Followers graph.Set
	Following graph.Set
}

// Degraded reports whether any fetch was partial or any mutation failed
func (s *Summary) Degraded() bool {
	return len(s.FetchFailures) > 0 || s.FollowBack.Failures() > 0 || s.Unfollow.Failures() > 0
}

// FollowingAfter returns Following with the unfollows of this run applied
func (s *Summary) FollowingAfter() graph.Set {
	return s.Following.Difference(graph.NewSet(s.Unfollow.Succeeded()...))
}

// Duration returns the wall time of the run
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Syncer runs the two reconciliation phases for one account
type Syncer struct {
	opts    Options
	fetcher *Fetcher
	mutator *Mutator
	skip    graph.Set
	printer Printer
	logger  logger.Logger
	now     func() time.Time
}

// New creates a Syncer over client
func New(client GitHubClient, opts Options) *Syncer {
	if opts.Pacing < 0 {
		opts.Pacing = 0
	}
	if opts.Sleep == nil {
		opts.Sleep = retry.Wait
	}
	if opts.Retry == (RetryPolicy{}) {
		opts.Retry = DefaultRetryPolicy()
	}

	log := logger.OrDefault(opts.Logger)
	if opts.RunID != "" {
		log = log.WithField("run_id", opts.RunID)
	}
	log = log.WithField("username", opts.Username)

	printer := opts.Printer
	if printer == nil {
		printer = nopPrinter{}
	}

	m := NewMutator(client, opts.Retry, opts.Sleep, log)
	m.OnRateLimit(func(string, time.Duration) {
		printer.Warning("Rate limit hit. Waiting before retrying...")
	})

	return &Syncer{
		opts:    opts,
		fetcher: NewFetcher(client, log),
		mutator: m,
		skip:    graph.NewSet(opts.Whitelist...),
		printer: printer,
		logger:  log,
		now:     time.Now,
	}
}

// Run fetches both sets, follows back followers not yet followed, re-fetches,
// then unfollows accounts that do not follow back. Targets are processed one
// at a time with the pacing delay between them. Per-target failures and
// partial fetches are recorded in the summary; an error is returned only when
// ctx is cancelled, together with the summary so far.
func (s *Syncer) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{
		RunID:     s.opts.RunID,
		Username:  s.opts.Username,
		DryRun:    s.opts.DryRun,
		StartedAt: s.now(),
	}
	defer func() { sum.FinishedAt = s.now() }()

	logger.LogComponentStart(s.logger, "syncer", map[string]interface{}{
		"dry_run":   s.opts.DryRun,
		"pacing":    s.opts.Pacing,
		"whitelist": len(s.skip),
	})

	followers, following := s.fetchBoth(ctx, sum)
	if err := ctx.Err(); err != nil {
		return sum, err
	}

	targets := graph.UsersToFollowBack(followers, following).Sorted()
	sum.FollowBack.Targets = targets
	if len(targets) == 0 {
		s.printer.Line("No one left to follow back")
	} else {
		s.printer.Line("")
		s.printer.Heading("%d are left to followback", len(targets))
		s.printer.Line("List of users to follow:")
		if err := s.runPhase(ctx, github.ActionFollow, targets, &sum.FollowBack); err != nil {
			return sum, err
		}
		s.printer.Line("Finished processing all non-following.")
	}

	followers, following = s.fetchBoth(ctx, sum)
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	sum.Followers, sum.Following = followers, following

	unfollow := graph.UsersToUnfollow(following, followers)
	kept := unfollow.Intersection(s.skip)
	if kept.Len() > 0 {
		sum.Unfollow.Skipped = kept.Sorted()
		s.logger.InfoWithFields("whitelisted accounts will not be unfollowed", map[string]interface{}{
			"skipped": sum.Unfollow.Skipped,
		})
	}
	targets = unfollow.Difference(s.skip).Sorted()
	sum.Unfollow.Targets = targets
	if len(targets) == 0 {
		s.printer.Line("You don't follow anyone who doesn't follow you back.")
	} else {
		s.printer.Heading("You follow %d people who don't follow you back.", len(targets))
		s.printer.Line("List of non-followers:")
		if err := s.runPhase(ctx, github.ActionUnfollow, targets, &sum.Unfollow); err != nil {
			return sum, err
		}
		s.printer.Line("Finished processing all non-followers.")
	}

	logger.LogMetrics(s.logger, "run", map[string]interface{}{
		"followers":        followers.Len(),
		"following":        following.Len(),
		"followed":         len(sum.FollowBack.Succeeded()),
		"unfollowed":       len(sum.Unfollow.Succeeded()),
		"failed_follows":   sum.FollowBack.Failures(),
		"failed_unfollows": sum.Unfollow.Failures(),
		"fetch_failures":   len(sum.FetchFailures),
	})
	logger.LogComponentStop(s.logger, "syncer", "completed")
	return sum, nil
}

// fetchBoth fetches following then followers, recording partial fetches
func (s *Syncer) fetchBoth(ctx context.Context, sum *Summary) (followers, following graph.Set) {
	following = s.fetch(ctx, github.Following, sum)
	followers = s.fetch(ctx, github.Followers, sum)
	return followers, following
}

func (s *Syncer) fetch(ctx context.Context, kind github.ListKind, sum *Summary) graph.Set {
	set, err := s.fetcher.FetchAll(ctx, s.opts.Username, kind)
	var fe *FetchError
	if errors.As(err, &fe) && ctx.Err() == nil {
		sum.FetchFailures = append(sum.FetchFailures, fe)
	}
	return set
}

// runPhase processes targets in order with a 1-based sequence number
func (s *Syncer) runPhase(ctx context.Context, action github.Action, targets []string, phase *PhaseResult) error {
	if s.opts.OnPhase != nil {
		s.opts.OnPhase(action, targets)
	}
	for i, target := range targets {
		if i > 0 && !s.opts.DryRun {
			if err := s.opts.Sleep(ctx, s.opts.Pacing); err != nil {
				return err
			}
		}

		n := i + 1
		var res MutationResult
		if s.opts.DryRun {
			res = MutationResult{Target: target, Action: action, Outcome: Skipped}
			s.printer.Line("%d. Would %s %s.", n, action, target)
		} else {
			res = s.mutator.Apply(ctx, target, action)
			if err := ctx.Err(); err != nil {
				return err
			}
			s.printResult(n, res)
		}

		phase.Results = append(phase.Results, res)
		if s.opts.OnResult != nil {
			s.opts.OnResult(res)
		}
	}
	return nil
}

func (s *Syncer) printResult(n int, res MutationResult) {
	switch {
	case res.OK() && res.Action == github.ActionFollow:
		s.printer.Success("%d. Followed %s.", n, res.Target)
	case res.OK():
		s.printer.Success("%d. Unfollowed %s.", n, res.Target)
	case res.Action == github.ActionFollow:
		s.printer.Failure("%d. Failed to follow %s.", n, res.Target)
	default:
		s.printer.Failure("%d. Failed to unfollow %s.", n, res.Target)
	}
}
