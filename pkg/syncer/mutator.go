package syncer

import (
	"context"
	"errors"
	"time"

	errs "followsync/pkg/errors"
	"followsync/pkg/github"
	"followsync/pkg/logger"
	"followsync/pkg/retry"
)

// RetryOutcome is the terminal result of a mutation
type RetryOutcome string

const (
	Succeeded        RetryOutcome = "succeeded"
	ExhaustedRetries RetryOutcome = "exhausted_retries"
	Skipped          RetryOutcome = "skipped"
)

// RetryPolicy configures the mutation retrier
type RetryPolicy struct {
	MaxAttempts    int
	RateLimitDelay time.Duration
	FailureDelay   time.Duration
}

// DefaultRetryPolicy is 3 attempts, 60s after a 403, 2s after anything else
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		RateLimitDelay: 60 * time.Second,
		FailureDelay:   2 * time.Second,
	}
}

// MutationResult records one follow or unfollow target
type MutationResult struct {
	Target   string
	Action   github.Action
	Outcome  RetryOutcome
	Attempts int
	Err      error
}

// OK reports whether the mutation took effect
func (r MutationResult) OK() bool {
	return r.Outcome == Succeeded
}

// Mutator applies follow/unfollow calls with bounded fixed-delay retry
type Mutator struct {
	client      GitHubClient
	policy      RetryPolicy
	sleep       retry.SleepFunc
	onRateLimit func(target string, delay time.Duration)
	logger      logger.Logger
}

// NewMutator creates a mutator. sleep defaults to retry.Wait.
func NewMutator(client GitHubClient, policy RetryPolicy, sleep retry.SleepFunc, log logger.Logger) *Mutator {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultRetryPolicy().MaxAttempts
	}
	if sleep == nil {
		sleep = retry.Wait
	}
	return &Mutator{client: client, policy: policy, sleep: sleep, logger: logger.OrDefault(log)}
}

// OnRateLimit registers a callback invoked for every rate-limited attempt.
// delay is the backoff about to be waited, zero after the last attempt.
func (m *Mutator) OnRateLimit(fn func(target string, delay time.Duration)) {
	m.onRateLimit = fn
}

func (m *Mutator) rateLimited(log logger.Logger, target string, delay time.Duration) {
	logger.LogRateLimit(log, target, delay)
	if m.onRateLimit != nil {
		m.onRateLimit(target, delay)
	}
}

// Apply attempts action on target. 2xx ends immediately with Succeeded;
// 403 waits RateLimitDelay, any other failure waits FailureDelay. No delay
// follows the last attempt.
func (m *Mutator) Apply(ctx context.Context, target string, action github.Action) MutationResult {
	res := MutationResult{Target: target, Action: action}
	log := m.logger.WithFields(map[string]interface{}{
		"target": target,
		"action": string(action),
	})

	err := retry.Do(ctx, func(ctx context.Context, attempt int) error {
		res.Attempts = attempt
		err := m.client.SetFollowing(ctx, target, action)
		if attempt == m.policy.MaxAttempts && errs.Is(err, errs.ErrorTypeRateLimit) {
			// last attempt: reported, but nothing is waited
			m.rateLimited(log, target, 0)
		}
		return err
	}, &retry.Config{
		MaxAttempts: m.policy.MaxAttempts,
		Backoff:     retry.NewMutationBackoff(m.policy.RateLimitDelay, m.policy.FailureDelay),
		RetryIf: func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		},
		OnRetry: func(attempt int, err error, delay time.Duration) {
			if errs.Is(err, errs.ErrorTypeRateLimit) {
				m.rateLimited(log, target, delay)
			}
		},
		Sleep:  m.sleep,
		Logger: log,
	})

	if err == nil {
		res.Outcome = Succeeded
	} else {
		res.Outcome = ExhaustedRetries
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			res.Err = exhausted.Last
		} else {
			res.Err = err
		}
	}

	logger.LogMutation(m.logger, string(action), target, res.Attempts, res.OK(), res.Err)
	return res
}

// Follow applies ActionFollow and reports success
func (m *Mutator) Follow(ctx context.Context, target string) bool {
	return m.Apply(ctx, target, github.ActionFollow).OK()
}

// Unfollow applies ActionUnfollow and reports success
func (m *Mutator) Unfollow(ctx context.Context, target string) bool {
	return m.Apply(ctx, target, github.ActionUnfollow).OK()
}
