// Package retry runs an operation a bounded number of times with a fixed,
// error-dependent delay between attempts.
//
// Delays go through a SleepFunc so they respect context cancellation and can
// be recorded in tests instead of slept:
//
//	err := retry.Do(ctx, func(ctx context.Context, attempt int) error {
//		return client.SetFollowing(ctx, "octocat", github.ActionFollow)
//	}, &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     retry.NewMutationBackoff(60*time.Second, 2*time.Second),
//	})
//
// A rate-limited failure waits the rate-limit delay; any other failure waits
// the failure delay. The final attempt is never followed by a delay.
package retry
