// Package ratelimit throttles requests to the GitHub API on the client side.
//
// Two limiters are available behind the Limiter interface:
//
//   - TokenBucket holds a burst of tokens and adds one per interval
//   - SlidingWindow allows a fixed number of requests in any rolling window
//
// Wait honours context cancellation, so a throttled run can be interrupted.
// Server-side rate limiting (HTTP 403) is still handled by the mutation retry
// policy; the limiter only spaces requests out ahead of time.
//
//	limiter, err := ratelimit.New("token_bucket", 60, 5)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
