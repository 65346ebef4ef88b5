// Package syncer reconciles a GitHub account's following with its followers.
//
// A run fetches both listings page by page, follows back every follower the
// account does not follow, fetches again, and unfollows every account that
// does not follow back. Targets are processed serially with a pacing delay
// between them, and each mutation is retried a bounded number of times with
// a fixed delay chosen by the kind of failure.
//
// Fetch failures are not fatal: the fetcher returns the logins collected up to
// the failing page together with a *FetchError, and the run continues with
// that partial set.
package syncer
