// Package github is a small client for the GitHub REST endpoints followsync
// needs: the paginated followers/following listings of a user and the
// follow/unfollow mutations of the authenticated user.
//
// Responses are validated before use. A listing body that is not a JSON
// array of objects with a login is reported as an errors.ErrorTypeMalformed
// error rather than silently producing an empty page.
package github
