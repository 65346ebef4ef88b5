// Package report tracks the outcome of each follow and unfollow in a run and
// delivers one consolidated report at the end of it, to a Discord webhook or
// as a desktop notification.
package report
