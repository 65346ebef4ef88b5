package syncer

import (
	"context"

	"followsync/pkg/github"
)

// GitHubClient is the subset of the GitHub API a run needs
type GitHubClient interface {
	ListPage(ctx context.Context, account string, kind github.ListKind, page, perPage int) ([]string, error)
	SetFollowing(ctx context.Context, target string, action github.Action) error
}

// Printer receives the human-readable progress lines of a run
type Printer interface {
	Line(format string, args ...interface{})
	Heading(format string, args ...interface{})
	Success(format string, args ...interface{})
	Failure(format string, args ...interface{})
	Warning(format string, args ...interface{})
}

type nopPrinter struct{}

func (nopPrinter) Line(string, ...interface{})    {}
func (nopPrinter) Heading(string, ...interface{}) {}
func (nopPrinter) Success(string, ...interface{}) {}
func (nopPrinter) Failure(string, ...interface{}) {}
func (nopPrinter) Warning(string, ...interface{}) {}
