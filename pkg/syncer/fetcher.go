package syncer

import (
	"context"
	"fmt"

	"followsync/pkg/github"
	"followsync/pkg/graph"
	"followsync/pkg/logger"
)

// PageSize is the number of logins requested per listing page
const PageSize = 100

// FetchError reports where a listing fetch stopped
type FetchError struct {
	Account string
	Kind    github.ListKind
	Page    int
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s of %s stopped at page %d: %v", e.Kind, e.Account, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher collects a complete followers or following set page by page
type Fetcher struct {
	client GitHubClient
	logger logger.Logger
}

// NewFetcher creates a fetcher requesting PageSize logins per page
func NewFetcher(client GitHubClient, log logger.Logger) *Fetcher {
	return &Fetcher{client: client, logger: logger.OrDefault(log)}
}

// FetchAll requests pages 1, 2, ... until an empty page. If a page fails,
// the logins gathered so far are returned together with a *FetchError.
func (f *Fetcher) FetchAll(ctx context.Context, account string, kind github.ListKind) (graph.Set, error) {
	set := graph.NewSet()

	for page := 1; ; page++ {
		logins, err := f.client.ListPage(ctx, account, kind, page, PageSize)
		if err != nil {
			f.logger.WithError(err).WarnWithFields("listing fetch aborted, continuing with partial set", map[string]interface{}{
				"account":   account,
				"kind":      string(kind),
				"page":      page,
				"collected": set.Len(),
			})
			return set, &FetchError{Account: account, Kind: kind, Page: page, Err: err}
		}
		if len(logins) == 0 {
			f.logger.DebugWithFields("listing complete", map[string]interface{}{
				"account": account,
				"kind":    string(kind),
				"pages":   page,
				"total":   set.Len(),
			})
			return set, nil
		}
		for _, l := range logins {
			set.Add(l)
		}
	}
}
