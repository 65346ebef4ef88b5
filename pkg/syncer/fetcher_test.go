package syncer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "followsync/pkg/errors"
	"followsync/pkg/github"
	"followsync/pkg/logger"
)

func TestFetchAll_Paginates(t *testing.T) {
	srv := newTestServer(t)
	srv.SetFollowers(logins("user", 137)...)

	f := NewFetcher(newTestClient(t, srv), logger.NewNopLogger())
	set, err := f.FetchAll(context.Background(), testAccount, github.Followers)

	require.NoError(t, err)
	assert.Equal(t, 137, set.Len())
	assert.Equal(t, 3, srv.CountRequests("GET", "/users/octo/followers"))
}

func TestFetchAll_EmptyFirstPage(t *testing.T) {
	srv := newTestServer(t)

	f := NewFetcher(newTestClient(t, srv), logger.NewNopLogger())
	set, err := f.FetchAll(context.Background(), testAccount, github.Following)

	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.Equal(t, 1, srv.CountRequests("GET", "/users/octo/following"))
}

func TestFetchAll_QueryParameters(t *testing.T) {
	srv := newTestServer(t)
	srv.SetFollowers("a")

	f := NewFetcher(newTestClient(t, srv), logger.NewNopLogger())
	_, err := f.FetchAll(context.Background(), testAccount, github.Followers)
	require.NoError(t, err)

	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "page=1&per_page=100", reqs[0].Query)
	assert.Equal(t, "page=2&per_page=100", reqs[1].Query)
	assert.Equal(t, "token "+testToken, reqs[0].Auth)
}

func TestFetchAll_MalformedPageReturnsPartialSet(t *testing.T) {
	srv := newTestServer(t)
	srv.SetFollowers(logins("user", 150)...)
	srv.BreakPage("followers", 2, `{"message":"oops"}`)

	log := logger.NewTestLogger()
	f := NewFetcher(newTestClient(t, srv), log)
	set, err := f.FetchAll(context.Background(), testAccount, github.Followers)

	require.Error(t, err)
	assert.Equal(t, 100, set.Len())

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, testAccount, fe.Account)
	assert.Equal(t, github.Followers, fe.Kind)
	assert.Equal(t, 2, fe.Page)
	assert.True(t, errs.Is(err, errs.ErrorTypeMalformed))

	msg, ok := log.FindMessage("listing fetch aborted, continuing with partial set")
	require.True(t, ok)
	assert.Equal(t, "WARN", msg.Level)
	assert.Equal(t, 2, msg.Fields["page"])
	assert.Equal(t, testAccount, msg.Fields["account"])
}

func TestFetchAll_ElementWithoutLogin(t *testing.T) {
	srv := newTestServer(t)
	srv.BreakPage("following", 1, `[{"id":1}]`)

	f := NewFetcher(newTestClient(t, srv), logger.NewNopLogger())
	set, err := f.FetchAll(context.Background(), testAccount, github.Following)

	assert.True(t, errs.Is(err, errs.ErrorTypeMalformed))
	assert.Equal(t, 0, set.Len())
}

func TestFetchAll_TransportError(t *testing.T) {
	srv := newTestServer(t)
	client := newTestClient(t, srv)
	srv.Close()

	f := NewFetcher(client, logger.NewNopLogger())
	set, err := f.FetchAll(context.Background(), testAccount, github.Followers)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Page)
	assert.True(t, errs.Is(err, errs.ErrorTypeNetwork))
	assert.Equal(t, 0, set.Len())
}
