package github

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"followsync/internal/githubtest"
	errs "followsync/pkg/errors"
	"followsync/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRoundTripper intercepts HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func newMockHTTPClient(handler func(req *http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{Transport: &mockRoundTripper{handler: handler}}
}

func newResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func newFakeClient(t *testing.T, srv *githubtest.Server, log logger.Logger) *Client {
	t.Helper()
	if log == nil {
		log = logger.NewNopLogger()
	}
	return NewClient(Options{
		BaseURL: srv.URL,
		Token:   "secret",
		Timeout: 5 * time.Second,
		Logger:  log,
	})
}

func TestNewClientHeaders(t *testing.T) {
	c := NewClient(Options{Token: "abc", UserAgent: "custom/1.0"})

	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, "token abc", c.headers["Authorization"])
	assert.Equal(t, "custom/1.0", c.headers["User-Agent"])
	assert.Equal(t, "application/vnd.github+json", c.headers["Accept"])

	anon := NewClient(Options{})
	_, ok := anon.headers["Authorization"]
	assert.False(t, ok)
}

func TestListPage(t *testing.T) {
	srv := githubtest.New("octocat", "secret")
	defer srv.Close()
	srv.SetFollowers("a", "b", "c")

	c := newFakeClient(t, srv, nil)

	logins, err := c.ListPage(context.Background(), "octocat", Followers, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, logins)

	logins, err = c.ListPage(context.Background(), "octocat", Followers, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, logins)

	logins, err = c.ListPage(context.Background(), "octocat", Followers, 3, 2)
	require.NoError(t, err)
	assert.Empty(t, logins)

	reqs := srv.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "/users/octocat/followers", reqs[0].Path)
	assert.Equal(t, "page=1&per_page=2", reqs[0].Query)
	assert.Equal(t, "token secret", reqs[0].Auth)
}

func TestListPageMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"object instead of array", `{"message":"weird"}`},
		{"null body", `null`},
		{"missing login", `[{"login":"a"},{"id":2}]`},
		{"not json", `<html>oops</html>`},
		{"null element", `[null]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := githubtest.New("octocat", "")
			defer srv.Close()
			srv.BreakPage("following", 1, tt.body)

			log := logger.NewTestLogger()
			c := newFakeClient(t, srv, log)

			_, err := c.ListPage(context.Background(), "octocat", Following, 1, 100)
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.ErrorTypeMalformed), "got %v", err)

			msg, ok := log.FindMessage("malformed listing response")
			require.True(t, ok)
			assert.Equal(t, 1, msg.Fields["page"])
			assert.Equal(t, "octocat", msg.Fields["account"])
		})
	}
}

func TestListPageStatusErrors(t *testing.T) {
	tests := []struct {
		status   int
		wantType errs.ErrorType
	}{
		{http.StatusUnauthorized, errs.ErrorTypeAuth},
		{http.StatusForbidden, errs.ErrorTypeRateLimit},
		{http.StatusNotFound, errs.ErrorTypeNotFound},
		{http.StatusBadGateway, errs.ErrorTypeServerError},
		{http.StatusTeapot, errs.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := NewClient(Options{
				Logger: logger.NewNopLogger(),
				HTTPClient: newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
					return newResponse(tt.status, `{"message":"nope"}`), nil
				}),
			})

			_, err := c.ListPage(context.Background(), "octocat", Followers, 1, 100)
			var apiErr *errs.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantType, apiErr.Type)
			assert.Equal(t, tt.status, apiErr.Code)
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestTransportErrorIsNetwork(t *testing.T) {
	c := NewClient(Options{
		Logger: logger.NewNopLogger(),
		HTTPClient: newMockHTTPClient(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection reset")
		}),
	})

	_, err := c.ListPage(context.Background(), "octocat", Followers, 1, 100)
	assert.True(t, errs.Is(err, errs.ErrorTypeNetwork))

	err = c.SetFollowing(context.Background(), "x", ActionFollow)
	assert.True(t, errs.Is(err, errs.ErrorTypeNetwork))
}

func TestCancelledContextIsNotNetworkError(t *testing.T) {
	srv := githubtest.New("octocat", "")
	defer srv.Close()
	c := newFakeClient(t, srv, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListPage(ctx, "octocat", Followers, 1, 100)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSetFollowing(t *testing.T) {
	srv := githubtest.New("octocat", "secret")
	defer srv.Close()
	srv.SetFollowing("d")
	c := newFakeClient(t, srv, nil)

	require.NoError(t, c.SetFollowing(context.Background(), "a", ActionFollow))
	require.NoError(t, c.SetFollowing(context.Background(), "d", ActionUnfollow))
	assert.Equal(t, []string{"a"}, srv.FollowingLogins())

	assert.Equal(t, 1, srv.CountRequests(http.MethodPut, "/user/following/a"))
	assert.Equal(t, 1, srv.CountRequests(http.MethodDelete, "/user/following/d"))
}

func TestSetFollowingStatuses(t *testing.T) {
	srv := githubtest.New("octocat", "")
	defer srv.Close()
	srv.ScriptMutation("a", http.StatusForbidden, http.StatusInternalServerError, http.StatusOK)
	c := newFakeClient(t, srv, nil)

	err := c.SetFollowing(context.Background(), "a", ActionFollow)
	assert.True(t, errs.Is(err, errs.ErrorTypeRateLimit))

	err = c.SetFollowing(context.Background(), "a", ActionFollow)
	assert.True(t, errs.Is(err, errs.ErrorTypeServerError))

	assert.NoError(t, c.SetFollowing(context.Background(), "a", ActionFollow))
}

func TestBadCredentials(t *testing.T) {
	srv := githubtest.New("octocat", "right")
	defer srv.Close()
	c := NewClient(Options{BaseURL: srv.URL, Token: "wrong", Logger: logger.NewNopLogger()})

	_, err := c.AuthenticatedUser(context.Background())
	assert.True(t, errs.Is(err, errs.ErrorTypeAuth))
}

func TestAuthenticatedUser(t *testing.T) {
	srv := githubtest.New("octocat", "secret")
	defer srv.Close()
	c := newFakeClient(t, srv, nil)

	u, err := c.AuthenticatedUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octocat", u.Login)
}
