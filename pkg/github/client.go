package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "followsync/pkg/errors"
	"followsync/pkg/logger"
	"followsync/pkg/ratelimit"
)

const maxBodyBytes = 10 << 20

// Options configures a Client
type Options struct {
	BaseURL    string
	Token      string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Limiter    ratelimit.Limiter
	Logger     logger.Logger
}

// Client talks to the GitHub REST API on behalf of one token
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a client. The authorization header is built here once
// and sent unchanged with every request.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	headers := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
		"User-Agent":           "followsync",
	}
	if opts.UserAgent != "" {
		headers["User-Agent"] = opts.UserAgent
	}
	if opts.Token != "" {
		headers["Authorization"] = "token " + opts.Token
	}

	return &Client{
		httpClient: httpClient,
		headers:    headers,
		baseURL:    baseURL,
		limiter:    limiter,
		logger:     logger.OrDefault(opts.Logger),
	}
}

// BaseURL returns the API root the client targets
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest throttles, sets the configured headers, and sends req
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "network error")
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration)
	return resp, nil
}

// statusError converts a non-2xx response into a typed error
func statusError(resp *http.Response) error {
	if errs.IsSuccessStatus(resp.StatusCode) {
		return nil
	}

	var apiMsg struct {
		Message string `json:"message"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := http.StatusText(resp.StatusCode)
	if json.Unmarshal(body, &apiMsg) == nil && apiMsg.Message != "" {
		msg = apiMsg.Message
	}

	return errs.New(errs.FromStatus(resp.StatusCode), resp.StatusCode, msg)
}

// getJSON performs a GET and returns the raw body of a 2xx response
func (c *Client) getJSON(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := statusError(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeNetwork, err, "failed to read response body")
	}
	return body, nil
}

// ListPage fetches one page of an account's followers or following and
// returns the logins on it. An empty slice means the listing is exhausted.
func (c *Client) ListPage(ctx context.Context, account string, kind ListKind, page, perPage int) ([]string, error) {
	url := ListURL(c.baseURL, account, kind, page, perPage)

	body, err := c.getJSON(ctx, url)
	if err != nil {
		return nil, err
	}

	logins, err := decodeLogins(body)
	if err != nil {
		c.logger.ErrorWithFields("malformed listing response", map[string]interface{}{
			"account":      account,
			"kind":         string(kind),
			"page":         page,
			"error":        err.Error(),
			"body_preview": preview(body),
		})
		return nil, err
	}

	logger.LogPageFetched(c.logger, account, string(kind), page, len(logins))
	return logins, nil
}

// decodeLogins validates a listing body: a JSON array whose elements all
// carry a non-empty login
func decodeLogins(body []byte) ([]string, error) {
	var users []*User
	if err := json.Unmarshal(bytes.TrimSpace(body), &users); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeMalformed, err, "listing is not an array of users")
	}
	if users == nil {
		return nil, errs.New(errs.ErrorTypeMalformed, http.StatusOK, "listing body is null")
	}

	logins := make([]string, 0, len(users))
	for i, u := range users {
		if u == nil || u.Login == "" {
			return nil, errs.New(errs.ErrorTypeMalformed, http.StatusOK, fmt.Sprintf("element %d has no login", i))
		}
		logins = append(logins, u.Login)
	}
	return logins, nil
}

// SetFollowing follows (PUT) or unfollows (DELETE) target as the token owner.
// Any 2xx status is success; other statuses return a typed error carrying the code.
func (c *Client) SetFollowing(ctx context.Context, target string, action Action) error {
	url := FollowingTargetURL(c.baseURL, target)

	req, err := http.NewRequestWithContext(ctx, action.Method(), url, nil)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, err, "failed to create request")
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	defer io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	return statusError(resp)
}

// AuthenticatedUser returns the owner of the token
func (c *Client) AuthenticatedUser(ctx context.Context) (*User, error) {
	body, err := c.getJSON(ctx, AuthenticatedUserURL(c.baseURL))
	if err != nil {
		return nil, err
	}

	var u User
	if err := json.Unmarshal(body, &u); err != nil || u.Login == "" {
		return nil, errs.New(errs.ErrorTypeMalformed, http.StatusOK, "user response has no login")
	}
	return &u, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
