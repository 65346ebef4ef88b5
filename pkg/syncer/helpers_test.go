package syncer

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"followsync/internal/githubtest"
	"followsync/pkg/github"
	"followsync/pkg/logger"
)

const (
	testAccount = "octo"
	testToken   = "secret"
)

// recordingSleep records requested delays without waiting
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *recordingSleep) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

// linePrinter collects printed lines
type linePrinter struct {
	mu    sync.Mutex
	lines []string
}

func (p *linePrinter) add(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, fmt.Sprintf(format, args...))
}

func (p *linePrinter) Line(f string, a ...interface{})    { p.add(f, a...) }
func (p *linePrinter) Heading(f string, a ...interface{}) { p.add(f, a...) }
func (p *linePrinter) Success(f string, a ...interface{}) { p.add(f, a...) }
func (p *linePrinter) Failure(f string, a ...interface{}) { p.add(f, a...) }
func (p *linePrinter) Warning(f string, a ...interface{}) { p.add(f, a...) }

func (p *linePrinter) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.lines...)
}

func newTestClient(t *testing.T, srv *githubtest.Server) *github.Client {
	t.Helper()
	return github.NewClient(github.Options{
		BaseURL: srv.URL,
		Token:   testToken,
		Timeout: 5 * time.Second,
		Logger:  logger.NewNopLogger(),
	})
}

func newTestServer(t *testing.T) *githubtest.Server {
	t.Helper()
	srv := githubtest.New(testAccount, testToken)
	t.Cleanup(srv.Close)
	return srv
}

func logins(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%03d", prefix, i)
	}
	return out
}
