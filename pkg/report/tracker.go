package report

import (
	"sync"

	"followsync/pkg/github"
)

// Tracker records mutation outcomes in call order
type Tracker struct {
	mu              sync.Mutex
	followed        []string
	unfollowed      []string
	failedFollows   []string
	failedUnfollows []string
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Record files target under the list matching action and ok
func (t *Tracker) Record(action github.Action, target string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case action == github.ActionFollow && ok:
		t.followed = append(t.followed, target)
	case action == github.ActionFollow:
		t.failedFollows = append(t.failedFollows, target)
	case ok:
		t.unfollowed = append(t.unfollowed, target)
	default:
		t.failedUnfollows = append(t.failedUnfollows, target)
	}
}

// Empty reports whether nothing has been recorded
func (t *Tracker) Empty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.followed)+len(t.unfollowed)+len(t.failedFollows)+len(t.failedUnfollows) == 0
}

// Clear drops every recorded outcome
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.followed = nil
	t.unfollowed = nil
	t.failedFollows = nil
	t.failedUnfollows = nil
}

func (t *Tracker) snapshot() (followed, unfollowed, failedFollows, failedUnfollows []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return clone(t.followed), clone(t.unfollowed), clone(t.failedFollows), clone(t.failedUnfollows)
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
