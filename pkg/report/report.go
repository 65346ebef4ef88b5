package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// NoChangesMessage is sent when a run changed nothing
const NoChangesMessage = "No changes in followers/following today."

// Category is one list of the report
type Category struct {
	Count int      `json:"count"`
	Users []string `json:"users"`
}

func newCategory(users []string) Category {
	return Category{Count: len(users), Users: users}
}

// Report is the consolidated result of a run
type Report struct {
	RunID           string    `json:"run_id,omitempty"`
	Username        string    `json:"username"`
	DryRun          bool      `json:"dry_run"`
	GeneratedAt     time.Time `json:"generated_at"`
	Followed        Category  `json:"followed"`
	Unfollowed      Category  `json:"unfollowed"`
	FailedFollows   Category  `json:"failed_follows"`
	FailedUnfollows Category  `json:"failed_unfollows"`
}

// Build creates a report from the tracker's current contents
func (t *Tracker) Build(runID, username string, dryRun bool) *Report {
	followed, unfollowed, failedFollows, failedUnfollows := t.snapshot()
	return &Report{
		RunID:           runID,
		Username:        username,
		DryRun:          dryRun,
		GeneratedAt:     time.Now().UTC(),
		Followed:        newCategory(followed),
		Unfollowed:      newCategory(unfollowed),
		FailedFollows:   newCategory(failedFollows),
		FailedUnfollows: newCategory(failedUnfollows),
	}
}

// HasChanges reports whether any list is non-empty
func (r *Report) HasChanges() bool {
	return r.Followed.Count+r.Unfollowed.Count+r.FailedFollows.Count+r.FailedUnfollows.Count > 0
}

// Summary lists the non-empty categories with their counts
func (r *Report) Summary() string {
	categories := []struct {
		label string
		c     Category
	}{
		{"Followed", r.Followed},
		{"Unfollowed", r.Unfollowed},
		{"Failed to follow", r.FailedFollows},
		{"Failed to unfollow", r.FailedUnfollows},
	}

	var parts []string
	for _, cat := range categories {
		if cat.c.Count > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", cat.label, cat.c.Count))
		}
	}
	return strings.Join(parts, ", ")
}

// Title is the one-line headline of the report
func (r *Report) Title() string {
	if !r.HasChanges() {
		return NoChangesMessage
	}
	title := fmt.Sprintf("GitHub(%s) Report: %s", r.Username, r.Summary())
	if r.DryRun {
		title = "[dry run] " + title
	}
	return title
}

// JSON returns the indented JSON body of the four lists
func (r *Report) JSON() (string, error) {
	body := struct {
		Followed        Category `json:"followed"`
		Unfollowed      Category `json:"unfollowed"`
		FailedFollows   Category `json:"failed_follows"`
		FailedUnfollows Category `json:"failed_unfollows"`
	}{r.Followed, r.Unfollowed, r.FailedFollows, r.FailedUnfollows}

	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	return string(data), nil
}
