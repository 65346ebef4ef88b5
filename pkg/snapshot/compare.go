package snapshot

import "followsync/pkg/graph"

// Diff lists the changes between two snapshots
type Diff struct {
	From             string   `json:"from"`
	To               string   `json:"to"`
	GainedFollowers  []string `json:"gained_followers"`
	LostFollowers    []string `json:"lost_followers"`
	StartedFollowing []string `json:"started_following"`
	StoppedFollowing []string `json:"stopped_following"`
}

// Empty reports whether nothing changed
func (d *Diff) Empty() bool {
	return len(d.GainedFollowers)+len(d.LostFollowers)+len(d.StartedFollowing)+len(d.StoppedFollowing) == 0
}

// Compare returns what changed from prev to cur
func Compare(prev, cur *Snapshot) *Diff {
	prevFollowers, curFollowers := graph.NewSet(prev.Followers...), graph.NewSet(cur.Followers...)
	prevFollowing, curFollowing := graph.NewSet(prev.Following...), graph.NewSet(cur.Following...)

	return &Diff{
		From:             prev.Date(),
		To:               cur.Date(),
		GainedFollowers:  curFollowers.Difference(prevFollowers).Sorted(),
		LostFollowers:    prevFollowers.Difference(curFollowers).Sorted(),
		StartedFollowing: curFollowing.Difference(prevFollowing).Sorted(),
		StoppedFollowing: prevFollowing.Difference(curFollowing).Sorted(),
	}
}
