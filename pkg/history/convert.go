package history

import "followsync/pkg/syncer"

// FromSummary converts a finished run into records
func FromSummary(sum *syncer.Summary) (*RunRecord, []MutationRecord) {
	run := &RunRecord{
		RunID:           sum.RunID,
		Username:        sum.Username,
		StartedAt:       sum.StartedAt,
		FinishedAt:      sum.FinishedAt,
		DryRun:          sum.DryRun,
		Followers:       sum.Followers.Len(),
		Following:       sum.FollowingAfter().Len(),
		Followed:        len(sum.FollowBack.Succeeded()),
		Unfollowed:      len(sum.Unfollow.Succeeded()),
		FailedFollows:   sum.FollowBack.Failures(),
		FailedUnfollows: sum.Unfollow.Failures(),
		FetchFailures:   len(sum.FetchFailures),
	}

	var mutations []MutationRecord
	for _, phase := range []syncer.PhaseResult{sum.FollowBack, sum.Unfollow} {
		for _, r := range phase.Results {
			m := MutationRecord{
				RunID:    sum.RunID,
				Target:   r.Target,
				Action:   string(r.Action),
				Outcome:  string(r.Outcome),
				Attempts: r.Attempts,
			}
			if r.Err != nil {
				m.Error = r.Err.Error()
			}
			mutations = append(mutations, m)
		}
	}
	return run, mutations
}
