package github

// ListKind selects one of the two relationship listings of an account
type ListKind string

const (
	Followers ListKind = "followers"
	Following ListKind = "following"
)

// Action is a relationship mutation
type Action string

const (
	ActionFollow   Action = "follow"
	ActionUnfollow Action = "unfollow"
)

// Method returns the HTTP method that applies the action
func (a Action) Method() string {
	if a == ActionUnfollow {
		return "DELETE"
	}
	return "PUT"
}

// User is the subset of a GitHub user object followsync reads
type User struct {
	Login string `json:"login"`
	ID    int64  `json:"id,omitempty"`
	Type  string `json:"type,omitempty"`
}
