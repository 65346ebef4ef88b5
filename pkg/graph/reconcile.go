package graph

// UsersToFollowBack returns followers the account does not follow yet
func UsersToFollowBack(followers, following Set) Set {
	return followers.Difference(following)
}

// UsersToUnfollow returns accounts followed that do not follow back
func UsersToUnfollow(following, followers Set) Set {
	return following.Difference(followers)
}

// Stats summarizes the overlap of the two sets
type Stats struct {
	Followers     int `json:"followers_count"`
	Following     int `json:"following_count"`
	Mutual        int `json:"mutual_count"`
	FollowersOnly int `json:"followers_only_count"`
	FollowingOnly int `json:"following_only_count"`
}

// Summarize computes Stats for a followers/following pair
func Summarize(followers, following Set) Stats {
	return Stats{
		Followers:     followers.Len(),
		Following:     following.Len(),
		Mutual:        followers.Intersection(following).Len(),
		FollowersOnly: UsersToFollowBack(followers, following).Len(),
		FollowingOnly: UsersToUnfollow(following, followers).Len(),
	}
}
