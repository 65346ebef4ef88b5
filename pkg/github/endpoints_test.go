package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListURL(t *testing.T) {
	assert.Equal(t,
		"https://api.github.com/users/octocat/followers?page=2&per_page=100",
		ListURL(DefaultBaseURL, "octocat", Followers, 2, 100))
	assert.Equal(t,
		"http://127.0.0.1:9999/users/octocat/following?page=1&per_page=50",
		ListURL("http://127.0.0.1:9999/", "octocat", Following, 1, 50))
}

func TestFollowingTargetURL(t *testing.T) {
	assert.Equal(t, "https://api.github.com/user/following/some-user", FollowingTargetURL(DefaultBaseURL, "some-user"))
	assert.Equal(t, "https://api.github.com/user/following/a%2Fb", FollowingTargetURL(DefaultBaseURL, "a/b"))
}

func TestActionMethod(t *testing.T) {
	assert.Equal(t, "PUT", ActionFollow.Method())
	assert.Equal(t, "DELETE", ActionUnfollow.Method())
}
