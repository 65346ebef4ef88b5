package github

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultBaseURL is the public GitHub REST API
const DefaultBaseURL = "https://api.github.com"

// ListURL builds GET /users/{account}/{kind}?per_page=n&page=p
func ListURL(baseURL, account string, kind ListKind, page, perPage int) string {
	params := url.Values{}
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))

	return fmt.Sprintf("%s/users/%s/%s?%s",
		strings.TrimRight(baseURL, "/"), url.PathEscape(account), kind, params.Encode())
}

// FollowingTargetURL builds /user/following/{target}
func FollowingTargetURL(baseURL, target string) string {
	return fmt.Sprintf("%s/user/following/%s", strings.TrimRight(baseURL, "/"), url.PathEscape(target))
}

// AuthenticatedUserURL builds /user
func AuthenticatedUserURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/user"
}
