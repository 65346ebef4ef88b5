// Package githubtest provides an in-process fake of the GitHub endpoints
// followsync uses, for tests.
package githubtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
)

// Request is one request received by the fake server
type Request struct {
	Method string
	Path   string
	Query  string
	Auth   string
}

// Server fakes the followers/following listings of one account and the
// follow/unfollow mutations of the authenticated user
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	account     string
	token       string
	followers   []string
	following   map[string]bool
	mutations   map[string][]int
	brokenPages map[string]string
	requests    []Request
}

// New starts a fake server for account. Requests must carry token when it is non-empty.
func New(account, token string) *Server {
	s := &Server{
		account:     account,
		token:       token,
		following:   make(map[string]bool),
		mutations:   make(map[string][]int),
		brokenPages: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{user}/{kind}", s.handleList)
	mux.HandleFunc("PUT /user/following/{target}", s.handleMutation)
	mux.HandleFunc("DELETE /user/following/{target}", s.handleMutation)
	mux.HandleFunc("GET /user", s.handleUser)

	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// SetFollowers replaces the account's followers
func (s *Server) SetFollowers(logins ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.followers = append([]string(nil), logins...)
}

// SetFollowing replaces the account's following
func (s *Server) SetFollowing(logins ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.following = make(map[string]bool, len(logins))
	for _, l := range logins {
		s.following[l] = true
	}
}

// FollowingLogins returns the account's current following, sorted
func (s *Server) FollowingLogins() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.following))
	for l := range s.following {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// ScriptMutation queues status codes answered to successive mutations on
// target. A 2xx applies the mutation. Once the queue is empty, 204 is used.
func (s *Server) ScriptMutation(target string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutations[target] = append(s.mutations[target], statuses...)
}

// BreakPage makes page of kind answer with body instead of a listing
func (s *Server) BreakPage(kind string, page int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brokenPages[fmt.Sprintf("%s:%d", kind, page)] = body
}

// Requests returns every request received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests counts requests matching method and path
func (s *Server) CountRequests(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
		})
		s.mu.Unlock()

		if s.token != "" && r.Header.Get("Authorization") != "token "+s.token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	if r.PathValue("user") != s.account || (kind != "followers" && kind != "following") {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 30
	}

	s.mu.Lock()
	body, broken := s.brokenPages[fmt.Sprintf("%s:%d", kind, page)]
	var all []string
	if kind == "followers" {
		all = append(all, s.followers...)
	} else {
		for l := range s.following {
			all = append(all, l)
		}
		sort.Strings(all)
	}
	s.mu.Unlock()

	if broken {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
		return
	}

	users := []map[string]interface{}{}
	start := (page - 1) * perPage
	for i := start; i < len(all) && i < start+perPage; i++ {
		users = append(users, map[string]interface{}{"login": all[i], "id": i + 1, "type": "User"})
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleMutation(w http.ResponseWriter, r *http.Request) {
	target := r.PathValue("target")

	s.mu.Lock()
	status := http.StatusNoContent
	if queue := s.mutations[target]; len(queue) > 0 {
		status = queue[0]
		s.mutations[target] = queue[1:]
	}
	if status >= 200 && status < 300 {
		if r.Method == http.MethodPut {
			s.following[target] = true
		} else {
			delete(s.following, target)
		}
	}
	s.mu.Unlock()

	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"login": s.account, "id": 1, "type": "User"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
