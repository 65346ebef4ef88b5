// Package graph holds the username sets of a follow graph and the
// reconciliation between them.
package graph

import "sort"

// Set is an unordered set of case-sensitive usernames
type Set map[string]struct{}

// NewSet builds a set from logins, dropping duplicates
func NewSet(logins ...string) Set {
	s := make(Set, len(logins))
	for _, l := range logins {
		s.Add(l)
	}
	return s
}

// Add inserts login
func (s Set) Add(login string) {
	s[login] = struct{}{}
}

// Contains reports whether login is in the set
func (s Set) Contains(login string) bool {
	_, ok := s[login]
	return ok
}

// Len returns the number of usernames
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the usernames in ascending order
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Difference returns the usernames of s that are not in other
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for l := range s {
		if !other.Contains(l) {
			out.Add(l)
		}
	}
	return out
}

// Intersection returns the usernames present in both sets
func (s Set) Intersection(other Set) Set {
	out := make(Set)
	for l := range s {
		if other.Contains(l) {
			out.Add(l)
		}
	}
	return out
}
