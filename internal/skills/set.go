// Package skills provides skill-name normalization and the ordered sets used to aggregate skill knowledge.
package skills

import (
	"sort"
	"strings"
)

// Normalize returns the canonical form of a skill name: trimmed and lowercased.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeAll normalizes names and drops the ones that normalize to empty.
func NormalizeAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if n := Normalize(name); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Set is a deduplicating set of strings that remembers insertion order.
// The zero value is ready to use.
type Set struct {
	items []string
	index map[string]struct{}
}

// NewSet returns a set holding values in first-seen order.
func NewSet(values ...string) *Set {
	s := &Set{}
	s.Add(values...)
	return s
}

// Add inserts values that are not already present. Empty strings are ignored.
func (s *Set) Add(values ...string) {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, exists := s.index[v]; exists {
			continue
		}
		s.index[v] = struct{}{}
		s.items = append(s.items, v)
	}
}

// Contains reports whether v is in the set.
func (s *Set) Contains(v string) bool {
	_, ok := s.index[v]
	return ok
}

// Len returns the number of items.
func (s *Set) Len() int {
	return len(s.items)
}

// Items returns the items in insertion order.
func (s *Set) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Sorted returns the items in lexical order.
func (s *Set) Sorted() []string {
	out := s.Items()
	sort.Strings(out)
	return out
}

// Union returns a new set with the items of every input set, deduplicated,
// in the order they are first seen.
func Union(sets ...*Set) *Set {
	out := &Set{}
	for _, set := range sets {
		if set == nil {
			continue
		}
		out.Add(set.items...)
	}
	return out
}
