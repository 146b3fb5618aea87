package util

import (
	"maps"
	"slices"
	"strings"
)

// Set is a generic set of comparable values
type Set[K comparable] map[K]struct{}

// SetOf creates a new set containing the given elements
func SetOf[K comparable](elements ...K) Set[K] {
	s := make(Set[K], len(elements))
	for _, elem := range elements {
		s[elem] = struct{}{}
	}
	return s
}

// Add adds an element to the set
func (s Set[K]) Add(key K) {
	s[key] = struct{}{}
}

// Contains returns true if the element exists in the set
func (s Set[K]) Contains(key K) bool {
	_, exists := s[key]
	return exists
}

func (s Set[K]) Len() int {
	return len(s)
}

// SortedStrings renders a string set in a stable order, for messages and
// trace output
func SortedStrings[K ~string](s Set[K]) []string {
	res := make([]string, 0, len(s))
	for _, k := range slices.Sorted(maps.Keys(s)) {
		res = append(res, string(k))
	}
	return res
}

// JoinSorted renders a string set as a comma separated list
func JoinSorted[K ~string](s Set[K]) string {
	return strings.Join(SortedStrings(s), ", ")
}
