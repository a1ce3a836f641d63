package session

import (
	"slices"

	"github.com/samber/lo"
)

// Selection is a set of part indices. It is not undoable state.
type Selection struct {
	indices []int // sorted, unique
}

// Indices returns the selected indices in ascending order.
func (s *Selection) Indices() []int {
	return slices.Clone(s.indices)
}

// Len returns the number of selected parts.
func (s *Selection) Len() int {
	return len(s.indices)
}

// Contains reports whether i is selected.
func (s *Selection) Contains(i int) bool {
	_, found := slices.BinarySearch(s.indices, i)
	return found
}

// Set replaces the selection.
func (s *Selection) Set(indices ...int) {
	u := lo.Uniq(indices)
	slices.Sort(u)
	s.indices = u
}

// Toggle adds i if absent, removes it otherwise.
func (s *Selection) Toggle(i int) {
	if s.Contains(i) {
		s.indices = lo.Without(s.indices, i)
		return
	}
	s.Set(append(s.indices, i)...)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.indices = nil
}

// outOfRange returns the selected indices not in [0, n).
func (s *Selection) outOfRange(n int) []int {
	return lo.Filter(s.indices, func(i int, _ int) bool {
		return i < 0 || i >= n
	})
}

// prune drops indices not in [0, n).
func (s *Selection) prune(n int) {
	s.indices = lo.Filter(s.indices, func(i int, _ int) bool {
		return i >= 0 && i < n
	})
}

func (s *Selection) clone() Selection {
	return Selection{indices: slices.Clone(s.indices)}
}
