package domain

import "strings"

// CategorySet is an immutable, insertion-ordered set of category names.
// The zero value is an empty set.
type CategorySet struct {
	names []string
	index map[string]struct{}
}

// NewCategorySet builds a set from names, dropping blanks and duplicates.
func NewCategorySet(names ...string) CategorySet {
	return CategorySet{}.Union(names...)
}

// Union returns a new set holding the receiver's names followed by the new
// ones in the order given.
func (s CategorySet) Union(names ...string) CategorySet {
	out := CategorySet{
		names: make([]string, 0, len(s.names)+len(names)),
		index: make(map[string]struct{}, len(s.names)+len(names)),
	}

	for _, n := range s.names {
		out.add(n)
	}
	for _, n := range names {
		out.add(strings.TrimSpace(n))
	}

	return out
}

func (s *CategorySet) add(name string) {
	if name == "" {
		return
	}
	if _, ok := s.index[name]; ok {
		return
	}
	s.index[name] = struct{}{}
	s.names = append(s.names, name)
}

// Contains reports membership.
func (s CategorySet) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of names.
func (s CategorySet) Len() int {
	return len(s.names)
}

// Names returns a copy of the names in insertion order.
func (s CategorySet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}
