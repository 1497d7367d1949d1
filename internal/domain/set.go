package domain

import "sort"

// TestSet is a set of runner names (igt@test[@subtest]) present in a build.
type TestSet map[string]struct{}

// NewTestSet builds a set from names.
func NewTestSet(names ...string) TestSet {
	s := make(TestSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add inserts name.
func (s TestSet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether name is in the set.
func (s TestSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in ascending order.
func (s TestSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Bucket is the group of subtests sharing one value of a sort field.
type Bucket struct {
	Key      string // "" for subtests without the field
	Subtests []*Subtest
}

// Drift is the difference between documentation and a build.
type Drift struct {
	NotBuilt     []string // documented but absent from the build
	Undocumented []string // built but not documented
}

// Empty reports whether documentation and build agree.
func (d Drift) Empty() bool {
	return len(d.NotBuilt) == 0 && len(d.Undocumented) == 0
}
