package catalog

import (
	"sort"

	"igtdoc/internal/domain"
)

// ListSubtests returns the filtered subtests sorted by the value of
// sortField, then by subtest name, then by path. With an empty sortField
// they are sorted by path.
func (c *Catalog) ListSubtests(sortField string) []*domain.Subtest {
	var out []*domain.Subtest
	for _, s := range c.root.Subtests() {
		if c.matches(s) {
			out = append(out, s)
		}
	}
	sortField = c.canonical(sortField)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if sortField != "" {
			va, vb := a.Effective.Value(sortField), b.Effective.Value(sortField)
			if va != vb {
				return va < vb
			}
			if a.Name != b.Name {
				return a.Name < b.Name
			}
		}
		return a.Path() < b.Path()
	})
	return out
}

// Buckets groups the sorted listing by the value of sortField. Keys are
// ascending; subtests without the field land in the "" bucket.
func (c *Catalog) Buckets(sortField string) []domain.Bucket {
	var buckets []domain.Bucket
	field := c.canonical(sortField)
	for _, s := range c.ListSubtests(sortField) {
		key := s.Effective.Value(field)
		if n := len(buckets); n > 0 && buckets[n-1].Key == key {
			buckets[n-1].Subtests = append(buckets[n-1].Subtests, s)
			continue
		}
		buckets = append(buckets, domain.Bucket{Key: key, Subtests: []*domain.Subtest{s}})
	}
	return buckets
}

func (c *Catalog) canonical(field string) string {
	if canonical, ok := c.plan.Lookup(field); ok {
		return canonical
	}
	return field
}

// TestNames returns the names of tests holding at least one filtered
// subtest, in tree order.
func (c *Catalog) TestNames() []string {
	var names []string
	c.Tree().Walk(func(t *domain.Test) {
		names = append(names, t.Name)
	})
	return names
}
