package catalog

import (
	"regexp"
	"strings"

	"igtdoc/internal/domain"
)

// filter keeps subtests whose field value matches a pattern.
type filter struct {
	expr  string
	field string
	re    *regexp.Regexp
}

// parseFilter compiles "field=~regex". Matching is case-insensitive and
// anchored at the start of the value.
func parseFilter(expr string) (filter, error) {
	const op = "catalog.AddFilter"

	idx := strings.Index(expr, "=~")
	if idx < 0 {
		return filter{}, domain.FilterSyntaxError(op, "filter %q is not at <field>=~<regex> syntax", expr)
	}
	field := strings.TrimSpace(expr[:idx])
	if field == "" {
		return filter{}, domain.FilterSyntaxError(op, "filter %q has no field name", expr)
	}
	pattern := strings.TrimSpace(expr[idx+2:])
	re, err := regexp.Compile(`(?i)^(?:` + pattern + `)`)
	if err != nil {
		return filter{}, domain.FilterSyntaxError(op, "filter %q: invalid regex: %w", expr, err)
	}
	return filter{expr: expr, field: field, re: re}, nil
}

func (f filter) match(s *domain.Subtest) bool {
	return f.re.MatchString(s.Effective.Value(f.field))
}

// AddFilter appends a field=~regex filter. Filters are ANDed. An unknown
// field matches as the empty string.
func (c *Catalog) AddFilter(expr string) error {
	f, err := parseFilter(expr)
	if err != nil {
		return err
	}
	if canonical, ok := c.plan.Lookup(f.field); ok {
		f.field = canonical
	}
	c.filters = append(c.filters, f)
	return nil
}

// Filters returns the active filter expressions in the order they were added.
func (c *Catalog) Filters() []string {
	out := make([]string, len(c.filters))
	for i, f := range c.filters {
		out[i] = f.expr
	}
	return out
}

func (c *Catalog) matches(s *domain.Subtest) bool {
	for _, f := range c.filters {
		if !f.match(s) {
			return false
		}
	}
	return true
}
