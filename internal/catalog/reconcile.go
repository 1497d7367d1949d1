package catalog

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"igtdoc/internal/domain"
)

var placeholderRe = regexp.MustCompile(`<[^>]+>`)

// CheckAgainstBuild compares the filtered subtests with the tests a build
// produced. Documented names may hold <placeholder> segments, which match
// any number. The catalog is not modified.
func (c *Catalog) CheckAgainstBuild(ctx context.Context, buildPath string) (domain.Drift, error) {
	built, err := c.builds.LoadBuiltTests(ctx, buildPath)
	if err != nil {
		return domain.Drift{}, err
	}
	if len(c.filters) > 0 {
		c.logger.Info("test checks are affected by filters", zap.Strings("filters", c.Filters()))
	}

	documented := domain.NewTestSet()
	for _, s := range c.ListSubtests("") {
		documented.Add(s.IGTName())
	}

	// Plain names are set lookups; only <placeholder> names need a pattern.
	var drift domain.Drift
	var patterns []*regexp.Regexp
	for _, name := range documented.Sorted() {
		if !placeholderRe.MatchString(name) {
			if !built.Has(name) {
				drift.NotBuilt = append(drift.NotBuilt, name)
			}
			continue
		}
		re := namePattern(name)
		patterns = append(patterns, re)
		if !matchesAny(re, built) {
			drift.NotBuilt = append(drift.NotBuilt, name)
		}
	}

	for _, builtName := range built.Sorted() {
		if documented.Has(builtName) {
			continue
		}
		found := false
		for _, re := range patterns {
			if re.MatchString(builtName) {
				found = true
				break
			}
		}
		if !found {
			drift.Undocumented = append(drift.Undocumented, builtName)
		}
	}
	return drift, nil
}

func matchesAny(re *regexp.Regexp, names domain.TestSet) bool {
	for name := range names {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// namePattern turns a documented name into an anchored pattern where each
// <placeholder> matches digits.
func namePattern(name string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	last := 0
	for _, loc := range placeholderRe.FindAllStringIndex(name, -1) {
		b.WriteString(regexp.QuoteMeta(name[last:loc[0]]))
		b.WriteString(`\d+`)
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(name[last:]))
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
