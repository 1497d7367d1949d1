// Package catalog merges the test plan with extracted documentation and
// answers queries over the result.
package catalog

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"igtdoc/internal/build"
	"igtdoc/internal/domain"
	"igtdoc/internal/export"
	"igtdoc/internal/plan"
)

// BuildLoader reads the set of tests a build produced.
type BuildLoader interface {
	LoadBuiltTests(ctx context.Context, buildPath string) (domain.TestSet, error)
}

// Catalog is the merged, queryable documentation of one invocation.
type Catalog struct {
	plan        *plan.Plan
	root        *domain.Group
	includePlan bool
	filters     []filter

	logger   *zap.Logger
	builds   BuildLoader
	splitter *export.Splitter
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used for merge warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Catalog) { c.logger = logger }
}

// WithBuildLoader replaces the build listing reader used by CheckAgainstBuild.
func WithBuildLoader(loader BuildLoader) Option {
	return func(c *Catalog) { c.builds = loader }
}

// WithSplitter sets how SplitAndExport writes buckets.
func WithSplitter(s *export.Splitter) Option {
	return func(c *Catalog) { c.splitter = s }
}

// New merges the plan with extracted records. Plan-only subtests are kept,
// undocumented, only when includePlan is set. The first record error aborts
// construction.
func New(p *plan.Plan, records iter.Seq2[domain.Record, error], includePlan bool, opts ...Option) (*Catalog, error) {
	c := &Catalog{plan: p, includePlan: includePlan}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.builds == nil {
		c.builds = build.NewReconciler(c.logger)
	}
	if c.splitter == nil {
		c.splitter = export.NewSplitter(export.FormatRest, nil)
	}

	m := newMerger(p, c.logger)
	if records != nil {
		for rec, err := range records {
			if err != nil {
				return nil, fmt.Errorf("extract documentation: %w", err)
			}
			m.add(rec)
		}
	}

	root := m.root
	if !includePlan {
		root = domain.Prune(root, func(s *domain.Subtest) bool { return s.Documented })
	}
	for _, s := range root.Subtests() {
		s.Effective = s.Resolve()
		s.Effective.Sort(p.Rank)
	}
	c.root = root

	c.logger.Debug("catalog built",
		zap.String("plan", p.Name),
		zap.Int("subtests", len(root.Subtests())),
		zap.Bool("include_plan", includePlan),
	)
	return c, nil
}

// Plan returns the plan the catalog was built from.
func (c *Catalog) Plan() *plan.Plan {
	return c.plan
}

// Title returns the document title: the plan's own title, or one derived
// from what the catalog holds.
func (c *Catalog) Title() string {
	if c.plan.Title != "" {
		return c.plan.Title
	}

	var documented, planned bool
	for _, s := range c.root.Subtests() {
		if s.Documented {
			documented = true
		} else {
			planned = true
		}
	}
	switch {
	case documented && planned:
		return "Planned and implemented tests for " + c.plan.Name
	case documented:
		return "Implemented tests for " + c.plan.Name
	case planned:
		return "Planned tests for " + c.plan.Name
	}
	return "Tests for " + c.plan.Name
}

// Tree returns a copy of the tree holding only subtests that pass every
// filter. Tests and groups left empty are dropped.
func (c *Catalog) Tree() *domain.Group {
	return domain.Prune(c.root, c.matches)
}

// merger folds records into a copy of the plan tree.
type merger struct {
	plan    *plan.Plan
	root    *domain.Group
	tests   map[string]*domain.Test
	seen    map[string]bool // subtests already documented by a source file
	unknown map[string]bool
	logger  *zap.Logger
}

func newMerger(p *plan.Plan, logger *zap.Logger) *merger {
	m := &merger{
		plan:    p,
		root:    domain.Clone(p.Root),
		tests:   make(map[string]*domain.Test),
		seen:    make(map[string]bool),
		unknown: make(map[string]bool),
		logger:  logger,
	}
	m.root.Walk(func(t *domain.Test) {
		if prev, dup := m.tests[t.Name]; dup {
			logger.Warn("test declared in more than one group",
				zap.String("test", t.Name),
				zap.String("kept", prev.Path()),
				zap.String("ignored", t.Path()),
			)
			return
		}
		m.tests[t.Name] = t
	})
	return m
}

func (m *merger) test(name string) *domain.Test {
	if t, ok := m.tests[name]; ok {
		return t
	}
	t := m.root.AddTest(name)
	m.tests[name] = t
	return t
}

func (m *merger) add(rec domain.Record) {
	fields := m.plan.Canonicalize(rec.Fields)
	m.checkFields(rec, fields)

	t := m.test(rec.Test)
	if rec.Kind == domain.RecordTest {
		if rec.Summary != "" {
			t.Summary = rec.Summary
		}
		if !rec.Planned || t.File == "" {
			t.File = rec.File
		}
		t.Fields.Merge(fields)
		return
	}

	s := t.FindSubtest(rec.Subtest)
	if s == nil {
		s = t.AddSubtest(rec.Subtest)
	}
	if rec.Planned {
		if !s.Documented {
			s.File, s.Line = rec.File, rec.Line
		}
		s.Fields.Merge(fields)
		return
	}

	key := s.IGTName()
	if m.seen[key] {
		m.logger.Warn("subtest documented more than once, last block wins",
			zap.String("subtest", key),
			zap.String("file", rec.File),
			zap.Int("line", rec.Line),
		)
	}
	m.seen[key] = true
	s.Documented = true
	s.File, s.Line = rec.File, rec.Line
	s.Fields.Merge(fields)
}

// checkFields warns once per field name the plan does not declare.
func (m *merger) checkFields(rec domain.Record, fields domain.Fields) {
	for _, name := range fields.Names() {
		if _, ok := m.plan.Lookup(name); ok {
			continue
		}
		key := domain.FoldName(name)
		if m.unknown[key] {
			continue
		}
		m.unknown[key] = true
		m.logger.Warn("field not declared by the plan",
			zap.String("field", name),
			zap.String("file", rec.File),
			zap.Int("line", rec.Line),
		)
	}
}
