package catalog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"igtdoc/internal/domain"
	"igtdoc/internal/plan"
)

const corePlan = `{
  "name": "core",
  "fields": { "Category": {}, "Driver": {}, "Run type": {}, "Issue": {}, "Description": {} },
  "attributes": { "Category": "Core" },
  "tests": [
    { "name": "basic", "attributes": { "driver": "i915" },
      "subtests": [ { "name": "a" }, { "name": "b" } ] }
  ]
}`

func loadPlan(t *testing.T, src string) *plan.Plan {
	t.Helper()
	p, err := plan.Parse([]byte(src))
	require.NoError(t, err)
	return p
}

func records(recs ...domain.Record) iter.Seq2[domain.Record, error] {
	return func(yield func(domain.Record, error) bool) {
		for _, r := range recs {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func sub(test, name string, pairs ...string) domain.Record {
	return domain.Record{
		Kind:    domain.RecordSubtest,
		File:    test + ".c",
		Line:    1,
		Test:    test,
		Subtest: name,
		Fields:  domain.NewFields(pairs...),
	}
}

func paths(subtests []*domain.Subtest) []string {
	out := []string{}
	for _, s := range subtests {
		out = append(out, s.Path())
	}
	return out
}

func TestNew_PlanOnly(t *testing.T) {
	p := loadPlan(t, corePlan)

	c, err := New(p, nil, true)
	require.NoError(t, err)
	subtests := c.ListSubtests("")
	assert.Equal(t, []string{"core.basic.a", "core.basic.b"}, paths(subtests))
	for _, s := range subtests {
		assert.False(t, s.Documented)
	}
	assert.Equal(t, "Planned tests for core", c.Title())

	require.NoError(t, c.AddFilter("driver=~i915"))
	assert.Equal(t, []string{"core.basic.a", "core.basic.b"}, paths(c.ListSubtests("")))

	c2, err := New(p, nil, true)
	require.NoError(t, err)
	require.NoError(t, c2.AddFilter("driver=~nouveau"))
	assert.Empty(t, c2.ListSubtests(""))

	excluded, err := New(p, nil, false)
	require.NoError(t, err)
	assert.Empty(t, excluded.ListSubtests(""))
	assert.Empty(t, excluded.Tree().Tests, "plan-only tests are dropped")
	assert.Equal(t, "Tests for core", excluded.Title())
}

func TestNew_Merge(t *testing.T) {
	p := loadPlan(t, corePlan)
	recs := records(
		domain.Record{Kind: domain.RecordTest, File: "basic.c", Test: "basic", Summary: "basic checks",
			Fields: domain.NewFields("Description", "test level")},
		sub("basic", "a", "Driver", "xe", "issues", "none"),
		sub("extra", "x", "Run type", "BAT"),
	)

	c, err := New(p, recs, false)
	require.NoError(t, err)
	subtests := c.ListSubtests("")
	assert.Equal(t, []string{"core.basic.a", "core.extra.x"}, paths(subtests))

	a := subtests[0]
	assert.True(t, a.Documented)
	assert.Equal(t, "xe", a.Effective.Value("Driver"), "extracted fields win over the plan")
	assert.Equal(t, []string{"Category", "Driver", "Issue"}, a.Effective.Names(), "plan order, Description not inherited")
	assert.Equal(t, "basic checks", a.Test.Summary)

	x := subtests[1]
	assert.Equal(t, "Core", x.Effective.Value("Category"), "new tests inherit root group fields")
	assert.Equal(t, "Implemented tests for core", c.Title())

	withPlan, err := New(p, records(sub("basic", "a")), true)
	require.NoError(t, err)
	assert.Equal(t, "Planned and implemented tests for core", withPlan.Title())
}

func TestNew_DuplicatesAndUnknownFields(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := loadPlan(t, corePlan)

	c, err := New(p, records(
		sub("basic", "a", "Driver", "xe", "Owner", "me"),
		sub("basic", "a", "Driver", "amd", "owner", "you"),
	), false, WithLogger(zap.New(core)))
	require.NoError(t, err)

	subtests := c.ListSubtests("")
	require.Len(t, subtests, 1)
	assert.Equal(t, "amd", subtests[0].Effective.Value("driver"), "last block wins")
	assert.Equal(t, "you", subtests[0].Effective.Value("Owner"))

	assert.Equal(t, 1, logs.FilterMessage("field not declared by the plan").Len())
	assert.Equal(t, 1, logs.FilterMessage("subtest documented more than once, last block wins").Len())
}

func TestNew_RecordErrorAborts(t *testing.T) {
	p := loadPlan(t, corePlan)
	boom := errors.New("boom")
	seq := func(yield func(domain.Record, error) bool) {
		if !yield(sub("basic", "a"), nil) {
			return
		}
		yield(domain.Record{}, boom)
	}
	_, err := New(p, seq, true)
	assert.ErrorIs(t, err, boom)
}

func TestNew_PlannedRecords(t *testing.T) {
	p := loadPlan(t, corePlan)
	planned := sub("future", "f", "Issue", "planned")
	planned.Planned = true

	c, err := New(p, records(planned, sub("basic", "a")), true)
	require.NoError(t, err)
	var found *domain.Subtest
	for _, s := range c.ListSubtests("") {
		if s.Name == "f" {
			found = s
		}
	}
	require.NotNil(t, found)
	assert.False(t, found.Documented)

	c, err = New(p, records(planned), false)
	require.NoError(t, err)
	assert.Empty(t, c.ListSubtests(""))
}

func TestAddFilter(t *testing.T) {
	p := loadPlan(t, corePlan)
	recs := []domain.Record{
		sub("basic", "a", "Run type", "BAT", "Issue", "abc"),
		sub("basic", "b", "Run type", "FULL", "Issue", "abc"),
		sub("other", "c", "Run type", "bat-extra"),
	}

	build := func(filters ...string) []string {
		c, err := New(p, records(recs...), false)
		require.NoError(t, err)
		for _, f := range filters {
			require.NoError(t, c.AddFilter(f))
		}
		return paths(c.ListSubtests(""))
	}

	assert.Equal(t, []string{"core.basic.a", "core.other.c"}, build("Run type=~bat"), "case-insensitive prefix match")
	assert.Equal(t, []string{"core.basic.a"}, build("run type =~ BAT$"))
	assert.Equal(t, []string{"core.other.c"}, build("issues=~^$"), "absent field is empty")
	assert.Equal(t, []string{"core.basic.a"}, build("Unknown=~", "Issue=~a", "Run type=~B"))

	if diff := cmp.Diff(build("Run type=~bat", "Issue=~abc"), build("Issue=~abc", "Run type=~bat")); diff != "" {
		t.Errorf("filter order changed the result:\n%s", diff)
	}

	c, err := New(p, nil, true)
	require.NoError(t, err)
	for _, bad := range []string{"driver", "=~x", "driver=~(", "driver=x"} {
		err := c.AddFilter(bad)
		assert.True(t, errors.Is(err, domain.ErrFilterSyntax), "%q: %v", bad, err)
	}
	assert.Empty(t, c.Filters())
}

func TestListSubtests_Sorting(t *testing.T) {
	p := loadPlan(t, corePlan)
	c, err := New(p, records(
		sub("zeta", "b", "Run type", "BAT"),
		sub("alpha", "b", "Run type", "BAT"),
		sub("alpha", "a", "Run type", "FULL"),
		sub("beta", "z"),
	), false)
	require.NoError(t, err)

	assert.Equal(t, []string{"core.alpha.a", "core.alpha.b", "core.beta.z", "core.zeta.b"}, paths(c.ListSubtests("")))

	sorted := paths(c.ListSubtests("run types"))
	assert.Equal(t, []string{"core.beta.z", "core.alpha.b", "core.zeta.b", "core.alpha.a"}, sorted)
	assert.Equal(t, sorted, paths(c.ListSubtests("Run type")), "listing is stable")

	buckets := c.Buckets("Run type")
	require.Len(t, buckets, 3)
	assert.Equal(t, "", buckets[0].Key)
	assert.Equal(t, "BAT", buckets[1].Key)
	assert.Len(t, buckets[1].Subtests, 2)
	assert.Equal(t, "FULL", buckets[2].Key)

	assert.Equal(t, []string{"zeta", "alpha", "beta"}, c.TestNames())
	require.NoError(t, c.AddFilter("run type=~bat"))
	assert.Equal(t, []string{"zeta", "alpha"}, c.TestNames())
}

type fakeLoader struct {
	set domain.TestSet
	err error
}

func (f fakeLoader) LoadBuiltTests(context.Context, string) (domain.TestSet, error) {
	return f.set, f.err
}

func TestCheckAgainstBuild(t *testing.T) {
	p := loadPlan(t, corePlan)
	recs := []domain.Record{sub("basic", "a"), sub("basic", "b"), sub("gem_exec", "size-<size in bytes>"), sub("single", "")}
	documented := domain.NewTestSet("igt@basic@a", "igt@basic@b", "igt@gem_exec@size-4096", "igt@single")

	check := func(set domain.TestSet) domain.Drift {
		c, err := New(p, records(recs...), false, WithBuildLoader(fakeLoader{set: set}))
		require.NoError(t, err)
		drift, err := c.CheckAgainstBuild(context.Background(), "build")
		require.NoError(t, err)
		return drift
	}

	assert.True(t, check(documented).Empty())

	missing := domain.NewTestSet("igt@basic@b", "igt@gem_exec@size-4096", "igt@single", "igt@new@one")
	drift := check(missing)
	assert.Equal(t, []string{"igt@basic@a"}, drift.NotBuilt)
	assert.Equal(t, []string{"igt@new@one"}, drift.Undocumented)

	drift = check(domain.NewTestSet("igt@basic@a", "igt@basic@b", "igt@gem_exec@size-big", "igt@single"))
	assert.Equal(t, []string{"igt@gem_exec@size-<size in bytes>"}, drift.NotBuilt)

	c, err := New(p, records(recs...), false, WithBuildLoader(fakeLoader{err: domain.BuildReadError("x", "build", "bad")}))
	require.NoError(t, err)
	_, err = c.CheckAgainstBuild(context.Background(), "build")
	assert.ErrorIs(t, err, domain.ErrBuildRead)
}

func TestCheckAgainstBuild_LargeSuite(t *testing.T) {
	const n = 20000
	recs := []domain.Record{sub("basic", "a"), sub("basic", "b")}
	built := domain.NewTestSet("igt@basic@a", "igt@basic@b")
	for i := range n {
		test, name := fmt.Sprintf("scale%03d", i%100), fmt.Sprintf("s%05d", i)
		recs = append(recs, sub(test, name))
		built.Add("igt@" + test + "@" + name)
	}
	recs = append(recs, sub("scale", "size-<n>"))
	built.Add("igt@scale@size-4096")
	built.Add("igt@scale@extra")

	c, err := New(loadPlan(t, corePlan), records(recs...), false, WithBuildLoader(fakeLoader{set: built}))
	require.NoError(t, err)

	start := time.Now()
	drift, err := c.CheckAgainstBuild(context.Background(), "build")
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.Empty(t, drift.NotBuilt)
	assert.Equal(t, []string{"igt@scale@extra"}, drift.Undocumented)
	assert.Less(t, elapsed, 2*time.Second, "check must not compare every documented name with every built name")
}

func TestCheckAgainstBuild_Listing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test-list-full.txt"), []byte("igt@basic@a\n"), 0o644))

	c, err := New(loadPlan(t, corePlan), records(sub("basic", "a")), false)
	require.NoError(t, err)
	drift, err := c.CheckAgainstBuild(context.Background(), dir)
	require.NoError(t, err)
	assert.True(t, drift.Empty())

	_, err = c.CheckAgainstBuild(context.Background(), filepath.Join(dir, "missing"))
	assert.ErrorIs(t, err, domain.ErrBuildRead)
}

func TestSplitAndExport(t *testing.T) {
	c, err := New(loadPlan(t, corePlan), records(
		sub("basic", "a", "Run type", "BAT"),
		sub("basic", "b"),
	), false)
	require.NoError(t, err)

	t.Run("requires a sort field before touching the filesystem", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out")
		_, err := c.SplitAndExport(out, "")
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		_, statErr := os.Stat(out)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("writes one file per bucket", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out")
		written, err := c.SplitAndExport(out, "run type")
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(out, "other.rst"), filepath.Join(out, "bat.rst")}, written)
	})
}
