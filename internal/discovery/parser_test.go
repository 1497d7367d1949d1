package discovery

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"igtdoc/internal/domain"
)

// resolverMap is a FieldResolver over a fixed set of names.
type resolverMap map[string]string

func (r resolverMap) Lookup(name string) (string, bool) {
	canonical, ok := r[domain.FoldName(name)]
	return canonical, ok
}

var testResolver = resolverMap{
	"category":      "Category",
	"description":   "Description",
	"driver":        "Driver",
	"issue":         "Issue",
	"issues":        "Issue",
	"run type":      "Run type",
	"functionality": "Functionality",
}

func collect(t *testing.T, p *Parser, name, src string) []domain.Record {
	t.Helper()
	var out []domain.Record
	for rec, err := range p.Parse(name, strings.NewReader(src)) {
		require.NoError(t, err)
		out = append(out, rec)
	}
	return out
}

func names(records []domain.Record) []string {
	var out []string
	for _, r := range records {
		if r.Kind == domain.RecordSubtest {
			out = append(out, r.Subtest)
		}
	}
	return out
}

func TestParser_TestAndSubtests(t *testing.T) {
	src := `#include "igt.h"
/**
 * TEST: kms basic
 * Category: Display
 * Description: Checks the
 *   basic modeset path.
 *
 * SUBTEST: a
 * Driver: i915
 * issues: https://example.com/1
 *
 * SUBTEST: b
 * Owner Team: display
 */

/**
 * Regular doxygen comment, not documentation.
 * Returns: nothing
 */
static int helper(void);
`
	records := collect(t, NewParser(testResolver, nil), "tests/kms_basic.c", src)
	require.Len(t, records, 3)

	test := records[0]
	assert.Equal(t, domain.RecordTest, test.Kind)
	assert.Equal(t, "kms_basic", test.Test)
	assert.Equal(t, "kms basic", test.Summary)
	assert.Equal(t, 3, test.Line)
	assert.Equal(t, "Checks the basic modeset path.", test.Fields.Value("Description"))

	a := records[1]
	assert.Equal(t, domain.RecordSubtest, a.Kind)
	assert.Equal(t, "a", a.Subtest)
	assert.Equal(t, 8, a.Line)
	assert.Equal(t, []string{"Driver", "Issue"}, a.Fields.Names())
	assert.Equal(t, "https://example.com/1", a.Fields.Value("issue"))

	b := records[2]
	assert.Equal(t, "b", b.Subtest)
	assert.Equal(t, "display", b.Fields.Value("Owner Team"), "unknown capitalized fields are kept")
	assert.False(t, b.Planned)
}

func TestParser_ArgumentExpansion(t *testing.T) {
	src := `/**
 * SUBTEST: %s-%s
 * Description: Test %arg[1] with arg[2]
 *
 * arg[1]:
 *
 * @basic: basic check
 * @busy:  busy
 *         engine
 *
 * arg[2].values: x, y
 */
/**
 * SUBTEST: size-%d
 * arg[1]: size in bytes
 */
`
	records := collect(t, NewParser(testResolver, nil), "gem_exec.c", src)
	assert.Equal(t, []string{
		"basic-x", "busy-x", "basic-y", "busy-y", "size-<size in bytes>",
	}, names(records))
	assert.Equal(t, "Test busy engine with y", records[3].Fields.Value("Description"))
	assert.Equal(t, "Test basic check with x", records[0].Fields.Value("Description"))
}

func TestParser_MalformedBlocks(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	var warnings []domain.ExtractionWarning
	p := NewParser(testResolver, zap.New(core), WithWarningHandler(func(w domain.ExtractionWarning) {
		warnings = append(warnings, w)
	}))

	src := `/**
 * SUBTEST: dropped
 * lowercase garbage: here
 */
/**
 * SUBTEST: kept
 */
/**
 * SUBTEST: missing-%s
 */
/**
 * SUBTEST: also-kept
 * @orphan: no argument open
 */
`
	records := collect(t, p, "kms.c", src)
	assert.Equal(t, []string{"kept", "also-kept"}, names(records))

	require.Len(t, warnings, 3)
	assert.Equal(t, 3, warnings[0].Line)
	assert.Contains(t, warnings[0].Message, "unrecognized line")
	assert.Contains(t, warnings[1].Message, "arg[1]")
	assert.Contains(t, warnings[2].Message, "invalid argument")

	assert.Equal(t, 3, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "kms.c", entry.ContextMap()["file"])
	assert.EqualValues(t, 3, entry.ContextMap()["line"])
}

func TestParser_NamelessSubtest(t *testing.T) {
	src := `/**
 * TEST: single
 * SUBTEST:
 * Run type: BAT
 */
`
	records := collect(t, NewParser(testResolver, nil), "core_auth.c", src)
	require.Len(t, records, 2)
	assert.Equal(t, "", records[1].Subtest)
	assert.Equal(t, "BAT", records[1].Fields.Value("run type"))
}

func TestParser_ParseFileIsRestartable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kms_flip.c")
	require.NoError(t, os.WriteFile(path, []byte("/**\n * SUBTEST: flip\n */\n"), 0o644))

	p := NewParser(testResolver, nil, WithPlanned(true))
	seq := p.ParseFile(path)
	for range 2 {
		var got []domain.Record
		for rec, err := range seq {
			require.NoError(t, err)
			got = append(got, rec)
		}
		require.Len(t, got, 1)
		assert.Equal(t, "kms_flip", got[0].Test)
		assert.True(t, got[0].Planned)
	}
}

func TestParser_Extract(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "b_test.c")
	second := filepath.Join(dir, "a_test.c")
	require.NoError(t, os.WriteFile(first, []byte("/**\n * SUBTEST: one\n */\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("/**\n * SUBTEST: two\n */\n"), 0o644))

	var visited []string
	p := NewParser(testResolver, nil, WithFileHook(func(path string) { visited = append(visited, path) }))

	var tests []string
	var lastErr error
	for rec, err := range p.Extract([]string{first, second, filepath.Join(dir, "missing.c"), first}) {
		if err != nil {
			lastErr = err
			continue
		}
		tests = append(tests, rec.Test)
	}
	assert.Equal(t, []string{"b_test", "a_test"}, tests, "caller order is kept")
	assert.Error(t, lastErr)
	assert.Len(t, visited, 3, "extraction stops at the unreadable file")
}
