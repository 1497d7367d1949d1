package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igtdoc/internal/domain"
)

func TestJSONStorage_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "doc.json")
	s := NewJSONStorage()

	doc := map[string]any{"title": "Kernel tests", "count": 2}
	require.NoError(t, s.Save(path, doc))

	var got map[string]any
	require.NoError(t, s.Load(path, &got))
	assert.Equal(t, "Kernel tests", got["title"])
	assert.EqualValues(t, 2, got["count"])

	assert.Error(t, s.Load(filepath.Join(t.TempDir(), "missing.json"), &got))
}

func TestParseDSN(t *testing.T) {
	t.Setenv("DB_HOST", "db.local")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_USERNAME", "ci")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_DATABASE", "")

	tests := []struct {
		name       string
		dsn        string
		wantDriver string
		wantSource string
		wantErr    bool
	}{
		{"sqlite file", "sqlite://catalog.db", DriverSQLite, "catalog.db", false},
		{"mysql dsn", "mysql://u:p@tcp(h:1)/docs", DriverMySQL, "u:p@tcp(h:1)/docs", false},
		{"mysql from env", "mysql", DriverMySQL, "ci:secret@tcp(db.local:3307)/igtdoc?parseTime=true", false},
		{"empty sqlite path", "sqlite://", "", "", true},
		{"unknown scheme", "postgres://x", "", "", true},
		{"bad mysql dsn", "mysql://not a dsn", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, source, err := ParseDSN(tt.dsn)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func sampleSubtests() []*domain.Subtest {
	root := domain.NewGroup("core", nil)
	test := root.AddTest("kms_basic")
	a := test.AddSubtest("a")
	a.Documented = true
	a.File = "tests/kms_basic.c"
	a.Line = 8
	a.Effective = domain.NewFields("Category", "Display", "Run type", "BAT")
	b := test.AddSubtest("b")
	b.Effective = domain.NewFields("Category", "Display")
	return root.Subtests()
}

func TestSQLStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQL(ctx, "sqlite://"+filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, DriverSQLite, store.Driver())

	require.NoError(t, store.SaveSubtests(ctx, "Kernel tests", sampleSubtests()))
	// A second save replaces the previous rows.
	require.NoError(t, store.SaveSubtests(ctx, "Kernel tests", sampleSubtests()))

	got, err := store.LoadSubtests(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	a := got[0]
	assert.Equal(t, "core.kms_basic.a", a.Path)
	assert.Equal(t, "igt@kms_basic@a", a.IGTName)
	assert.Equal(t, "kms_basic", a.Test)
	assert.True(t, a.Documented)
	assert.Equal(t, 8, a.Line)
	assert.Equal(t, []string{"Category", "Run type"}, a.Fields.Names())
	assert.Equal(t, "BAT", a.Fields.Value("run type"))

	b := got[1]
	assert.Equal(t, "b", b.Subtest)
	assert.False(t, b.Documented)
	assert.Equal(t, 1, b.Fields.Len())
}
