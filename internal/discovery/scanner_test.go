package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func createTree(t *testing.T, files ...string) string {
	t.Helper()
	tmpDir := t.TempDir()
	for _, file := range files {
		fullPath := filepath.Join(tmpDir, file)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", file, err)
		}
		if err := os.WriteFile(fullPath, []byte("/* */\n"), 0644); err != nil {
			t.Fatalf("failed to create file %s: %v", file, err)
		}
	}
	return tmpDir
}

func TestScanner_Scan(t *testing.T) {
	tmpDir := createTree(t,
		"tests/kms_basic.c",
		"tests/intel/gem_exec.c",
		"tests/intel/gem_exec.h",
		"lib/.git/hooks.c",
		"build/tests/generated.c",
		"README.md",
	)

	scanner := NewScanner([]string{"build"})

	t.Run("scans source files correctly", func(t *testing.T) {
		results, err := scanner.Scan(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := []string{
			filepath.Join(tmpDir, "tests/intel/gem_exec.c"),
			filepath.Join(tmpDir, "tests/kms_basic.c"),
		}
		if len(results) != len(expected) {
			t.Fatalf("expected %d source files, got %d: %v", len(expected), len(results), results)
		}
		for i := range expected {
			if results[i] != expected[i] {
				t.Errorf("result %d: expected %s, got %s", i, expected[i], results[i])
			}
		}
	})

	t.Run("returns error for non-existent directory", func(t *testing.T) {
		_, err := scanner.Scan(filepath.Join(tmpDir, "nope"))
		if err == nil {
			t.Error("expected error for non-existent directory")
		}
	})

	t.Run("returns error for file instead of directory", func(t *testing.T) {
		_, err := scanner.Scan(filepath.Join(tmpDir, "README.md"))
		if err == nil {
			t.Error("expected error for file path")
		}
	})

	t.Run("custom extensions", func(t *testing.T) {
		results, err := NewScanner(nil, ".h").Scan(tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 1 || filepath.Base(results[0]) != "gem_exec.h" {
			t.Errorf("expected only gem_exec.h, got %v", results)
		}
	})
}

func TestScanner_Expand(t *testing.T) {
	tmpDir := createTree(t,
		"tests/b.c",
		"tests/a.c",
		"tests/intel/c.c",
		"plans/x.txt",
	)
	scanner := NewScanner(nil)

	t.Run("keeps argument order and dedups", func(t *testing.T) {
		results, err := scanner.Expand([]string{"plans/x.txt", "tests/*.c", "tests/a.c"}, tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expected := []string{
			filepath.Join(tmpDir, "plans/x.txt"),
			filepath.Join(tmpDir, "tests/a.c"),
			filepath.Join(tmpDir, "tests/b.c"),
		}
		if len(results) != len(expected) {
			t.Fatalf("expected %v, got %v", expected, results)
		}
		for i := range expected {
			if results[i] != expected[i] {
				t.Errorf("result %d: expected %s, got %s", i, expected[i], results[i])
			}
		}
	})

	t.Run("scans directories", func(t *testing.T) {
		results, err := scanner.Expand([]string{"tests/intel"}, tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 1 || filepath.Base(results[0]) != "c.c" {
			t.Errorf("expected c.c, got %v", results)
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := scanner.Expand([]string{"tests/missing.c"}, tmpDir); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("glob without matches is empty", func(t *testing.T) {
		results, err := scanner.Expand([]string{"none/*.c"}, tmpDir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("expected no files, got %v", results)
		}
	})
}
