package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions are the source files a directory scan picks up.
var DefaultExtensions = []string{".c"}

// Scanner resolves the source files to extract documentation from
type Scanner struct {
	skipDirs   map[string]bool
	extensions map[string]bool
}

// NewScanner creates a new Scanner with the given directories to skip
func NewScanner(skipDirs []string, extensions ...string) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	extMap := make(map[string]bool)
	for _, ext := range extensions {
		extMap[ext] = true
	}
	return &Scanner{skipDirs: skipMap, extensions: extMap}
}

// Scan finds all source files in the given root directory, in lexical order
func (s *Scanner) Scan(root string) ([]string, error) {
	var files []string

	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("source path does not exist: %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path is not a directory: %s", root)
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			name := d.Name()
			// Skip hidden directories (starting with .)
			if path != root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}

			if s.skipDirs[name] {
				return filepath.SkipDir
			}

			return nil
		}

		if s.extensions[filepath.Ext(d.Name())] {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// Expand resolves file arguments into a file list. Relative entries are
// taken from baseDir, glob patterns are expanded in lexical order and
// directories are scanned. Order follows the arguments; duplicates are
// dropped.
func (s *Scanner) Expand(entries []string, baseDir string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(paths ...string) {
		for _, p := range paths {
			if !seen[p] {
				seen[p] = true
				files = append(files, p)
			}
		}
	}

	for _, entry := range entries {
		path := entry
		if baseDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}

		if !hasGlobMeta(path) {
			info, err := os.Stat(path)
			if err != nil {
				return nil, fmt.Errorf("source file does not exist: %s", path)
			}
			if info.IsDir() {
				found, err := s.Scan(path)
				if err != nil {
					return nil, err
				}
				add(found...)
				continue
			}
			add(path)
			continue
		}

		matches, err := filepath.Glob(path)
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", entry, err)
		}
		sort.Strings(matches)
		add(matches...)
	}
	return files, nil
}

func hasGlobMeta(path string) bool {
	return strings.ContainsAny(path, `*?[`)
}
