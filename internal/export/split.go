package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"igtdoc/internal/domain"
)

// Format selects what a split writes per bucket.
type Format string

const (
	// FormatRest writes nested prose per bucket.
	FormatRest Format = "rest"
	// FormatTestlist writes one runner name per line, as igt_runner reads.
	FormatTestlist Format = "testlist"
)

// ParseFormat validates a split format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatRest, FormatTestlist:
		return f, nil
	}
	return "", domain.InvalidArgument("export.ParseFormat", "unknown split format %q (want %s or %s)", name, FormatRest, FormatTestlist)
}

var separatorRe = regexp.MustCompile(`[\s_/]+`)

// Splitter writes one file per bucket of a split.
type Splitter struct {
	format  Format
	aliases map[string]string // lower-cased bucket value -> file stem
}

// NewSplitter creates a new Splitter. Alias keys are matched lower-cased.
func NewSplitter(format Format, aliases map[string]string) *Splitter {
	if format == "" {
		format = FormatRest
	}
	lower := make(map[string]string, len(aliases))
	for k, v := range aliases {
		lower[strings.ToLower(k)] = v
	}
	return &Splitter{format: format, aliases: lower}
}

// Write creates dir and one file per non-empty bucket, returning the paths
// written in bucket order. root must be the tree the bucketed subtests
// belong to.
func (s *Splitter) Write(dir, title, field string, root *domain.Group, buckets []domain.Bucket) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	prefix := ""
	if s.format == FormatTestlist {
		prefix = strings.TrimPrefix(commonPrefix(buckets), "igt@")
	}

	var written []string
	owner := make(map[string]string)
	for _, b := range buckets {
		if len(b.Subtests) == 0 {
			continue
		}

		name := s.FileName(prefix, b.Key)
		if prev, dup := owner[name]; dup {
			return written, fmt.Errorf("bucket values %q and %q both map to %s", prev, b.Key, name)
		}
		owner[name] = b.Key

		path := filepath.Join(dir, name)
		if err := s.writeBucket(path, title, field, root, b); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// FileName returns the file a bucket value is written to.
func (s *Splitter) FileName(prefix, key string) string {
	stem := strings.ToLower(key)
	if stem == "" {
		stem = "other"
	}
	if alias, ok := s.aliases[stem]; ok {
		stem = alias
	}

	ext := ".rst"
	if s.format == FormatTestlist {
		ext = ".testlist"
	}
	return separatorRe.ReplaceAllString(prefix+stem, "-") + ext
}

func (s *Splitter) writeBucket(path, title, field string, root *domain.Group, b domain.Bucket) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	switch s.format {
	case FormatTestlist:
		for _, sub := range b.Subtests {
			if _, err := fmt.Fprintln(f, sub.IGTName()); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
		}
	default:
		members := make(map[*domain.Subtest]bool, len(b.Subtests))
		for _, sub := range b.Subtests {
			members[sub] = true
		}
		tree := domain.Prune(root, func(sub *domain.Subtest) bool { return members[sub] })
		value := b.Key
		if value == "" {
			value = "not defined"
		}
		if err := RenderNested(f, fmt.Sprintf("%s (%s: %s)", title, field, value), tree); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func commonPrefix(buckets []domain.Bucket) string {
	prefix, first := "", true
	for _, b := range buckets {
		for _, sub := range b.Subtests {
			name := sub.IGTName()
			if first {
				prefix, first = name, false
				continue
			}
			i := 0
			for i < len(prefix) && i < len(name) && prefix[i] == name[i] {
				i++
			}
			prefix = prefix[:i]
		}
	}
	return prefix
}
