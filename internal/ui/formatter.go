package ui

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"

	"igtdoc/internal/domain"
)

// NotDefined labels subtests that lack the sort field.
const NotDefined = "not defined"

// Formatter writes console reports
type Formatter struct {
	out io.Writer
}

// NewFormatter creates a new Formatter writing to out
func NewFormatter(out io.Writer) *Formatter {
	return &Formatter{out: out}
}

// PrintSubtests prints one IGT name per line.
func (f *Formatter) PrintSubtests(subtests []*domain.Subtest) {
	for _, s := range subtests {
		fmt.Fprintln(f.out, s.IGTName())
	}
}

// PrintBuckets prints each bucket under a "value:" header, the empty value
// first as "not defined:". Subtests that lack the field entirely are listed
// under "not defined:" too, so every subtest appears exactly once.
func (f *Formatter) PrintBuckets(buckets []domain.Bucket) {
	for i, b := range buckets {
		if i > 0 {
			fmt.Fprintln(f.out)
		}
		key := b.Key
		if key == "" {
			key = NotDefined
		}
		fmt.Fprintln(f.out, color.CyanString("%s:", key))
		for _, s := range b.Subtests {
			fmt.Fprintf(f.out, "  %s\n", s.IGTName())
		}
	}
}

// PrintDrift reports every difference between documentation and build.
func (f *Formatter) PrintDrift(drift domain.Drift, filtered bool) {
	if filtered {
		fmt.Fprintln(f.out, color.YellowString("NOTE: test checks are affected by filters"))
	}
	for _, name := range drift.NotBuilt {
		fmt.Fprintln(f.out, color.RedString("Warning: Documented %s doesn't exist on source files", name))
	}
	for _, name := range drift.Undocumented {
		fmt.Fprintln(f.out, color.RedString("Warning: Missing documentation for %s", name))
	}
	if drift.Empty() {
		fmt.Fprintln(f.out, color.GreenString("✓ Documentation matches the build"))
	}
}

// PrintCreated reports files written by a split export, relative to base
// when possible.
func (f *Formatter) PrintCreated(base string, files []string) {
	for _, file := range files {
		rel := file
		if base != "" {
			if r, err := filepath.Rel(base, file); err == nil {
				rel = r
			}
		}
		fmt.Fprintf(f.out, "%s created.\n", color.GreenString(rel))
	}
}
