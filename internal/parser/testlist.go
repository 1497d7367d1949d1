package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// IGTPrefix starts every runner name.
const IGTPrefix = "igt@"

// LineError reports a listing line that is not a runner name.
type LineError struct {
	Line int
	Text string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %q is not a test name", e.Line, e.Text)
}

// TestListParser parses the test-list-full.txt listing written by the build
type TestListParser struct{}

// NewTestListParser creates a new TestListParser
func NewTestListParser() *TestListParser {
	return &TestListParser{}
}

// Parse returns the names in listing order. Blank lines and lines starting
// with # are skipped; any other line must be an igt@ name.
func (p *TestListParser) Parse(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !validName(line) {
			return nil, &LineError{Line: lineNo, Text: line}
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func validName(name string) bool {
	if !strings.HasPrefix(name, IGTPrefix) || len(name) == len(IGTPrefix) {
		return false
	}
	return !strings.ContainsAny(name, " \t")
}

// SubtestListParser parses the output of "<test> --list-subtests"
type SubtestListParser struct {
	Test string
}

// NewSubtestListParser creates a parser for the subtests of test
func NewSubtestListParser(test string) *SubtestListParser {
	return &SubtestListParser{Test: test}
}

// Parse returns igt@<test>@<subtest> for every listed subtest.
func (p *SubtestListParser) Parse(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		sub := strings.TrimSpace(scanner.Text())
		if sub == "" {
			continue
		}
		names = append(names, IGTPrefix+p.Test+"@"+sub)
	}
	return names, scanner.Err()
}

var (
	_ Parser = (*TestListParser)(nil)
	_ Parser = (*SubtestListParser)(nil)
)
