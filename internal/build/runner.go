package build

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"igtdoc/internal/domain"
	"igtdoc/internal/parser"
)

// Runner asks compiled test binaries for their subtests
type Runner struct {
	logger *zap.Logger
}

// NewRunner creates a new Runner
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// ListFromBinaries runs "<build>/tests/<test> --list-subtests" for every test,
// one at a time in the given order. A test exiting non-zero has no subtests
// and is listed as igt@<test>.
func (r *Runner) ListFromBinaries(ctx context.Context, buildPath string, tests []string) (domain.TestSet, error) {
	const op = "build.ListFromBinaries"

	set := domain.NewTestSet()
	for _, test := range tests {
		bin := filepath.Join(buildPath, "tests", test)
		info, err := os.Stat(bin)
		if err != nil || !info.Mode().IsRegular() {
			return nil, domain.BuildReadError(op, bin, "test binary doesn't exist")
		}

		cmd := exec.CommandContext(ctx, bin, "--list-subtests")
		cmd.Env = os.Environ()
		cmd.Dir = buildPath

		var stdout bytes.Buffer
		cmd.Stdout = &stdout
		err = cmd.Run()
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			r.logger.Debug("test has no subtests", zap.String("test", test), zap.Int("exit", exitErr.ExitCode()))
			set.Add(parser.IGTPrefix + test)
			continue
		case err != nil:
			return nil, domain.BuildReadError(op, bin, "failed to run test binary: %w", err)
		}

		names, err := parser.NewSubtestListParser(test).Parse(&stdout)
		if err != nil {
			return nil, domain.BuildReadError(op, bin, "failed to read subtest list: %w", err)
		}
		for _, n := range names {
			set.Add(n)
		}
	}
	return set, nil
}

// BinaryLoader lists tests from their binaries. It can stand in for a
// Reconciler when the build has no listing file. Tests is called when the
// build is read, so it may depend on state built after the loader.
type BinaryLoader struct {
	Runner *Runner
	Tests  func() []string
}

// LoadBuiltTests implements the catalog's build loader.
func (l BinaryLoader) LoadBuiltTests(ctx context.Context, buildPath string) (domain.TestSet, error) {
	var tests []string
	if l.Tests != nil {
		tests = l.Tests()
	}
	return l.Runner.ListFromBinaries(ctx, buildPath, tests)
}
