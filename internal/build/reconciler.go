package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"igtdoc/internal/domain"
	"igtdoc/internal/parser"
)

// ListingPaths are the test listings looked up below a build directory, in order.
var ListingPaths = []string{
	filepath.Join("tests", "test-list-full.txt"),
	"test-list-full.txt",
}

// Reconciler reads the tests a build produced
type Reconciler struct {
	parser *parser.TestListParser
	logger *zap.Logger
}

// NewReconciler creates a new Reconciler
func NewReconciler(logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{parser: parser.NewTestListParser(), logger: logger}
}

// LoadBuiltTests reads the build's test listing. A build without a listing
// has no tests; a build path that is not a directory, or a listing that
// cannot be read or parsed, is a BuildReadError.
func (r *Reconciler) LoadBuiltTests(ctx context.Context, buildPath string) (domain.TestSet, error) {
	const op = "build.LoadBuiltTests"

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(buildPath)
	if err != nil {
		return nil, domain.BuildReadError(op, buildPath, "build path is not readable: %w", err)
	}
	if !info.IsDir() {
		return nil, domain.BuildReadError(op, buildPath, "build path is not a directory")
	}

	listing, err := findListing(buildPath)
	if err != nil {
		return nil, domain.BuildReadError(op, buildPath, "%w", err)
	}
	if listing == "" {
		r.logger.Debug("no test listing in build", zap.String("path", buildPath))
		return domain.NewTestSet(), nil
	}

	f, err := os.Open(listing)
	if err != nil {
		return nil, domain.BuildReadError(op, listing, "failed to open test listing: %w", err)
	}
	defer f.Close()

	names, err := r.parser.Parse(f)
	if err != nil {
		return nil, domain.BuildReadError(op, listing, "corrupt test listing: %w", err)
	}
	r.logger.Debug("loaded test listing", zap.String("path", listing), zap.Int("tests", len(names)))
	return domain.NewTestSet(names...), nil
}

// findListing returns the first listing present, or "" when there is none.
func findListing(buildPath string) (string, error) {
	for _, rel := range ListingPaths {
		path := filepath.Join(buildPath, rel)
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			return "", fmt.Errorf("%s is not a regular file", path)
		}
		return path, nil
	}
	return "", nil
}
