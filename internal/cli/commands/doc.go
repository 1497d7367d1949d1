package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"igtdoc/internal/build"
	"igtdoc/internal/catalog"
	"igtdoc/internal/config"
	"igtdoc/internal/discovery"
	"igtdoc/internal/domain"
	"igtdoc/internal/export"
	"igtdoc/internal/plan"
	"igtdoc/internal/storage"
	"igtdoc/internal/ui"
)

// ErrDrift is returned when documentation and build disagree.
var ErrDrift = errors.New("documentation does not match the build")

// LoggerFactory builds the logger for one invocation.
type LoggerFactory func(verbose bool) (*zap.Logger, error)

// DocCommand builds the catalog and runs the requested actions
type DocCommand struct {
	config    *config.Config
	viewer    ui.Viewer
	newLogger LoggerFactory
	storage   storage.Storage
}

// NewDocCommand creates a new DocCommand
func NewDocCommand(cfg *config.Config, viewer ui.Viewer, newLogger LoggerFactory) *DocCommand {
	return &DocCommand{
		config:    cfg,
		viewer:    viewer,
		newLogger: newLogger,
		storage:   storage.NewJSONStorage(),
	}
}

// Execute runs the command
func (dc *DocCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if dc.config.Flags.Watch {
		return dc.Watch(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}
	_, err := dc.Run(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return err
}

// Run performs one invocation and returns the input files it read.
func (dc *DocCommand) Run(ctx context.Context, out, errOut io.Writer) ([]string, error) {
	flags := dc.config.Flags
	if flags.GenTestlist != "" && strings.TrimSpace(flags.SortField) == "" {
		return nil, domain.InvalidArgument("igtdoc", "--gen-testlist requires --sort-field")
	}
	format, err := export.ParseFormat(dc.config.GetTestlistFormat())
	if err != nil {
		return nil, err
	}

	logger, err := dc.newLogger(flags.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	cat, inputs, err := dc.buildCatalog(logger, format)
	if err != nil {
		return inputs, err
	}
	for _, expr := range flags.FilterFields {
		if err := cat.AddFilter(expr); err != nil {
			return inputs, err
		}
	}

	formatter := ui.NewFormatter(out)
	ran := false
	var driftErr error

	if flags.ShowSubtests {
		if flags.SortField != "" {
			formatter.PrintBuckets(cat.Buckets(flags.SortField))
		} else {
			formatter.PrintSubtests(cat.ListSubtests(""))
		}
		ran = true
	}

	if flags.CheckTestlist {
		drift, err := cat.CheckAgainstBuild(ctx, dc.config.GetBuildPath())
		if err != nil {
			return inputs, err
		}
		ui.NewFormatter(errOut).PrintDrift(drift, len(cat.Filters()) > 0)
		if !drift.Empty() {
			driftErr = fmt.Errorf("%w: %d not built, %d undocumented", ErrDrift, len(drift.NotBuilt), len(drift.Undocumented))
		}
		ran = true
	}

	if flags.GenTestlist != "" {
		files, err := cat.SplitAndExport(flags.GenTestlist, flags.SortField)
		if err != nil {
			return inputs, err
		}
		formatter.PrintCreated("", files)
		ran = true
	}

	if flags.ToJSON != "" {
		var doc any = export.NewTreeDocument(cat.Title(), cat.Plan().Fields, cat.Tree())
		if flags.JSONFlat {
			doc = export.NewFlatDocument(cat.Title(), cat.ListSubtests(flags.SortField))
		}
		if flags.ToJSON == "-" {
			err = export.EncodeJSON(out, doc)
		} else {
			err = dc.storage.Save(flags.ToJSON, doc)
		}
		if err != nil {
			return inputs, fmt.Errorf("failed to write JSON: %w", err)
		}
		ran = true
	}

	if flags.ToDB != "" {
		if err := dc.exportDB(ctx, logger, cat); err != nil {
			return inputs, err
		}
		ran = true
	}

	if flags.Browse {
		if err := dc.viewer.View(cat.Title(), cat.ListSubtests(flags.SortField)); err != nil {
			return inputs, err
		}
		ran = true
	}

	if !ran || flags.Rest != "" {
		if err := dc.writeProse(cat, out); err != nil {
			return inputs, err
		}
	}
	return inputs, driftErr
}

// buildCatalog loads the plan, reads sources (and planning files with
// --include-plan) and merges them.
func (dc *DocCommand) buildCatalog(logger *zap.Logger, format export.Format) (*catalog.Catalog, []string, error) {
	flags := dc.config.Flags

	p, err := plan.Load(flags.ConfigFile)
	if err != nil {
		return nil, nil, err
	}
	inputs := []string{p.Path}
	logger.Debug("plan loaded", zap.Stringer("plan", p))

	// Plan globs are relative to the plan file, --files to the working directory.
	scanner := discovery.NewScanner(dc.config.PathsToIgnore)
	configDir := dc.config.GetConfigDir()
	var sources []string
	if len(flags.Files) > 0 {
		sources, err = scanner.Expand(flags.Files, "")
	} else {
		sources, err = scanner.Expand(p.Files, configDir)
	}
	if err != nil {
		return nil, inputs, err
	}
	var planning []string
	if flags.IncludePlan {
		if planning, err = scanner.Expand(p.PlanningFiles, configDir); err != nil {
			return nil, inputs, err
		}
	}
	inputs = append(inputs, planning...)
	inputs = append(inputs, sources...)

	var opts []discovery.ParserOption
	var bar *ui.ProgressBar
	if flags.Progress {
		bar = ui.NewProgressBar(len(planning) + len(sources))
		opts = append(opts, discovery.WithFileHook(bar.Visit))
	}
	planned := discovery.NewParser(p, logger, append(opts, discovery.WithPlanned(true))...)
	implemented := discovery.NewParser(p, logger, opts...)

	var cat *catalog.Catalog
	catOpts := []catalog.Option{
		catalog.WithLogger(logger),
		catalog.WithSplitter(export.NewSplitter(format, dc.config.BucketAliases)),
	}
	if flags.ListFromBinaries {
		catOpts = append(catOpts, catalog.WithBuildLoader(build.BinaryLoader{
			Runner: build.NewRunner(logger),
			Tests:  func() []string { return cat.TestNames() },
		}))
	}

	cat, err = catalog.New(p, concat(planned.Extract(planning), implemented.Extract(sources)), flags.IncludePlan, catOpts...)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return nil, inputs, err
	}
	return cat, inputs, nil
}

func (dc *DocCommand) exportDB(ctx context.Context, logger *zap.Logger, cat *catalog.Catalog) error {
	dsn := dc.config.GetDatabaseDSN()
	if dsn == "" {
		return domain.InvalidArgument("igtdoc", "--to-db needs a target or $%s", config.EnvDatabaseDSN)
	}
	store, err := storage.OpenSQL(ctx, dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	subtests := cat.ListSubtests(dc.config.Flags.SortField)
	if err := store.SaveSubtests(ctx, cat.Title(), subtests); err != nil {
		return err
	}
	logger.Info("catalog exported",
		zap.String("driver", store.Driver()),
		zap.Int("subtests", len(subtests)),
	)
	return nil
}

// writeProse writes reStructuredText to --rest, or to out without it.
func (dc *DocCommand) writeProse(cat *catalog.Catalog, out io.Writer) (err error) {
	flags := dc.config.Flags
	w := out
	if flags.Rest != "" {
		if err := os.MkdirAll(filepath.Dir(flags.Rest), 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		f, err := os.Create(flags.Rest)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", flags.Rest, err)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	if flags.PerTest {
		return export.RenderFlat(w, cat.Title(), cat.ListSubtests(flags.SortField))
	}
	return export.RenderNested(w, cat.Title(), cat.Tree())
}

// concat chains record sequences, stopping at the first error.
func concat(seqs ...iter.Seq2[domain.Record, error]) iter.Seq2[domain.Record, error] {
	return func(yield func(domain.Record, error) bool) {
		for _, seq := range seqs {
			for rec, err := range seq {
				if !yield(rec, err) || err != nil {
					return
				}
			}
		}
	}
}
