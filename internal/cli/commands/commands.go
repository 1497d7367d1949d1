package commands

import (
	"github.com/spf13/cobra"

	"igtdoc/internal/cli"
	"igtdoc/internal/config"
	"igtdoc/internal/logging"
	"igtdoc/internal/ui"
)

// Commands holds all CLI commands
type Commands struct {
	Doc *DocCommand
}

// NewCommands creates all commands with dependencies
func NewCommands(cfg *config.Config) *Commands {
	return &Commands{
		Doc: NewDocCommand(cfg, ui.NewCatalogViewer(), logging.New),
	}
}

// Register wires the documentation flags onto the root command
func (c *Commands) Register(rootCmd *cobra.Command, flags *cli.Flags, cfg *config.Config) {
	rootCmd.Args = cobra.ArbitraryArgs
	rootCmd.RunE = c.Doc.Execute
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		// Update config with flags after parsing; positional args are source files
		cfg.Flags = flags.ToConfigFlags(args...)
		return cfg.LoadEnv()
	}

	f := rootCmd.Flags()
	f.StringVar(&flags.ConfigFile, "config", "", "Test plan config file (JSON, or YAML by extension)")
	f.StringVar(&flags.Rest, "rest", "", "Write reStructuredText documentation to this file (stdout when no other action runs)")
	f.BoolVar(&flags.PerTest, "per-test", false, "Write flat documentation, one block per subtest")
	f.StringVar(&flags.ToJSON, "to-json", "", "Write the documentation as JSON to this file (\"-\" for stdout)")
	f.BoolVar(&flags.JSONFlat, "json-flat", false, "Write a flat subtest list instead of the group tree with --to-json")
	f.BoolVar(&flags.ShowSubtests, "show-subtests", false, "List the documented subtests")
	f.StringVar(&flags.SortField, "sort-field", "", "Sort and group output by this field")
	f.StringArrayVar(&flags.FilterFields, "filter-field", nil, "Only include subtests matching field=~regex (repeatable)")
	f.BoolVar(&flags.CheckTestlist, "check-testlist", false, "Compare documentation with the tests the build produced")
	f.BoolVar(&flags.ListFromBinaries, "list-from-binaries", false, "Ask test binaries for their subtests instead of reading the build listing")
	f.BoolVar(&flags.IncludePlan, "include-plan", false, "Include planned tests that have no implementation")
	f.StringVar(&flags.BuildPath, "igt-build-path", "", "IGT build directory (default \""+config.DefaultBuildPath+"\" or $"+config.EnvBuildPath+")")
	f.StringVar(&flags.GenTestlist, "gen-testlist", "", "Write one file per --sort-field value into this directory")
	f.StringVar(&flags.TestlistFormat, "testlist-format", "", "Format of --gen-testlist files: rest or testlist (default \""+config.DefaultTestlistFormat+"\")")
	f.StringArrayVar(&flags.Files, "files", nil, "Source files, directories or globs to read (default: the config's files)")
	f.StringVar(&flags.ToDB, "to-db", "", "Export subtests to sqlite://<path>, mysql://<dsn> or mysql (bare flag: $"+config.EnvDatabaseDSN+")")
	f.Lookup("to-db").NoOptDefVal = config.DSNFromEnv
	f.BoolVar(&flags.Browse, "browse", false, "Browse the filtered subtests in a terminal UI")
	f.BoolVar(&flags.Watch, "watch", false, "Re-run whenever the config or a source file changes")
	f.BoolVar(&flags.Progress, "progress", false, "Show a progress bar while reading sources")
	f.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")
	_ = rootCmd.MarkFlagRequired("config")
}
