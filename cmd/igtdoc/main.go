package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"igtdoc/internal/cli"
	"igtdoc/internal/cli/commands"
	"igtdoc/internal/config"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:     "igtdoc [flags] [source files...]",
		Short:   "IGT test documentation tool",
		Long:    `Builds documentation for IGT GPU tests from a test plan and the documentation blocks in test sources, checks it against a build and exports it as reStructuredText, JSON, test lists or a database.`,
		Version: version,
	}

	// Create initial config with defaults
	cfg := config.New()

	// Create flags struct (will be populated by command flags)
	var flags cli.Flags

	// Create commands with dependencies
	cmds := commands.NewCommands(cfg)

	// Register all commands
	cmds.Register(rootCmd, &flags, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute root command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
