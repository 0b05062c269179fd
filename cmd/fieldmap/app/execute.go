package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmap/cmd/fieldmap/cmd/backup"
	"github.com/agentstation/fieldmap/cmd/fieldmap/cmd/collect"
	"github.com/agentstation/fieldmap/cmd/fieldmap/cmd/docs"
	"github.com/agentstation/fieldmap/cmd/fieldmap/cmd/list"
	"github.com/agentstation/fieldmap/cmd/fieldmap/cmd/report"
	"github.com/agentstation/fieldmap/cmd/fieldmap/cmd/serve"
	"github.com/agentstation/fieldmap/cmd/fieldmap/cmd/update"
	"github.com/agentstation/fieldmap/cmd/fieldmap/cmd/version"
	"github.com/agentstation/fieldmap/internal/cmd/output"
)

const rootLong = `Fieldmap tracks which collectible items you have picked up across the
areas of a game map.

Items are grouped into classifications per area. Progress is stored in a
local state directory by default, or in redis or postgres when several
machines share it. The same state can be served over HTTP with live
updates for browser clients.`

// Execute runs the CLI with args.
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *App) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:               "fieldmap",
		Short:             "Map collection tracker",
		Long:              rootLong,
		Version:           a.version,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	root.SetVersionTemplate("fieldmap {{.Version}}\n")
	root.AddGroup(
		&cobra.Group{ID: "core", Title: "Core Commands:"},
		&cobra.Group{ID: "management", Title: "Management Commands:"},
	)

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default is $HOME/.fieldmap.yaml)")
	pf.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	pf.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	pf.Bool("no-color", false, "disable colored output")
	pf.StringP("format", "o", "", "output format: table, wide, json, yaml")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error, off (overrides -v/-q)")

	root.AddCommand(
		list.NewCommand(a),
		collect.NewCommand(a),
		report.NewCommand(a),
		serve.NewCommand(a),
		backup.NewCommand(a),
		update.NewCommand(a),
		version.NewCommand(a),
	)
	root.AddCommand(docs.NewCommand(root))
	return root
}

// rootFlags are the persistent flags as parsed for the running command.
type rootFlags struct {
	config          string
	verbose, quiet  bool
	noColor         bool
	format, level   string
	configRequested bool
}

func parseRootFlags(cmd *cobra.Command) (rootFlags, error) {
	f := cmd.Flags()
	var (
		rf   rootFlags
		errs []error
	)
	note := func(err error) { errs = append(errs, err) }

	var err error
	rf.config, err = f.GetString("config")
	note(err)
	rf.verbose, err = f.GetBool("verbose")
	note(err)
	rf.quiet, err = f.GetBool("quiet")
	note(err)
	rf.noColor, err = f.GetBool("no-color")
	note(err)
	rf.format, err = f.GetString("format")
	note(err)
	rf.level, err = f.GetString("log-level")
	note(err)
	rf.configRequested = f.Changed("config")
	return rf, errors.Join(errs...)
}

// setupCommand loads an explicit config file, applies flags and builds
// the logger before any subcommand runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	rf, err := parseRootFlags(cmd)
	if err != nil {
		return fmt.Errorf("reading flags: %w", err)
	}
	if _, err := output.ParseFormat(rf.format); err != nil {
		return err
	}

	if rf.configRequested {
		config, err := LoadConfig(rf.config)
		if err != nil {
			return err
		}
		a.config = config
	}
	a.config.UpdateFromFlags(rf.verbose, rf.quiet, rf.noColor, rf.format, rf.level)

	logger := NewLogger(a.config)
	a.logger = &logger
	return nil
}

// ExitCode maps a command error to a process exit status and reports it
// on w. Interrupts exit with 130.
func ExitCode(w io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return 1
}
