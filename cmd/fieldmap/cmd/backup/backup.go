// Package backup provides commands to export and import collection state.
package backup

import (
	"fmt"
	"io"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/agentstation/fieldmap/cmd/application"
	"github.com/agentstation/fieldmap/internal/cmd/output"
	"github.com/agentstation/fieldmap/internal/cmd/table"
	"github.com/agentstation/fieldmap/pkg/collection"
	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// stdio selects standard input or output instead of a file.
const stdio = "-"

// Clipboard access, replaced in tests.
var (
	writeClipboard = clipboard.WriteAll
	readClipboard  = clipboard.ReadAll
)

// Result describes a completed export or import.
type Result struct {
	Destination string   `json:"destination" yaml:"destination"`
	Collected   int      `json:"collected" yaml:"collected"`
	Areas       int      `json:"areas" yaml:"areas"`
	Warnings    []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// NewCommand creates the backup command with its subcommands.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "backup",
		GroupID: "management",
		Short:   "Export or import collection state",
		Long: `Backup writes collection state to a JSON document and restores it.

Files ending in .lz4 are compressed. Use "-" for standard input or output,
or --clipboard to copy the document to or from the system clipboard.`,
		Example: `  fieldmap backup export                      # fieldmap-backup-<date>.json
  fieldmap backup export state.json.lz4
  fieldmap backup export --clipboard
  fieldmap backup import state.json.lz4
  cat state.json | fieldmap backup import -`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(NewExportCommand(app))
	cmd.AddCommand(NewImportCommand(app))
	return cmd
}

// NewExportCommand writes a backup.
func NewExportCommand(app application.Application) *cobra.Command {
	var toClipboard bool
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export collection state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}

			var path string
			if len(args) == 1 {
				path = args[0]
			}

			b := client.ExportBackup()
			switch {
			case toClipboard:
				data, err := collection.MarshalBackup(b)
				if err != nil {
					return err
				}
				if err := writeClipboard(string(data)); err != nil {
					return errors.WrapIO("write", "clipboard", err)
				}
				path = "clipboard"
			case path == stdio:
				data, err := collection.MarshalBackup(b)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			default:
				if path == "" {
					path = collection.BackupFilename(b.ExportDate)
				}
				if err := collection.WriteBackupFile(path, b); err != nil {
					return err
				}
			}

			app.Logger().Info().
				Str("destination", path).
				Int("collected", len(b.Collected)).
				Msg("Backup exported")
			return printResult(cmd, app, Result{
				Destination: path,
				Collected:   len(b.Collected),
				Areas:       len(b.Visibility),
			})
		},
	}
	cmd.Flags().BoolVar(&toClipboard, "clipboard", false, "copy the backup to the clipboard")
	return cmd
}

// NewImportCommand restores a backup.
func NewImportCommand(app application.Application) *cobra.Command {
	var fromClipboard bool
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Replace collection state from a backup",
		Args: func(cmd *cobra.Command, args []string) error {
			if fromClipboard {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.Client(cmd.Context())
			if err != nil {
				return err
			}
			client.OnStorageWarning(func(err error) {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: backup applied but not saved: %v\n", err)
			})

			var (
				b      collection.Backup
				source string
			)
			switch {
			case fromClipboard:
				source = "clipboard"
				text, err := readClipboard()
				if err != nil {
					return errors.WrapIO("read", source, err)
				}
				if b, err = collection.ParseBackup([]byte(text)); err != nil {
					return err
				}
				if err := client.ImportBackup(b); err != nil {
					return err
				}
			case args[0] == stdio:
				source = "stdin"
				data, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), constants.MaxBackupSize+1))
				if err != nil {
					return errors.WrapIO("read", source, err)
				}
				if len(data) > constants.MaxBackupSize {
					return errors.NewMalformedDataError("backup", "", "backup exceeds size limit")
				}
				if b, err = collection.ParseBackup(data); err != nil {
					return err
				}
				if err := client.ImportBackup(b); err != nil {
					return err
				}
			default:
				source = args[0]
				if b, err = client.ImportFile(source); err != nil {
					return err
				}
			}

			return printResult(cmd, app, Result{
				Destination: source,
				Collected:   len(b.Collected),
				Areas:       len(b.Visibility),
				Warnings:    b.Warnings,
			})
		},
	}
	cmd.Flags().BoolVar(&fromClipboard, "clipboard", false, "read the backup from the clipboard")
	return cmd
}

func printResult(cmd *cobra.Command, app application.Application, r Result) error {
	p := output.NewPrinter(cmd.OutOrStdout(), output.DetectFormat(app.OutputFormat()))
	return p.Print(r, func(bool) table.Data {
		pairs := [][2]string{
			{"Location", r.Destination},
			{"Collected", strconv.Itoa(r.Collected)},
			{"Areas", strconv.Itoa(r.Areas)},
		}
		for i, w := range r.Warnings {
			pairs = append(pairs, [2]string{fmt.Sprintf("Warning %d", i+1), w})
		}
		return table.KeyValue(pairs)
	})
}
