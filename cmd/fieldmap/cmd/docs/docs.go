// Package docs provides commands that generate CLI reference pages.
package docs

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/agentstation/fieldmap/internal/fsutil"
	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// NewCommand creates the docs command. root is the command tree to
// document.
func NewCommand(root *cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:    "docs",
		Short:  "Generate man pages or markdown reference",
		Hidden: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newManCommand(root))
	cmd.AddCommand(newMarkdownCommand(root))
	return cmd
}

func newManCommand(root *cobra.Command) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "man",
		Short: "Generate man pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ensureDir(dir); err != nil {
				return err
			}
			header := &doc.GenManHeader{
				Title:   "FIELDMAP",
				Section: "1",
				Source:  "fieldmap " + root.Version,
			}
			root.DisableAutoGenTag = true
			if err := doc.GenManTree(root, header, dir); err != nil {
				return errors.WrapIO("write", dir, err)
			}
			cmd.Printf("Man pages written to %s\n", dir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "man", "output directory")
	return cmd
}

func newMarkdownCommand(root *cobra.Command) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "markdown",
		Short: "Generate markdown reference pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := ensureDir(dir); err != nil {
				return err
			}
			root.DisableAutoGenTag = true
			if err := doc.GenMarkdownTree(root, dir); err != nil {
				return errors.WrapIO("write", dir, err)
			}
			cmd.Printf("Markdown reference written to %s\n", dir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "docs/cli", "output directory")
	return cmd
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(fsutil.ExpandHome(dir), constants.DirPermissions); err != nil {
		return errors.WrapIO("mkdir", dir, err)
	}
	return nil
}
