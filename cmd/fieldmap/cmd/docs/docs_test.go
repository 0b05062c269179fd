package docs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoot() *cobra.Command {
	root := &cobra.Command{Use: "fieldmap", Version: "test"}
	root.AddCommand(&cobra.Command{Use: "report", Short: "Write a report", Run: func(*cobra.Command, []string) {}})
	root.AddCommand(NewCommand(root))
	return root
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		sub  string
		want string
	}{
		{"man", "fieldmap-report.1"},
		{"markdown", "fieldmap_report.md"},
	}
	for _, tt := range tests {
		t.Run(tt.sub, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			root := newRoot()
			root.SetOut(io.Discard)
			root.SetArgs([]string{"docs", tt.sub, "--dir", dir})
			require.NoError(t, root.Execute())

			_, err := os.Stat(filepath.Join(dir, tt.want))
			assert.NoError(t, err)
		})
	}
}
