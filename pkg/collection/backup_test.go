package collection

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/fieldmap/pkg/errors"
)

func TestParseBackup(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantErr    bool
		collected  []string
		visibility VisibilityMap
		warnings   int
	}{
		{
			name:       "full document",
			input:      `{"version":1,"exportDate":"2025-01-02T03:04:05Z","collected":["a","b"],"visibility":{"R1:Hub":{"Ore":false}}}`,
			collected:  []string{"a", "b"},
			visibility: VisibilityMap{"R1:Hub": {"Ore": false}},
		},
		{
			name:  "empty object",
			input: `{}`,
		},
		{
			name:       "extra fields ignored",
			input:      `{"collected":[],"visibility":{},"theme":"dark"}`,
			collected:  []string{},
			visibility: VisibilityMap{},
		},
		{
			name:     "collected not an array",
			input:    `{"collected":{"a":true}}`,
			warnings: 1,
		},
		{
			name:     "collected null",
			input:    `{"collected":null}`,
			warnings: 1,
		},
		{
			name:     "visibility not an object",
			input:    `{"visibility":[1]}`,
			warnings: 1,
		},
		{
			name:      "newer version",
			input:     `{"version":7,"collected":["a"]}`,
			collected: []string{"a"},
			warnings:  1,
		},
		{name: "array top level", input: `[]`, wantErr: true},
		{name: "string top level", input: `"x"`, wantErr: true},
		{name: "null top level", input: `null`, wantErr: true},
		{name: "not json", input: `{`, wantErr: true},
		{name: "numeric id", input: `{"collected":["a",1]}`, wantErr: true},
		{name: "visibility inner not object", input: `{"visibility":{"R1:Hub":true}}`, wantErr: true},
		{name: "visibility value not bool", input: `{"visibility":{"R1:Hub":{"Ore":"no"}}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseBackup([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsMalformedData(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.collected, b.Collected)
			assert.Equal(t, tt.visibility, b.Visibility)
			assert.Len(t, b.Warnings, tt.warnings)
		})
	}
}

func TestParseBackupExportDate(t *testing.T) {
	b, err := ParseBackup([]byte(`{"exportDate":"2025-01-02T03:04:05Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-02T03:04:05Z", b.ExportDate.Format(time.RFC3339))

	b, err = ParseBackup([]byte(`{"exportDate":"yesterday"}`))
	require.NoError(t, err)
	assert.True(t, b.ExportDate.IsZero())
	assert.Len(t, b.Warnings, 1)
}

func TestBackupJSONRoundTrip(t *testing.T) {
	in := Backup{Version: 1, Collected: []string{"a"}, Visibility: VisibilityMap{"x": {"y": true}}}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out Backup
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in.Collected, out.Collected)
	assert.Equal(t, in.Visibility, out.Visibility)

	assert.Error(t, json.Unmarshal([]byte(`[1]`), &out))
}

func TestBackupFiles(t *testing.T) {
	s, _ := openStore(t)
	s.SetCollected("i1", true)
	s.SetVisibility("R1:Hub", "Ore", false)
	b := s.ExportBackup()

	for _, name := range []string{"progress.json", "progress.json.lz4"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, WriteBackupFile(path, b))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, IsCompressed(path), !json.Valid(raw))

			got, err := ReadBackupFile(path)
			require.NoError(t, err)
			assert.Equal(t, b.Collected, got.Collected)
			assert.Equal(t, b.Visibility, got.Visibility)
		})
	}
}

func TestReadBackupFileErrors(t *testing.T) {
	_, err := ReadBackupFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o600))
	_, err = ReadBackupFile(path)
	assert.True(t, errors.IsMalformedData(err))
}

func TestCompressRoundTrip(t *testing.T) {
	data := []byte(`{"collected":["a","b","c"]}`)
	packed, err := Compress(data)
	require.NoError(t, err)
	unpacked, err := Decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, data, unpacked)
}

func TestBackupFilename(t *testing.T) {
	ts, err := utc.Parse(time.RFC3339, "2025-03-04T05:06:07Z")
	require.NoError(t, err)
	assert.Equal(t, "fieldmap-backup-2025-03-04.json", BackupFilename(ts))
}
