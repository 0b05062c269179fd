package collection

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/agentstation/utc"
	"github.com/pierrec/lz4"

	"github.com/agentstation/fieldmap/internal/fsutil"
	"github.com/agentstation/fieldmap/pkg/constants"
	"github.com/agentstation/fieldmap/pkg/errors"
)

// CompressedSuffix marks backup files holding lz4 compressed JSON.
const CompressedSuffix = ".lz4"

// BackupFilename names a backup file after its export date.
func BackupFilename(exported utc.Time) string {
	return "fieldmap-backup-" + exported.Format(constants.TimeFormatFilename) + ".json"
}

// IsCompressed reports whether path names a compressed backup.
func IsCompressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), CompressedSuffix)
}

// Compress lz4 encodes data.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, errors.WrapIO("compress", "", err)
	}
	if err := zw.Close(); err != nil {
		return nil, errors.WrapIO("compress", "", err)
	}
	return buf.Bytes(), nil
}

// Decompress decodes lz4 data, refusing output larger than MaxBackupSize.
func Decompress(data []byte) ([]byte, error) {
	zr := lz4.NewReader(bytes.NewReader(data))
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(zr, constants.MaxBackupSize+1))
	if err != nil {
		return nil, errors.WrapParse("lz4", "", err)
	}
	if n > constants.MaxBackupSize {
		return nil, errors.NewMalformedDataError("backup", "", "decompressed backup exceeds size limit")
	}
	return buf.Bytes(), nil
}

// WriteBackupFile writes b to path, compressing when the path ends in .lz4.
func WriteBackupFile(path string, b Backup) error {
	data, err := MarshalBackup(b)
	if err != nil {
		return err
	}
	if IsCompressed(path) {
		if data, err = Compress(data); err != nil {
			return err
		}
	}
	return fsutil.WriteFileAtomic(path, data, constants.FilePermissions)
}

// ReadBackupFile reads and validates a backup file.
func ReadBackupFile(path string) (Backup, error) {
	f, err := os.Open(path)
	if err != nil {
		return Backup{}, errors.WrapIO("read", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only

	data, err := io.ReadAll(io.LimitReader(f, constants.MaxBackupSize+1))
	if err != nil {
		return Backup{}, errors.WrapIO("read", path, err)
	}
	if len(data) > constants.MaxBackupSize {
		return Backup{}, errors.NewMalformedDataError("backup", "", "backup file exceeds size limit")
	}
	if IsCompressed(path) {
		if data, err = Decompress(data); err != nil {
			return Backup{}, err
		}
	}
	return ParseBackup(data)
}
