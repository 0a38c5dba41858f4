// Package fileutil provides shared file operation helpers.
package fileutil

import (
	"os"
	"path/filepath"

	"github.com/idelchi/shadowenv/internal/errors"
)

// OwnerReadWrite is the permission given to every written container.
const OwnerReadWrite = 0o600

// TempContext holds state for an atomic file write operation:
// content goes to a hidden temp file beside the target and only
// appears at the target path on Commit.
type TempContext struct {
	Target  string
	TmpFile *os.File
	TmpName string

	committed bool
}

// NewTempContext creates a temp file in the directory of outPath.
// Caller must defer CleanupOnError.
func NewTempContext(outPath string) (*TempContext, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(outPath), ".tmp-*"+filepath.Ext(outPath))
	if err != nil {
		return nil, errors.IO("creating temporary file for", outPath, err)
	}

	return &TempContext{
		Target:  outPath,
		TmpFile: tmpFile,
		TmpName: tmpFile.Name(),
	}, nil
}

// Write appends data to the temp file.
func (tc *TempContext) Write(data []byte) (int, error) {
	n, err := tc.TmpFile.Write(data)
	if err != nil {
		return n, errors.IO("writing", tc.TmpName, err)
	}

	return n, nil
}

// Commit flushes the temp file and renames it over the target.
func (tc *TempContext) Commit() error {
	if err := tc.TmpFile.Sync(); err != nil {
		return errors.IO("syncing", tc.TmpName, err)
	}

	if err := tc.TmpFile.Close(); err != nil {
		return errors.IO("closing", tc.TmpName, err)
	}

	if err := os.Chmod(tc.TmpName, OwnerReadWrite); err != nil {
		return errors.IO("setting permissions on", tc.TmpName, err)
	}

	if err := os.Rename(tc.TmpName, tc.Target); err != nil {
		return errors.IO("renaming output to", tc.Target, err)
	}

	tc.committed = true

	return nil
}

// CleanupOnError closes the temp file and removes it if the write failed
// or was never committed.
func (tc *TempContext) CleanupOnError(errp *error) {
	tc.TmpFile.Close() //nolint:errcheck,gosec // best-effort cleanup

	if *errp != nil || !tc.committed {
		os.Remove(tc.TmpName) //nolint:errcheck,gosec // best-effort cleanup
	}
}

// Size returns the size of the file at path.
func Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, errors.IO("stat output", path, err)
	}

	return info.Size(), nil
}
