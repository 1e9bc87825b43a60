// Package fileutil provides shared file operation helpers.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/idelchi/gochunk/internal/fault"
)

// TempContext holds state for an atomic file write operation.
type TempContext struct {
	TmpFile *os.File
	TmpName string
	OutPath string
}

// NewTempContext creates a temp file next to outPath for atomic writing.
// Caller must defer CleanupOnError.
func NewTempContext(outPath string) (*TempContext, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(outPath), ".tmp-*")
	if err != nil {
		return nil, fault.E(fault.FileCreation, fmt.Errorf("creating temporary file for %q: %w", outPath, err))
	}

	return &TempContext{
		TmpFile: tmpFile,
		TmpName: tmpFile.Name(),
		OutPath: outPath,
	}, nil
}

// Commit sets the permissions, closes the temp file and renames it onto the output path.
func (tc *TempContext) Commit(perm os.FileMode) error {
	if err := tc.TmpFile.Chmod(perm); err != nil {
		return fault.E(fault.Writing, fmt.Errorf("setting file permissions: %w", err))
	}

	if err := tc.TmpFile.Sync(); err != nil {
		return fault.E(fault.Writing, fmt.Errorf("syncing temporary file: %w", err))
	}

	if err := tc.TmpFile.Close(); err != nil {
		return fault.E(fault.Writing, fmt.Errorf("closing temporary file: %w", err))
	}

	if err := os.Rename(tc.TmpName, tc.OutPath); err != nil {
		return fault.E(fault.Writing, fmt.Errorf("renaming output file: %w", err))
	}

	return nil
}

// CleanupOnError closes the temp file and removes it if the write failed.
func (tc *TempContext) CleanupOnError(errp *error) {
	tc.TmpFile.Close() //nolint:errcheck,gosec // best-effort cleanup

	if *errp != nil {
		os.Remove(tc.TmpName) //nolint:errcheck,gosec // best-effort cleanup
	}
}

// WriteFileAtomic writes data to path through a temp file and a rename,
// so readers never observe a partially written file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	tc, err := NewTempContext(path)
	if err != nil {
		return err
	}

	defer tc.CleanupOnError(&err)

	if _, err := tc.TmpFile.Write(data); err != nil {
		return fault.E(fault.Writing, fmt.Errorf("writing %q: %w", path, err))
	}

	return tc.Commit(perm)
}

// Size returns the size of the file at path.
func Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %q: %w", path, err)
	}

	return info.Size(), nil
}
