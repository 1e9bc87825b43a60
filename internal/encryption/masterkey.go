package encryption

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/awnumar/memguard"

	"github.com/idelchi/gochunk/internal/fault"
	"github.com/idelchi/gochunk/internal/fileutil"
)

// ErrKeyExists is returned when generating a master key would overwrite an existing key file.
var ErrKeyExists = errors.New("key file already exists")

// NewMasterKey draws a fresh master key from r.
func NewMasterKey(r io.Reader) ([]byte, error) {
	key := make([]byte, KeySize)

	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fault.E(fault.CreateCypher, fmt.Errorf("generating master key: %w", err))
	}

	return key, nil
}

// GenerateMasterKey draws a fresh master key from r and writes it as raw bytes to path.
// Unless overwrite is set, an existing file at path is left alone and ErrKeyExists returned.
func GenerateMasterKey(path string, r io.Reader, overwrite bool) ([]byte, error) {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return nil, fault.E(fault.FileCreation, fmt.Errorf("%w: %q", ErrKeyExists, path))
		}
	}

	key, err := NewMasterKey(r)
	if err != nil {
		return nil, err
	}

	if err := fileutil.WriteFileAtomic(path, key, ownerReadWrite); err != nil {
		memguard.WipeBytes(key)

		return nil, fmt.Errorf("saving master key: %w", err)
	}

	return key, nil
}

// LoadMasterKey reads a raw master key from path and checks its length.
func LoadMasterKey(path string) ([]byte, error) {
	key, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fault.E(fault.FileOpen, fmt.Errorf("reading master key: %w", err))
	}

	if len(key) != KeySize {
		memguard.WipeBytes(key)

		return nil, fault.E(fault.CreateCypher, fmt.Errorf("master %w: %q holds %d bytes", ErrKeySize, path, len(key)))
	}

	return key, nil
}
