package encryption

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/awnumar/memguard"
	"github.com/sirupsen/logrus"

	"github.com/idelchi/gochunk/internal/fault"
	"github.com/idelchi/gochunk/internal/fileutil"
	"github.com/idelchi/gochunk/internal/keychain"
)

// DecryptFile opens the keychain at metaPath with masterKey and reassembles
// the chunks in chunkDir, in keychain order, into outputPath.
//
// The output is written through a temporary file and only appears once every
// chunk decrypted. When purge is set and decryption succeeded, chunkDir,
// metaPath and keyPath are removed in that order. A purge failure is returned
// but leaves the decrypted output in place.
//
//nolint:funlen,cyclop
func (e *Engine) DecryptFile(
	chunkDir, metaPath, outputPath string,
	masterKey []byte,
	purge bool,
	keyPath string,
) (stats Stats, err error) {
	if len(masterKey) != KeySize {
		return stats, fault.E(fault.CreateCypher, fmt.Errorf("master %w: got %d", ErrKeySize, len(masterKey)))
	}

	log := e.logger.WithFields(logrus.Fields{
		"input":  chunkDir,
		"output": outputPath,
		"suite":  e.suite.String(),
	})

	log.Debug("Starting decryption")

	k, sealedSize, err := e.OpenKeychain(metaPath, masterKey)
	if err != nil {
		return stats, err
	}
	defer k.Wipe()

	stats.MetadataBytes = sealedSize

	log.WithFields(logrus.Fields{
		"chunks": k.Len(),
		"bytes":  k.PlaintextSize(),
	}).Debug("Opened keychain")

	if err := e.reassemble(k, chunkDir, outputPath, &stats); err != nil {
		return stats, err
	}

	log.WithFields(logrus.Fields{
		"chunks": stats.Chunks,
		"bytes":  stats.PlaintextBytes,
	}).Debug("Decryption finished")

	if !purge {
		return stats, nil
	}

	if err := Purge(chunkDir, metaPath, keyPath); err != nil {
		return stats, fmt.Errorf("purging after successful decryption: %w", err)
	}

	log.Debug("Purged chunks, metadata and key")

	return stats, nil
}

// OpenKeychain reads the sealed keychain at metaPath and decodes it.
// It also returns the size of the sealed blob.
func (e *Engine) OpenKeychain(metaPath string, masterKey []byte) (keychain.Keychain, int64, error) {
	sealed, err := readFile(metaPath)
	if err != nil {
		return keychain.Keychain{}, 0, fmt.Errorf("reading metadata: %w", err)
	}

	encoded, err := e.suite.DecryptKeychain(sealed, masterKey)
	if err != nil {
		return keychain.Keychain{}, 0, fmt.Errorf("opening keychain: %w", err)
	}
	defer memguard.WipeBytes(encoded)

	k, err := keychain.Unmarshal(encoded)
	if err != nil {
		return keychain.Keychain{}, 0, fmt.Errorf("decoding keychain: %w", err)
	}

	return k, int64(len(sealed)), nil
}

// reassemble decrypts every chunk of k in order into outputPath.
func (e *Engine) reassemble(k keychain.Keychain, chunkDir, outputPath string, stats *Stats) (err error) {
	tc, err := fileutil.NewTempContext(outputPath)
	if err != nil {
		return err
	}

	defer tc.CleanupOnError(&err)

	output := bufio.NewWriter(tc.TmpFile)

	for index := range k.Len() {
		record := k.Record(index)

		ciphertext, err := readFile(ChunkPath(chunkDir, index))
		if err != nil {
			return fmt.Errorf("reading chunk %d: %w", index, err)
		}

		plaintext, err := e.suite.DecryptChunk(ciphertext, record.Key[:], record.Nonce[:])
		if err != nil {
			return fmt.Errorf("decrypting chunk %d: %w", index, err)
		}

		if uint64(len(plaintext)) < record.Length {
			return fault.E(fault.Decode, fmt.Errorf("chunk %d: %w: %d < %d", index, ErrShortChunk, len(plaintext), record.Length))
		}

		if _, err := output.Write(plaintext[:record.Length]); err != nil {
			return fault.E(fault.Writing, fmt.Errorf("writing chunk %d: %w", index, err))
		}

		stats.Chunks++
		stats.PlaintextBytes += int64(record.Length) //nolint:gosec // bounded by the chunk plaintext length
		stats.CiphertextBytes += int64(len(ciphertext))

		e.report(Progress{Operation: Decrypting, Chunk: index, Total: k.Len(), Bytes: stats.PlaintextBytes})
	}

	if err := output.Flush(); err != nil {
		return fault.E(fault.Writing, fmt.Errorf("flushing output: %w", err))
	}

	return tc.Commit(ownerReadWrite)
}

// Purge removes the chunk directory, the metadata file and the key file, in that order.
// An empty keyPath skips the key file.
func Purge(chunkDir, metaPath, keyPath string) error {
	if err := os.RemoveAll(chunkDir); err != nil {
		return fault.E(fault.DirectoryDeletion, err)
	}

	if err := os.Remove(metaPath); err != nil {
		return fault.E(fault.FileDeletion, err)
	}

	if keyPath == "" {
		return nil
	}

	if err := os.Remove(keyPath); err != nil {
		return fault.E(fault.FileDeletion, err)
	}

	return nil
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fault.E(fault.FileOpen, err)
	}
	defer file.Close()

	data, err := io.ReadAll(bufio.NewReader(file))
	if err != nil {
		return nil, fault.E(fault.BufferRead, err)
	}

	return data, nil
}
