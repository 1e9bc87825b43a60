package encryption

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/awnumar/memguard"
	chunker "github.com/ipfs/boxo/chunker"
	"github.com/sirupsen/logrus"

	"github.com/idelchi/gochunk/internal/fault"
	"github.com/idelchi/gochunk/internal/fileutil"
	"github.com/idelchi/gochunk/internal/keychain"
)

const ownerReadWrite = 0o600

// EncryptFile splits inputPath into chunks, seals each one under a fresh key
// and nonce into outputDir, and writes the keychain sealed under masterKey to metaPath.
//
// The first failure aborts the run. Chunk files written before the failure are left in place.
//
//nolint:funlen
func (e *Engine) EncryptFile(inputPath, outputDir, metaPath string, masterKey []byte) (stats Stats, err error) {
	if len(masterKey) != KeySize {
		return stats, fault.E(fault.CreateCypher, fmt.Errorf("master %w: got %d", ErrKeySize, len(masterKey)))
	}

	log := e.logger.WithFields(logrus.Fields{
		"input":  inputPath,
		"output": outputDir,
		"suite":  e.suite.String(),
	})

	log.Debug("Starting encryption")

	input, err := os.Open(filepath.Clean(inputPath))
	if err != nil {
		return stats, fault.E(fault.BufferReadInitialize, fmt.Errorf("opening input: %w", err))
	}
	defer input.Close()

	splitter := chunker.NewSizeSplitter(bufio.NewReader(input), int64(e.chunkSize))

	var builder keychain.Builder
	defer builder.Wipe()

	for index := 0; ; index++ {
		window, err := splitter.NextBytes()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return stats, fault.E(fault.BufferRead, fmt.Errorf("reading chunk %d: %w", index, err))
		}

		record, err := e.newRecord(len(window))
		if err != nil {
			return stats, err
		}

		ciphertext, err := e.suite.EncryptChunk(window, record.Key[:], record.Nonce[:])
		if err != nil {
			return stats, fmt.Errorf("encrypting chunk %d: %w", index, err)
		}

		if err := writeChunk(ChunkPath(outputDir, index), ciphertext); err != nil {
			return stats, fmt.Errorf("writing chunk %d: %w", index, err)
		}

		builder.Append(record)

		stats.Chunks++
		stats.PlaintextBytes += int64(len(window))
		stats.CiphertextBytes += int64(len(ciphertext))

		e.report(Progress{Operation: Encrypting, Chunk: index, Bytes: stats.PlaintextBytes})
	}

	encoded, err := keychain.Marshal(builder.Freeze())
	if err != nil {
		return stats, err
	}
	defer memguard.WipeBytes(encoded)

	sealed, err := e.suite.EncryptKeychain(encoded, masterKey)
	if err != nil {
		return stats, fmt.Errorf("sealing keychain: %w", err)
	}

	if err := fileutil.WriteFileAtomic(metaPath, sealed, ownerReadWrite); err != nil {
		return stats, fmt.Errorf("writing metadata: %w", err)
	}

	stats.MetadataBytes = int64(len(sealed))

	log.WithFields(logrus.Fields{
		"chunks": stats.Chunks,
		"bytes":  stats.PlaintextBytes,
	}).Debug("Encryption finished")

	return stats, nil
}

// newRecord draws a fresh key and nonce for a chunk of n plaintext bytes.
func (e *Engine) newRecord(n int) (keychain.Record, error) {
	record := keychain.Record{Length: uint64(n)} //nolint:gosec // n is a non-negative read count

	if _, err := io.ReadFull(e.rand, record.Key[:]); err != nil {
		return keychain.Record{}, fault.E(fault.CypherEncrypt, fmt.Errorf("generating chunk key: %w", err))
	}

	if _, err := io.ReadFull(e.rand, record.Nonce[:]); err != nil {
		memguard.WipeBytes(record.Key[:])

		return keychain.Record{}, fault.E(fault.CypherEncrypt, fmt.Errorf("generating chunk nonce: %w", err))
	}

	return record, nil
}

func writeChunk(path string, ciphertext []byte) error {
	file, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, ownerReadWrite)
	if err != nil {
		return fault.E(fault.FileCreation, err)
	}

	writer := bufio.NewWriter(file)

	if _, err := writer.Write(ciphertext); err != nil {
		file.Close() //nolint:errcheck,gosec // the write error is reported

		return fault.E(fault.Writing, err)
	}

	if err := writer.Flush(); err != nil {
		file.Close() //nolint:errcheck,gosec // the write error is reported

		return fault.E(fault.Writing, err)
	}

	if err := file.Close(); err != nil {
		return fault.E(fault.Writing, err)
	}

	return nil
}
