// Package logic implements the core business logic for the encrypt, decrypt and keygen commands.
package logic

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/awnumar/memguard"
	"github.com/sirupsen/logrus"

	"github.com/idelchi/gochunk/internal/archive"
	"github.com/idelchi/gochunk/internal/config"
	"github.com/idelchi/gochunk/internal/encryption"
	"github.com/idelchi/gochunk/internal/fault"
)

// ArchiveName is the temporary tar file a directory is packed into before encryption.
const ArchiveName = "archive.tar"

// ErrInputKind is returned when the input does not match the --directory flag.
var ErrInputKind = errors.New("input kind does not match --directory")

// RunEncrypt resolves the master key, prepares the output directory and
// encrypts the input file, or the input directory after archiving it.
//
//nolint:funlen
func RunEncrypt(cfg *config.Config) (err error) {
	start := time.Now()
	log := NewLogger(cfg)

	info, err := os.Stat(cfg.Input)
	if err != nil {
		return fault.E(fault.FileOpen, fmt.Errorf("stat input: %w", err))
	}

	if info.IsDir() != cfg.Directory {
		if info.IsDir() {
			return fmt.Errorf("%w: %q is a directory", ErrInputKind, cfg.Input)
		}

		return fmt.Errorf("%w: %q is not a directory", ErrInputKind, cfg.Input)
	}

	masterKey, generated, err := resolveMasterKey(cfg, log)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(masterKey)

	var sealed bool

	if generated {
		// Drop a key that sealed no keychain so a retry can generate a new one.
		defer func() {
			if err == nil || sealed {
				return
			}

			if rmErr := os.Remove(cfg.Key); rmErr != nil {
				err = errors.Join(err, fault.E(fault.FileDeletion, fmt.Errorf("removing unused master key: %w", rmErr)))
			}
		}()
	}

	if err := os.MkdirAll(cfg.Output, 0o700); err != nil {
		return fault.E(fault.DirectoryCreation, fmt.Errorf("creating %q: %w", cfg.Output, err))
	}

	input := cfg.Input

	var packed *archive.Summary

	if cfg.Directory {
		excludes, err := loadExcludes(cfg)
		if err != nil {
			return err
		}

		input = filepath.Join(cfg.Output, ArchiveName)

		summary, err := archive.Pack(cfg.Input, input, excludes)
		if err != nil {
			return fmt.Errorf("archiving %q: %w", cfg.Input, err)
		}

		packed = &summary

		log.WithFields(logrus.Fields{
			"files":   summary.Files,
			"skipped": summary.Skipped,
		}).Debug("Archived directory")

		defer func() {
			if rmErr := os.Remove(input); rmErr != nil {
				err = errors.Join(err, fault.E(fault.FileDeletion, fmt.Errorf("removing temporary archive: %w", rmErr)))
			}
		}()
	}

	preflight(input, cfg.Output, cfg.ChunkSize, log)

	engine, events, err := newEngine(cfg, log)
	if err != nil {
		return err
	}

	stats, err := run(events, cfg.Quiet, func() (encryption.Stats, error) {
		return engine.EncryptFile(input, cfg.Output, cfg.Meta, masterKey)
	})

	sealed = err == nil

	if cfg.Stats {
		printStats(stats, packed, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("encrypting %q: %w", cfg.Input, err)
	}

	if cfg.Directory {
		log.Info("Encryption (directory) complete.")
	} else {
		log.Info("Encryption (file) complete.")
	}

	return nil
}

// RunDecrypt loads the master key and reassembles the original file,
// optionally extracting a decrypted archive. Purging runs last, only once
// decryption and extraction both succeeded.
func RunDecrypt(cfg *config.Config) error {
	start := time.Now()
	log := NewLogger(cfg)

	masterKey, err := encryption.LoadMasterKey(cfg.Key)
	if err != nil {
		return err
	}
	defer memguard.WipeBytes(masterKey)

	engine, events, err := newEngine(cfg, log)
	if err != nil {
		return err
	}

	// Purging waits for extraction so a failed unpack still leaves the chunks behind.
	stats, err := run(events, cfg.Quiet, func() (encryption.Stats, error) {
		return engine.DecryptFile(cfg.Input, cfg.Meta, cfg.Output, masterKey, false, cfg.Key)
	})

	var extracted *archive.Summary

	if err == nil && cfg.Extract != "" {
		summary, extractErr := archive.Unpack(cfg.Output, cfg.Extract)
		if extractErr != nil {
			err = fmt.Errorf("extracting into %q: %w", cfg.Extract, extractErr)
		}

		extracted = &summary
	}

	if err == nil && cfg.Purge {
		if purgeErr := encryption.Purge(cfg.Input, cfg.Meta, cfg.Key); purgeErr != nil {
			err = fmt.Errorf("purging after successful decryption: %w", purgeErr)
		}
	}

	if cfg.Stats {
		printStats(stats, extracted, time.Since(start))
	}

	if err != nil {
		return fmt.Errorf("decrypting %q: %w", cfg.Input, err)
	}

	if cfg.Purge {
		log.Info("Removed chunks, metadata and key file.")
	}

	log.Info("Decryption complete.")

	return nil
}

// RunKeygen writes a fresh master key to the key file.
func RunKeygen(cfg *config.Config) error {
	log := NewLogger(cfg)

	key, err := encryption.GenerateMasterKey(cfg.Key, rand.Reader, cfg.Force)
	if err != nil {
		return err
	}

	memguard.WipeBytes(key)

	log.Infof("Master key written to %q.", cfg.Key)

	return nil
}

// resolveMasterKey generates a new key at --key, or loads it with --reuse-key.
// generated reports whether the key file was written by this call.
func resolveMasterKey(cfg *config.Config, log logrus.FieldLogger) (key []byte, generated bool, err error) {
	if cfg.ReuseKey {
		log.WithField("key", cfg.Key).Debug("Reusing master key")

		key, err = encryption.LoadMasterKey(cfg.Key)

		return key, false, err
	}

	key, err = encryption.GenerateMasterKey(cfg.Key, rand.Reader, false)
	if errors.Is(err, encryption.ErrKeyExists) {
		return nil, false, fmt.Errorf("%w (pass --reuse-key to encrypt with it)", err)
	}

	if err != nil {
		return nil, false, err
	}

	log.WithField("key", cfg.Key).Debug("Generated master key")

	return key, true, nil
}

// newEngine builds an engine whose progress events are delivered on the returned channel.
func newEngine(cfg *config.Config, log logrus.FieldLogger) (*encryption.Engine, chan encryption.Progress, error) {
	suite, err := encryption.ParseSuite(cfg.Cipher)
	if err != nil {
		return nil, nil, err
	}

	const buffered = 64

	events := make(chan encryption.Progress, buffered)

	engine, err := encryption.NewEngine(encryption.Options{
		ChunkSize:  cfg.ChunkSize,
		Suite:      suite,
		Logger:     log,
		OnProgress: func(p encryption.Progress) { events <- p },
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating engine: %w", err)
	}

	return engine, events, nil
}

// loadExcludes merges --exclude with the patterns from --exclude-from.
func loadExcludes(cfg *config.Config) ([]string, error) {
	excludes := append([]string{}, cfg.Exclude...)

	if cfg.ExcludeFrom != "" {
		patterns, err := archive.LoadPatterns(cfg.ExcludeFrom)
		if err != nil {
			return nil, fmt.Errorf("loading exclude patterns: %w", err)
		}

		excludes = append(excludes, patterns...)
	}

	return excludes, nil
}
