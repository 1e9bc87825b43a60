package archive

import (
	"archive/tar"
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/idelchi/gochunk/internal/fault"
)

// ErrUnsafePath is returned for archive entries that would land outside the target directory.
var ErrUnsafePath = errors.New("entry escapes target directory")

// Unpack extracts the tar archive at tarPath into dir, creating dir if needed.
// Entries with absolute names, ".." components or symlinks pointing outside
// dir are rejected before anything is written for them.
func Unpack(tarPath, dir string) (summary Summary, err error) {
	file, err := os.Open(filepath.Clean(tarPath))
	if err != nil {
		return summary, fault.E(fault.ArchiveExtraction, fmt.Errorf("opening archive: %w", err))
	}
	defer file.Close()

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return summary, fault.E(fault.ArchiveExtraction, fmt.Errorf("creating %q: %w", dir, err))
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return summary, fault.E(fault.ArchiveExtraction, err)
	}

	reader := tar.NewReader(bufio.NewReader(file))

	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return summary, nil
		}

		if err != nil {
			return summary, fault.E(fault.ArchiveExtraction, fmt.Errorf("reading archive: %w", err))
		}

		if err := extract(reader, header, root, &summary); err != nil {
			return summary, fault.E(fault.ArchiveExtraction, err)
		}
	}
}

func extract(reader io.Reader, header *tar.Header, root string, summary *Summary) error {
	target, err := within(root, header.Name)
	if err != nil {
		return err
	}

	mode := header.FileInfo().Mode().Perm()

	switch header.Typeflag {
	case tar.TypeDir:
		if err := os.MkdirAll(target, mode|0o700); err != nil {
			return fmt.Errorf("creating directory %q: %w", header.Name, err)
		}

		summary.Dirs++
	case tar.TypeReg:
		if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
			return fmt.Errorf("creating parent of %q: %w", header.Name, err)
		}

		n, err := writeFile(target, reader, mode)
		if err != nil {
			return fmt.Errorf("extracting %q: %w", header.Name, err)
		}

		summary.Files++
		summary.Bytes += n
	case tar.TypeSymlink:
		if filepath.IsAbs(header.Linkname) {
			return fmt.Errorf("%w: symlink %q -> %q", ErrUnsafePath, header.Name, header.Linkname)
		}

		if _, err := within(root, filepath.Join(filepath.Dir(header.Name), header.Linkname)); err != nil {
			return fmt.Errorf("symlink %q -> %q: %w", header.Name, header.Linkname, err)
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
			return fmt.Errorf("creating parent of %q: %w", header.Name, err)
		}

		if err := os.Symlink(header.Linkname, target); err != nil {
			return fmt.Errorf("creating symlink %q: %w", header.Name, err)
		}

		summary.Symlinks++
	default:
		summary.Skipped++
	}

	return nil
}

// within resolves name below root and rejects results that leave it.
func within(root, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}

	target := filepath.Join(root, filepath.FromSlash(name))

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}

	return target, nil
}

func writeFile(path string, reader io.Reader, mode os.FileMode) (int64, error) {
	file, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode|0o600)
	if err != nil {
		return 0, err
	}

	writer := bufio.NewWriter(file)

	n, err := io.Copy(writer, reader) //nolint:gosec // archive was produced by Pack and authenticated on decryption
	if err != nil {
		file.Close() //nolint:errcheck,gosec // the copy error is reported

		return n, err
	}

	if err := writer.Flush(); err != nil {
		file.Close() //nolint:errcheck,gosec // the flush error is reported

		return n, err
	}

	return n, file.Close()
}
