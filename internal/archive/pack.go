package archive

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/idelchi/gochunk/internal/fault"
	"github.com/idelchi/gochunk/internal/fileutil"
)

// Summary describes a packed archive.
type Summary struct {
	Files    int
	Dirs     int
	Symlinks int
	Skipped  int
	Bytes    int64
}

// Pack writes a tar archive of dir to tarPath. Entry names are relative to dir.
// Regular files, directories and symlinks are stored; entries matching any
// exclude pattern are skipped, and so is the archive itself when tarPath lies inside dir.
func Pack(dir, tarPath string, excludes []string) (summary Summary, err error) {
	flt, err := NewFilter(excludes)
	if err != nil {
		return summary, fault.E(fault.ArchiveCreation, err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return summary, fault.E(fault.ArchiveCreation, fmt.Errorf("stat %q: %w", dir, err))
	}

	if !info.IsDir() {
		return summary, fault.Errorf(fault.ArchiveCreation, "%q is not a directory", dir)
	}

	tc, err := fileutil.NewTempContext(tarPath)
	if err != nil {
		return summary, fault.E(fault.ArchiveCreation, err)
	}

	defer tc.CleanupOnError(&err)

	own := ownPaths(tc.TmpName, tarPath)

	buffered := bufio.NewWriter(tc.TmpFile)
	writer := tar.NewWriter(buffered)

	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		if rel == "." {
			return nil
		}

		if abs, err := filepath.Abs(path); err == nil {
			if _, ok := own[abs]; ok {
				return nil
			}
		}

		name := filepath.ToSlash(rel)

		if flt.Excluded(name, entry.IsDir()) {
			summary.Skipped++

			if entry.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		return addEntry(writer, path, name, entry, &summary)
	})
	if err != nil {
		return summary, fault.E(fault.ArchiveCreation, fmt.Errorf("walking %q: %w", dir, err))
	}

	if err := writer.Close(); err != nil {
		return summary, fault.E(fault.ArchiveCreation, fmt.Errorf("closing archive: %w", err))
	}

	if err := buffered.Flush(); err != nil {
		return summary, fault.E(fault.ArchiveCreation, fmt.Errorf("flushing archive: %w", err))
	}

	if err := tc.Commit(0o600); err != nil {
		return summary, fault.E(fault.ArchiveCreation, err)
	}

	return summary, nil
}

func addEntry(writer *tar.Writer, path, name string, entry fs.DirEntry, summary *Summary) error {
	info, err := entry.Info()
	if err != nil {
		return err
	}

	var link string

	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		if link, err = os.Readlink(path); err != nil {
			return err
		}
	case info.IsDir(), info.Mode().IsRegular():
	default:
		// Sockets, devices and pipes have no portable tar form.
		summary.Skipped++

		return nil
	}

	header, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return fmt.Errorf("header for %q: %w", name, err)
	}

	header.Name = name
	header.Uname, header.Gname = "", ""

	if info.IsDir() {
		header.Name += "/"
	}

	if err := writer.WriteHeader(header); err != nil {
		return fmt.Errorf("writing header for %q: %w", name, err)
	}

	switch {
	case info.IsDir():
		summary.Dirs++
	case link != "":
		summary.Symlinks++
	default:
		n, err := copyFile(writer, path)
		if err != nil {
			return fmt.Errorf("adding %q: %w", name, err)
		}

		summary.Files++
		summary.Bytes += n
	}

	return nil
}

func copyFile(dst io.Writer, path string) (int64, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, err
	}
	defer file.Close()

	return io.Copy(dst, file)
}

// ownPaths returns the absolute paths of the archive being written.
func ownPaths(paths ...string) map[string]struct{} {
	own := make(map[string]struct{}, len(paths))

	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			own[abs] = struct{}{}
		}
	}

	return own
}
