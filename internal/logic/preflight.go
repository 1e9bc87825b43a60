package logic

import (
	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/disk"
	"github.com/sirupsen/logrus"

	"github.com/idelchi/gochunk/internal/encryption"
	"github.com/idelchi/gochunk/internal/fileutil"
)

// required estimates the bytes the chunk files take for an input of size bytes.
func required(size int64, chunkSize int) uint64 {
	if size <= 0 {
		return 0
	}

	chunks := (size + int64(chunkSize) - 1) / int64(chunkSize)

	//nolint:gosec // both terms are non-negative
	return uint64(size + chunks*encryption.TagSize)
}

// preflight warns when the filesystem holding outputDir looks too small for the chunks.
// It never fails the run; the check is advisory.
func preflight(inputPath, outputDir string, chunkSize int, log logrus.FieldLogger) {
	size, err := fileutil.Size(inputPath)
	if err != nil {
		return
	}

	usage, err := disk.Usage(outputDir)
	if err != nil {
		log.WithError(err).Debug("Skipping disk space check")

		return
	}

	need := required(size, chunkSize)

	if usage.Free < need {
		log.WithFields(logrus.Fields{
			"free":     humanize.IBytes(usage.Free),
			"required": humanize.IBytes(need),
		}).Warn("Output filesystem may not have enough free space")
	}
}
