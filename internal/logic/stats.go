package logic

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/gochunk/internal/archive"
	"github.com/idelchi/gochunk/internal/encryption"
)

//nolint:gosec // sizes are sums of non-negative lengths
func printStats(stats encryption.Stats, tarred *archive.Summary, duration time.Duration) {
	fmt.Fprintf(os.Stderr, "\nStats\n")
	fmt.Fprintf(os.Stderr, "  Chunks:     %d\n", stats.Chunks)
	fmt.Fprintf(os.Stderr, "  Plaintext:  %s\n", humanize.IBytes(uint64(max(0, stats.PlaintextBytes))))
	fmt.Fprintf(os.Stderr, "  Ciphertext: %s\n", humanize.IBytes(uint64(max(0, stats.CiphertextBytes))))
	fmt.Fprintf(os.Stderr, "  Metadata:   %s\n", humanize.IBytes(uint64(max(0, stats.MetadataBytes))))

	if tarred != nil {
		fmt.Fprintf(os.Stderr, "  Files:      %d\n", tarred.Files)
		fmt.Fprintf(os.Stderr, "  Excluded:   %d\n", tarred.Skipped)
	}

	fmt.Fprintf(os.Stderr, "  Duration:   %s\n", duration.Round(time.Millisecond))
}
