package logic

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/idelchi/gochunk/internal/encryption"
)

// run executes op alongside a printer goroutine that renders progress events.
// op must be the only sender on events; the channel is closed once op returns.
func run(
	events chan encryption.Progress,
	quiet bool,
	op func() (encryption.Stats, error),
) (stats encryption.Stats, err error) {
	group := errgroup.Group{}

	group.Go(func() error {
		printProgress(os.Stderr, events, quiet)

		return nil
	})

	group.Go(func() error {
		defer close(events)

		stats, err = op()

		return err
	})

	_ = group.Wait() //nolint:errcheck // op's error is returned through err

	return stats, err
}

// printProgress drains events, rewriting a single status line per chunk.
func printProgress(w io.Writer, events <-chan encryption.Progress, quiet bool) {
	var printed bool

	for p := range events {
		if quiet {
			continue
		}

		fmt.Fprintf(w, "\r%s", progressLine(p))

		printed = true
	}

	if printed {
		fmt.Fprintln(w)
	}
}

func progressLine(p encryption.Progress) string {
	verb := "Encrypting"
	if p.Operation == encryption.Decrypting {
		verb = "Decrypting"
	}

	//nolint:gosec // Bytes is a running total of non-negative lengths
	done := humanize.IBytes(uint64(p.Bytes))

	if p.Total > 0 {
		return fmt.Sprintf("[ INF ] %s chunk %d/%d (%s)", verb, p.Chunk+1, p.Total, done)
	}

	return fmt.Sprintf("[ INF ] %s chunk %d (%s)", verb, p.Chunk+1, done)
}
