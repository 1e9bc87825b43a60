// Command gochunk encrypts files and directories into independently keyed chunks.
package main

import (
	"fmt"
	"os"

	"github.com/idelchi/gochunk/internal/commands"
	"github.com/idelchi/gochunk/internal/config"
)

// Global variable for CI stamping.
var version = "unknown - unofficial & generated by unknown"

func main() {
	cfg := &config.Config{}

	root := commands.NewRootCommand(cfg, version)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[ ERR ] %v\n", err)

		os.Exit(1)
	}
}
