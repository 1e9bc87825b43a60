package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/gochunk/internal/config"
	"github.com/idelchi/gochunk/internal/logic"
)

// NewEncryptCommand creates a new cobra command for the encrypt subcommand.
func NewEncryptCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "encrypt [flags]",
		Aliases: []string{"enc"},
		Short:   "Encrypt a file or directory into chunks",
		Long: `Encrypt the input into chunk_<i>.enc files in the output directory.
A new master key is generated at --key unless --reuse-key is given.
With --directory the input directory is archived first.`,
		Args:    cobra.NoArgs,
		PreRunE: preRun(cfg, config.Encrypt),
		RunE:    runUnlessShown(cfg, logic.RunEncrypt),
	}

	cmd.Flags().BoolP("directory", "d", false, "Archive and encrypt a directory")
	cmd.Flags().StringSliceP("exclude", "x", nil, "Glob patterns of paths to leave out of the archive")
	cmd.Flags().String("exclude-from", "", "JSONC file with an array of exclude patterns")
	cmd.Flags().Bool("reuse-key", false, "Encrypt with the existing key file instead of generating one")

	return cmd
}
