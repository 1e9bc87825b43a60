package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/idelchi/gochunk/internal/config"
	"github.com/idelchi/gochunk/internal/logic"
)

// NewDecryptCommand creates a new cobra command for the decrypt subcommand.
func NewDecryptCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "decrypt [flags]",
		Aliases: []string{"dec"},
		Short:   "Reassemble the original file from its chunks",
		Args:    cobra.NoArgs,
		PreRunE: preRun(cfg, config.Decrypt),
		RunE:    runUnlessShown(cfg, logic.RunDecrypt),
	}

	cmd.Flags().BoolP("purge", "c", false, "Remove chunks, metadata and key file after a successful decryption")
	cmd.Flags().String("extract", "", "Unpack the decrypted archive into this directory")

	cmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "clear" {
			name = "purge"
		}

		return pflag.NormalizedName(name)
	})

	return cmd
}
