package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/gochunk/internal/config"
	"github.com/idelchi/gochunk/internal/logic"
)

// NewKeygenCommand creates a new cobra command that writes a fresh master key.
func NewKeygenCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "keygen [flags]",
		Aliases: []string{"gen"},
		Short:   "Generate a new master key file",
		Args:    cobra.NoArgs,
		PreRunE: preRun(cfg, config.Keygen),
		RunE:    runUnlessShown(cfg, logic.RunKeygen),
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing key file")

	return cmd
}
