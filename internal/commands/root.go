package commands

import (
	"github.com/spf13/cobra"

	"github.com/idelchi/gochunk/internal/config"
	"github.com/idelchi/gochunk/internal/encryption"
)

// NewRootCommand creates the root command with common configuration.
// Every flag can also be set through a GOCHUNK_<FLAG> environment variable.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "gochunk [flags] command [flags]",
		Short: "Chunked file encryption utility",
		Long: `A file encryption utility that splits its input into fixed-size chunks,
seals every chunk under its own one-time key and stores the keys in a keychain
encrypted under a single master key.
Provides commands for key generation, encryption, and decryption.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	root.SetVersionTemplate("{{ .Version }}\n")

	flags := root.PersistentFlags()

	flags.BoolP("show", "s", false, "Show the configuration and exit")
	flags.BoolP("quiet", "q", false, "Suppress non-error output")
	flags.BoolP("verbose", "v", false, "Enable debug output")
	flags.Bool("stats", false, "Print statistics after the run")

	flags.StringP("key", "k", "", "Path to the master key file (32 raw bytes)")
	flags.StringP("meta", "m", "", "Path to the encrypted keychain metadata file")
	flags.StringP("input", "i", "", "Input file or directory (encrypt), chunk directory (decrypt)")
	flags.StringP("output", "o", "", "Chunk directory (encrypt), output file (decrypt)")

	flags.String("cipher", encryption.SuiteAESGCM.String(), "AEAD suite: aes-256-gcm or chacha20-poly1305")
	flags.Int("chunk-size", encryption.DefaultChunkSize, "Plaintext bytes per chunk (at most 1 GiB)")

	root.AddCommand(NewEncryptCommand(cfg), NewDecryptCommand(cfg), NewKeygenCommand(cfg))

	return root
}
