// Package commands provides the command-line interface for the gochunk tool.
//
// It implements commands for:
//   - encryption of a file or an archived directory into chunks
//   - decryption of the chunks back into the original file
//   - master key generation
//
// The package handles command-line parsing, configuration validation,
// and environment variable binding through cobra and viper.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idelchi/gochunk/internal/config"
)

// EnvPrefix is the prefix of environment variables that override flags.
const EnvPrefix = "GOCHUNK"

// preRun returns a PreRunE handler that resolves flags and GOCHUNK_* variables
// into cfg and validates the configuration for op.
func preRun(cfg *config.Config, op config.Operation) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		v := viper.New()
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		v.AutomaticEnv()

		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("binding flags: %w", err)
		}

		if err := v.Unmarshal(cfg); err != nil {
			return fmt.Errorf("parsing configuration: %w", err)
		}

		cfg.Operation = op

		if cfg.Show {
			return show(cfg)
		}

		return cfg.Validate()
	}
}

// show prints the resolved configuration as YAML.
func show(cfg *config.Config) error {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("rendering configuration: %w", err)
	}

	fmt.Fprint(os.Stdout, string(out))

	return nil
}

// runUnlessShown skips fn when the configuration was only to be shown.
func runUnlessShown(cfg *config.Config, fn func(*config.Config) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		if cfg.Show {
			return nil
		}

		return fn(cfg)
	}
}
