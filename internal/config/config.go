// Package config holds the resolved command-line configuration and its validation rules.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Operation names the subcommand a configuration was resolved for.
type Operation string

const (
	// Encrypt splits and encrypts a file or an archived directory.
	Encrypt Operation = "encrypt"
	// Decrypt reassembles the original file from its chunks.
	Decrypt Operation = "decrypt"
	// Keygen writes a fresh master key.
	Keygen Operation = "keygen"
)

// Config is populated from flags and GOCHUNK_* environment variables.
type Config struct {
	// Common flags
	Key       string `label:"--key"        validate:"required"`
	Meta      string `label:"--meta"       validate:"required_unless=Operation keygen,distinct=Key"`
	Input     string `label:"--input"      validate:"required_unless=Operation keygen,distinct=Key,distinct=Meta"`
	Output    string `label:"--output"     validate:"required_unless=Operation keygen,distinct=Key,distinct=Meta,distinct=Input"` //nolint:lll
	Cipher    string `label:"--cipher"     validate:"required,suite"`
	ChunkSize int    `label:"--chunk-size" validate:"min=1,max=1073741824" mapstructure:"chunk-size"`
	Quiet     bool   `label:"--quiet"`
	Verbose   bool   `label:"--verbose"    validate:"exclusive=Quiet"`
	Stats     bool   `label:"--stats"`
	Show      bool   `label:"--show"`

	// Encrypt flags
	Directory   bool     `label:"--directory"`
	Exclude     []string `label:"--exclude"`
	ExcludeFrom string   `label:"--exclude-from" mapstructure:"exclude-from"`
	ReuseKey    bool     `label:"--reuse-key"    mapstructure:"reuse-key"`

	// Decrypt flags
	Purge   bool   `label:"--purge"`
	Extract string `label:"--extract" validate:"omitempty,distinct=Output"`

	// Keygen flags
	Force bool `label:"--force"`

	// Set by the subcommand, not by flags.
	Operation Operation `mapstructure:"-" yaml:"-"`
}

// Validate validates the configuration against the struct tags.
func (c Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := register(validate); err != nil {
		return err
	}

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating configuration: %w", humanize(err))
	}

	if c.Operation != Encrypt && (c.Directory || len(c.Exclude) > 0 || c.ExcludeFrom != "" || c.ReuseKey) {
		return fmt.Errorf("validating configuration: %w", ErrEncryptOnly)
	}

	if c.Operation != Decrypt && (c.Purge || c.Extract != "") {
		return fmt.Errorf("validating configuration: %w", ErrDecryptOnly)
	}

	return nil
}

var (
	// ErrEncryptOnly is returned when encrypt-only options reach another operation.
	ErrEncryptOnly = errors.New("--directory, --exclude, --exclude-from and --reuse-key apply to encrypt only")
	// ErrDecryptOnly is returned when decrypt-only options reach another operation.
	ErrDecryptOnly = errors.New("--purge and --extract apply to decrypt only")
)

// humanize turns validator field errors into one readable line per failed rule.
func humanize(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	messages := make([]string, 0, len(fieldErrors))

	for _, fe := range fieldErrors {
		messages = append(messages, describe(fe))
	}

	return errors.New(strings.Join(messages, "; ")) //nolint:err113
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_unless":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "distinct":
		return fe.Field() + " must differ from " + labelOf(fe.Param())
	case "exclusive":
		return fe.Field() + " is mutually exclusive with " + labelOf(fe.Param())
	case "suite":
		return fmt.Sprintf("%s %q is not a supported cipher", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}
