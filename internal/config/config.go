// Package config holds the run configuration assembled from flags, environment and prompts.
package config

import (
	"errors"
	"fmt"

	"github.com/idelchi/gogen/pkg/validator"

	"github.com/idelchi/idxcrypt/internal/digest"
)

// MaxPasswordLen is the longest accepted password in bytes.
const MaxPasswordLen = 128

// ErrUsage indicates an error in command-line usage or configuration.
var ErrUsage = errors.New("usage error")

// Config is populated by viper from flags and IDXCRYPT_* variables.
type Config struct {
	// Password source
	Password     string `label:"--password"      mapstructure:"password"      mask:"filled" validate:"exclusive=--password-file"`
	PasswordFile string `label:"--password-file" mapstructure:"password-file"`

	// Crypto parameters
	Hash       string `label:"--hash"       mapstructure:"hash"       validate:"required,hashname"`
	Iterations int    `label:"--iterations" mapstructure:"iterations" validate:"min=1"`

	// Output handling
	Output             string `mapstructure:"output"`
	Parallel           int    `label:"--parallel" mapstructure:"parallel" validate:"min=1"`
	Quiet              bool   `mapstructure:"quiet"`
	Delete             bool   `mapstructure:"delete"`
	PreserveTimestamps bool   `mapstructure:"preserve-timestamps"`

	// File selection
	Include     []string `mapstructure:"include"`
	Exclude     []string `mapstructure:"exclude"`
	IncludeFrom string   `mapstructure:"include-from"`
	ExcludeFrom string   `mapstructure:"exclude-from"`

	// Run behaviour
	Show       bool   `mapstructure:"show"`
	Dry        bool   `mapstructure:"dry"`
	Stats      bool   `mapstructure:"stats"`
	NoSelftest bool   `mapstructure:"no-selftest"`
	Debug      bool   `mapstructure:"debug"`
	LogFormat  string `label:"--log-format" mapstructure:"log-format" validate:"oneof=human json"`

	// Set by the subcommand
	Decrypt bool `mapstructure:"-"`

	// Positional arguments
	Files []string `label:"paths" mapstructure:"-" validate:"min=1"`
}

// Algorithm returns the parsed PRF hash.
func (c Config) Algorithm() digest.Algorithm {
	alg, err := digest.Parse(c.Hash)
	if err != nil {
		return digest.Default
	}

	return alg
}

// Display returns the value of the Show field.
func (c Config) Display() bool {
	return c.Show
}

// Validate checks config against its struct tags. It returns a wrapped ErrUsage
// listing every violated rule.
func (c Config) Validate(config any) error {
	validator := validator.NewValidator()

	if err := register(validator); err != nil {
		return err
	}

	errs := validator.Validate(config)

	switch {
	case errs == nil:
		return nil
	case len(errs) == 1:
		return fmt.Errorf("%w: %w", ErrUsage, errs[0])
	case len(errs) > 1:
		return fmt.Errorf("%ws:\n%w", ErrUsage, errors.Join(errs...))
	}

	return nil
}

// ErrPassword is returned for an empty or oversized password.
var ErrPassword = errors.New("invalid password")

// ValidatePassword checks a resolved password, whichever source it came from.
func ValidatePassword(password []byte) error {
	switch {
	case len(password) == 0:
		return fmt.Errorf("%w: empty", ErrPassword)
	case len(password) > MaxPasswordLen:
		return fmt.Errorf("%w: longer than %d bytes", ErrPassword, MaxPasswordLen)
	}

	return nil
}
