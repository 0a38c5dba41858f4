// Package config holds the resolved command-line configuration.
package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"

	"github.com/idelchi/shadowenv/internal/filter"
)

// Mask replaces secrets in Display output.
const Mask = "********"

// Config is filled from flags and SHADOWENV_* environment variables.
type Config struct {
	// Common flags
	Passphrase     string `label:"--passphrase"      mapstructure:"passphrase"      validate:"exclusive=PassphraseFile" yaml:"passphrase,omitempty"`
	PassphraseFile string `label:"--passphrase-file" mapstructure:"passphrase-file" yaml:"passphrase-file,omitempty"`
	Parallel       int    `label:"--parallel"        mapstructure:"parallel"        validate:"min=1"                    yaml:"parallel"`
	Quiet          bool   `mapstructure:"quiet"          yaml:"quiet"`
	Verbose        bool   `mapstructure:"verbose"        yaml:"verbose"`
	Stats          bool   `mapstructure:"stats"          yaml:"stats"`
	Show           bool   `mapstructure:"show"           yaml:"-"`

	// Command-specific flags
	Output      string   `mapstructure:"output"       yaml:"output,omitempty"`
	Exclude     []string `mapstructure:"exclude"      yaml:"exclude,omitempty"`
	ExcludeFrom string   `mapstructure:"exclude-from" yaml:"exclude-from,omitempty"`
	List        bool     `mapstructure:"list"         yaml:"list,omitempty"`

	// Set by the subcommand
	Decrypt bool `mapstructure:"-" yaml:"decrypt"`

	// Positional arguments
	Targets []string `label:"targets" mapstructure:"-" validate:"min=1,dive,required" yaml:"targets"`
}

// ErrMultipleOutput is returned when --output is combined with several targets.
var ErrMultipleOutput = errors.New("--output can only be used with a single target")

// Validate validates the configuration against the struct tags.
func (c Config) Validate() error {
	validate := validator.New()

	if err := registerExclusive(validate); err != nil {
		return err
	}

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating configuration: %w", describe(err))
	}

	if c.Output != "" && len(c.Targets) > 1 {
		return ErrMultipleOutput
	}

	if err := filter.Validate(c.Exclude); err != nil {
		return fmt.Errorf("validating exclude patterns: %w", err)
	}

	return nil
}

// Display renders the configuration as YAML with secrets masked.
func (c Config) Display() (string, error) {
	if c.Passphrase != "" {
		c.Passphrase = Mask
	}

	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshalling configuration: %w", err)
	}

	return string(out), nil
}
