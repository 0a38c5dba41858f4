// Package commands provides the command-line interface for the shadowenv tool.
//
// It implements commands for:
//   - sealing folders into containers
//   - restoring folders from containers
//   - inspecting containers
//   - checking exclude patterns
//
// The package handles command-line parsing, configuration validation,
// and environment variable binding through cobra and viper.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idelchi/shadowenv/internal/config"
)

// preRun returns a PreRunE handler that loads flags and environment into cfg,
// stores positional args as targets and validates the configuration.
func preRun(cfg *config.Config, v *viper.Viper) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		if err := v.Unmarshal(cfg); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}

		cfg.Targets = args

		return cfg.Validate()
	}
}

// show prints the configuration and reports whether the command should stop there.
func show(cmd *cobra.Command, cfg *config.Config) (bool, error) {
	if !cfg.Show {
		return false, nil
	}

	out, err := cfg.Display()
	if err != nil {
		return true, err
	}

	fmt.Fprint(cmd.OutOrStdout(), out)

	return true, nil
}
