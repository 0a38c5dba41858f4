package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idelchi/shadowenv/internal/config"
	"github.com/idelchi/shadowenv/internal/logic"
)

// NewCheckCommand creates a new cobra command for the check subcommand.
func NewCheckCommand(cfg *config.Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "check [flags] folders...",
		Short:   "Validate that exclude patterns match entries",
		Args:    cobra.MinimumNArgs(1),
		PreRunE: preRun(cfg, v),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if done, err := show(cmd, cfg); done {
				return err
			}

			return logic.RunCheck(cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceP("exclude", "e", nil, "Doublestar pattern to check (repeatable)")
	cmd.Flags().String("exclude-from", "", "Path to a JSONC file with a list of exclude patterns")

	return cmd
}
