package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idelchi/shadowenv/internal/config"
	"github.com/idelchi/shadowenv/internal/logic"
)

// NewInspectCommand creates a new cobra command for the inspect subcommand.
func NewInspectCommand(cfg *config.Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [flags] containers...",
		Short: "Print container headers, and with --list the archived entries",
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.Decrypt = true

			return preRun(cfg, v)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if done, err := show(cmd, cfg); done {
				return err
			}

			return logic.RunInspect(cmd.Context(), cfg, logic.Stdin, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolP("list", "l", false, "Decrypt and list the archived entries")

	return cmd
}
