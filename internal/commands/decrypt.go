package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idelchi/shadowenv/internal/config"
	"github.com/idelchi/shadowenv/internal/logic"
)

// NewDecryptCommand creates a new cobra command for the decrypt subcommand.
func NewDecryptCommand(cfg *config.Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "decrypt [flags] containers...",
		Aliases: []string{"dec"},
		Short:   "Restore folders from .shadow containers",
		Long: `Restore each container into <dir>/<stem>_restored, or into the directory given with --output.
Existing files at the same paths are overwritten.`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.Decrypt = true

			return preRun(cfg, v)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if done, err := show(cmd, cfg); done {
				return err
			}

			return logic.Run(cmd.Context(), cfg, logic.Stdin)
		},
	}

	cmd.Flags().StringP("output", "o", "", "Destination directory (single container only)")

	return cmd
}
