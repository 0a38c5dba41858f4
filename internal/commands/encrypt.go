package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idelchi/shadowenv/internal/config"
	"github.com/idelchi/shadowenv/internal/logic"
)

// NewEncryptCommand creates a new cobra command for the encrypt subcommand.
func NewEncryptCommand(cfg *config.Config, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "encrypt [flags] folders...",
		Aliases: []string{"enc"},
		Short:   "Seal folders into .shadow containers",
		Long: `Seal each folder into <folder>/<name>.shadow, or into the path given with --output.
The container being written is never archived, nor is any other .shadow file in the tree.`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.Decrypt = false

			return preRun(cfg, v)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if done, err := show(cmd, cfg); done {
				return err
			}

			return logic.Run(cmd.Context(), cfg, logic.Stdin)
		},
	}

	cmd.Flags().StringP("output", "o", "", "Container path (single folder only)")
	cmd.Flags().StringSliceP("exclude", "e", nil, "Exclude entries matching the doublestar pattern (repeatable)")
	cmd.Flags().String("exclude-from", "", "Path to a JSONC file with a list of exclude patterns")

	return cmd
}
