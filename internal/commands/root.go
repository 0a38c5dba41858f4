package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idelchi/gogen/pkg/cobraext"
	"github.com/idelchi/shadowenv/internal/config"
)

// EnvPrefix is prepended to every flag name to form its environment variable.
const EnvPrefix = "SHADOWENV"

// NewRootCommand creates the root command with common configuration.
// It sets up environment variable binding and flag handling.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	v := viper.New()

	root := cobraext.NewDefaultRootCommand(version, bindEnv(v))

	root.Use = "shadowenv [flags] command [flags]"
	root.Short = "Encrypted folder archiver"
	root.Long = `Seal a folder into a single passphrase-encrypted .shadow container and restore it.
The folder is archived, compressed, and encrypted with a key derived from the passphrase.
Flags can also be set through SHADOWENV_* environment variables, e.g. SHADOWENV_PASSPHRASE_FILE.`

	root.PersistentFlags().BoolP("show", "s", false, "Show the configuration and exit")
	root.PersistentFlags().IntP("parallel", "j", 1, "Number of targets processed concurrently")
	root.PersistentFlags().BoolP("quiet", "q", false, "Suppress non-error output")
	root.PersistentFlags().BoolP("verbose", "v", false, "Log every stage and skipped entry")
	root.PersistentFlags().Bool("stats", false, "Print statistics to stderr when done")

	root.PersistentFlags().StringP("passphrase", "p", "", "Passphrase (prompted for when omitted)")
	root.PersistentFlags().StringP("passphrase-file", "f", "", "Path to a file whose first line is the passphrase")

	root.AddCommand(
		NewEncryptCommand(cfg, v),
		NewDecryptCommand(cfg, v),
		NewInspectCommand(cfg, v),
		NewCheckCommand(cfg, v),
	)

	return root
}

// bindEnv binds the running command's flags and SHADOWENV_* variables to v.
// Each root command owns its own viper instance, so commands built in one process do not share state.
func bindEnv(v *viper.Viper) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		v.SetEnvPrefix(EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		v.AutomaticEnv()

		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("binding command flags: %w", err)
		}

		return nil
	}
}
