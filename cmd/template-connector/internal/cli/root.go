// Package cli implements the template-connector commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// flags are shared by every command.
type flags struct {
	configPath string
	envPath    string
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:          "template-connector",
		Short:        "Example external import connector",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&f.configPath, "config", "c", "config.yml", "YAML configuration file (used when present)")
	cmd.PersistentFlags().StringVar(&f.envPath, "env-file", ".env", "dotenv file read when no configuration file is present")

	cmd.AddCommand(runCmd(f), validateCmd(f), exportCmd(f))
	return cmd
}
