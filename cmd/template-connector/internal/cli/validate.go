package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func validateCmd(f *flags) *cobra.Command {
	var show bool

	c := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			if _, err := cfg.BundleOptions(); err != nil {
				return err
			}

			if show {
				out, err := yaml.Marshal(cfg.Redacted())
				if err != nil {
					return fmt.Errorf("render configuration: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), string(out))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK")
			return nil
		},
	}

	c.Flags().BoolVar(&show, "show", false, "Print the effective configuration with secrets masked")
	return c
}
