package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zero-day-ai/cti-sdk/connector"
	"github.com/zero-day-ai/cti-sdk/state"
	"github.com/zero-day-ai/cti-sdk/stix"
	"github.com/zero-day-ai/cti-sdk/transport"
)

func exportCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Run the connector once and print the bundle instead of sending it",
		Long: "Run the connector once with an empty state and write the bundle as JSON to stdout.\n" +
			"Nothing is delivered and no state is saved.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			stdout := transport.Func(func(_ context.Context, b stix.Bundle, _ string) error {
				data, err := b.Marshal()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			})
			conn, err := newConnector(cfg, logger, connector.Options{
				Transport: stdout,
				Store:     state.NewMemoryStore(),
				Work:      connector.LogWork{Logger: logger},
			})
			if err != nil {
				return err
			}

			res, err := conn.Process(cmd.Context())
			if err != nil {
				return err
			}
			if res.Objects == 0 {
				logger.Info("no objects to export")
			}
			return nil
		},
	}
}
