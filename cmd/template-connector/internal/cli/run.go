package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zero-day-ai/cti-sdk/connector"
	"github.com/zero-day-ai/cti-sdk/health"
	"github.com/zero-day-ai/cti-sdk/state"
	"github.com/zero-day-ai/cti-sdk/telemetry"
)

func runCmd(f *flags) *cobra.Command {
	var once bool

	c := &cobra.Command{
		Use:   "run",
		Short: "Run the connector on its schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg, os.Stdout)
			if err != nil {
				return err
			}
			redacted := cfg.Redacted()
			logger.Info("configuration loaded",
				"opencti_url", redacted.OpenCTI.URL,
				"connector_id", redacted.Connector.ID,
				"duration_period", redacted.Connector.DurationPeriod.Std().String(),
				"state_backend", redacted.State.Backend,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tp := telemetry.NewTracerProvider(cfg.Connector.Name, nil, logger)
			restore := telemetry.Install(tp)
			defer func() {
				if err := restore(context.Background()); err != nil {
					logger.Warn("failed to shut down tracer provider", "error", err)
				}
			}()

			store, err := state.Open(cfg.State)
			if err != nil {
				return err
			}
			defer store.Close()

			tr, closeTransport, err := buildTransport(cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeTransport(); err != nil {
					logger.Warn("failed to close transport", "error", err)
				}
			}()

			period := cfg.Connector.DurationPeriod.Std()
			metrics := telemetry.NewMetrics(nil)
			monitor := health.NewMonitor(cfg.Connector.ID, 2*period)

			conn, err := newConnector(cfg, logger, connector.Options{
				Transport: tr,
				Store:     store,
				Tracer:    telemetry.Tracer(tp),
				Metrics:   metrics,
				Monitor:   monitor,
			})
			if err != nil {
				return err
			}

			if once || cfg.Connector.RunAndTerminate {
				return conn.Run(ctx, period, true)
			}

			g, gctx := errgroup.WithContext(ctx)

			hs, err := health.NewServer(fmt.Sprintf(":%d", cfg.Connector.HealthPort), monitor, logger)
			if err != nil {
				return err
			}
			g.Go(func() error { return hs.Serve(gctx) })

			if cfg.Connector.ExposeMetrics {
				addr := fmt.Sprintf(":%d", cfg.Connector.MetricsPort)
				router := health.Router(monitor, metrics.Handler())
				g.Go(func() error { return health.ServeHTTP(gctx, addr, router, logger) })
			}

			g.Go(func() error { return conn.Run(gctx, period, false) })
			return g.Wait()
		},
	}

	c.Flags().BoolVar(&once, "once", false, "Process a single time and exit (overrides connector.run_and_terminate)")
	return c
}
