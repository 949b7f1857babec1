package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/zero-day-ai/cti-sdk/cmd/template-connector/internal/template"
	"github.com/zero-day-ai/cti-sdk/config"
	"github.com/zero-day-ai/cti-sdk/connector"
	"github.com/zero-day-ai/cti-sdk/stix"
	"github.com/zero-day-ai/cti-sdk/telemetry"
	"github.com/zero-day-ai/cti-sdk/transport"
)

type templateConfig = config.Config[template.Config]

func loadConfig(f *flags) (templateConfig, error) {
	return config.Load[template.Config](config.Options{
		YAMLPath: f.configPath,
		EnvPath:  f.envPath,
		Section:  template.Section,
	})
}

func newLogger(cfg templateConfig, w io.Writer) (*slog.Logger, error) {
	logger, err := telemetry.NewLogger(w, cfg.Connector.LogLevel, cfg.OpenCTI.JSONLogging)
	if err != nil {
		return nil, err
	}
	return logger.With("connector", cfg.Connector.Name), nil
}

// newConnector wires the template collector and converter. opts must carry
// the transport; identity, bundle options and logger come from cfg.
func newConnector(cfg templateConfig, logger *slog.Logger, opts connector.Options) (*connector.Connector[template.Report], error) {
	bundleOpts, err := cfg.BundleOptions()
	if err != nil {
		return nil, err
	}
	converter, err := template.NewConverter(cfg.Extra.TLPLevel)
	if err != nil {
		return nil, err
	}
	collector := template.NewCollector(template.FakeClient{}, cfg.Extra.Lookback(), logger)

	opts.ID = cfg.Connector.ID
	opts.Name = cfg.Connector.Name
	opts.BundleOptions = bundleOpts
	opts.Logger = logger
	return connector.New[template.Report](collector, converter, opts)
}

// closer releases a transport's connections.
type closer func() error

// buildTransport fans out to every delivery target enabled in cfg.
func buildTransport(cfg templateConfig, logger *slog.Logger) (transport.Transport, closer, error) {
	var (
		targets transport.Multi
		closers []func() error
	)
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	if cfg.Connector.SendToDirectory {
		dir, err := transport.NewDirectory(transport.DirectoryOptions{
			Path:      cfg.Connector.SendToDirectoryPath,
			Connector: cfg.Connector.ID,
			Retention: time.Duration(cfg.Connector.SendToDirectoryRetention) * 24 * time.Hour,
			Logger:    logger,
		})
		if err != nil {
			return nil, nil, err
		}
		targets = append(targets, dir)
	}

	if cfg.Connector.SendToQueue {
		if cfg.Transport.RedisURL == "" && cfg.Transport.NATSURL == "" {
			return nil, nil, errors.New("send_to_queue requires transport.redis_url or transport.nats_url")
		}
		if cfg.Transport.RedisURL != "" {
			q, err := transport.NewRedisQueue(transport.RedisOptions{
				URL:       cfg.Transport.RedisURL,
				Key:       cfg.Transport.RedisKey,
				Announce:  true,
				Connector: cfg.Connector.ID,
			})
			if err != nil {
				_ = closeAll()
				return nil, nil, err
			}
			closers = append(closers, q.Close)
			targets = append(targets, withBacklogWarning(q, int64(cfg.Connector.QueueThreshold), logger))
		}
		if cfg.Transport.NATSURL != "" {
			p, err := transport.NewNATSPublisher(cfg.Transport.NATSURL, cfg.Transport.NATSSubject, cfg.Connector.ID)
			if err != nil {
				_ = closeAll()
				return nil, nil, err
			}
			closers = append(closers, p.Close)
			targets = append(targets, p)
		}
	}

	if len(targets) == 0 {
		return nil, nil, errors.New("no transport enabled: set send_to_queue or send_to_directory")
	}
	return targets, closeAll, nil
}

// withBacklogWarning logs when the queue holds threshold bundles or more
// before pushing. A zero threshold disables the check.
func withBacklogWarning(q *transport.RedisQueue, threshold int64, logger *slog.Logger) transport.Transport {
	return transport.Func(func(ctx context.Context, b stix.Bundle, workID string) error {
		if threshold > 0 {
			n, err := q.Backlog(ctx)
			switch {
			case err != nil:
				logger.Warn("failed to read queue backlog", "key", q.Key(), "error", err)
			case n >= threshold:
				logger.Warn("queue backlog above threshold", "key", q.Key(), "backlog", n, "threshold", threshold)
			}
		}
		if err := q.Send(ctx, b, workID); err != nil {
			return fmt.Errorf("redis queue: %w", err)
		}
		return nil
	})
}
