package connector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/cti-sdk/bundle"
	"github.com/zero-day-ai/cti-sdk/health"
	"github.com/zero-day-ai/cti-sdk/octi"
	"github.com/zero-day-ai/cti-sdk/state"
	"github.com/zero-day-ai/cti-sdk/telemetry"
	"github.com/zero-day-ai/cti-sdk/transport"
)

// Collector fetches raw records from the external source. The state of the
// previous run is available through StateFromContext.
type Collector[T any] interface {
	Collect(ctx context.Context) ([]T, error)
}

// Converter translates collected records into entities.
type Converter[T any] interface {
	// Author is the organization credited with the converted entities.
	Author() octi.Author

	// Marking is the TLP marking applied to the converted entities.
	Marking() *octi.TLPMarking

	// Convert translates one record. A failing record is skipped.
	Convert(record T) ([]octi.Entity, error)
}

// CollectorFunc adapts a function to the Collector interface.
type CollectorFunc[T any] func(ctx context.Context) ([]T, error)

// Collect calls f.
func (f CollectorFunc[T]) Collect(ctx context.Context) ([]T, error) {
	return f(ctx)
}

// Options configures a Connector.
type Options struct {
	// ID is the connector identifier. Required.
	ID string

	// Name is the human-readable connector name. Required.
	Name string

	// Transport delivers bundles. Required.
	Transport transport.Transport

	// Store keeps state between runs. Defaults to an in-memory store.
	Store state.Store

	// Work opens and closes units of work. Defaults to LogWork.
	Work WorkTracker

	// BundleOptions configure the assembler of every run.
	BundleOptions []bundle.Option

	// Logger is the structured logger for connector operations.
	// If nil, a JSON logger on stdout is created.
	Logger *slog.Logger

	// Tracer defaults to the global tracer provider.
	Tracer trace.Tracer

	// Metrics and Monitor are optional.
	Metrics *telemetry.Metrics
	Monitor *health.Monitor
}

// Result summarizes one run.
type Result struct {
	WorkID    string
	BundleID  string
	Collected int
	Skipped   int
	Objects   int
	Filtered  int
}

// Connector runs the collect, convert and send cycle.
type Connector[T any] struct {
	collector Collector[T]
	converter Converter[T]
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

// New validates the options and creates a connector.
func New[T any](collector Collector[T], converter Converter[T], opts Options) (*Connector[T], error) {
	switch {
	case collector == nil:
		return nil, errors.New("collector is required")
	case converter == nil:
		return nil, errors.New("converter is required")
	case opts.ID == "":
		return nil, errors.New("connector id is required")
	case opts.Name == "":
		return nil, errors.New("connector name is required")
	case opts.Transport == nil:
		return nil, errors.New("transport is required")
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	if opts.Store == nil {
		opts.Store = state.NewMemoryStore()
	}
	if opts.Work == nil {
		opts.Work = LogWork{Logger: opts.Logger}
	}
	if opts.Tracer == nil {
		opts.Tracer = telemetry.Tracer(nil)
	}

	return &Connector[T]{
		collector: collector,
		converter: converter,
		opts:      opts,
		logger:    opts.Logger.With("connector_id", opts.ID, "connector_name", opts.Name),
		now:       time.Now,
	}, nil
}

// Run processes immediately and then every period until ctx is cancelled.
// With once set it processes a single time and returns that run's error.
// Failed scheduled runs are logged and reported, not returned.
func (c *Connector[T]) Run(ctx context.Context, period time.Duration, once bool) error {
	c.logger.Info("starting connector", "period", period.String(), "run_and_terminate", once)
	if once {
		_, err := c.Process(ctx)
		return err
	}
	return NewScheduler(c.logger).Run(ctx, period, func(ctx context.Context) {
		_, _ = c.Process(ctx)
	})
}

// Process runs one unit of work. The work is finalized whatever the
// outcome, and the outcome is reported to the metrics and the monitor.
func (c *Connector[T]) Process(ctx context.Context) (res Result, err error) {
	started := c.now()
	ctx, span := c.opts.Tracer.Start(ctx, "connector.process",
		trace.WithAttributes(attribute.String("connector.id", c.opts.ID)))
	defer span.End()

	logger := c.logger
	logger.Info("running connector")

	prev, found, err := c.opts.Store.Load(ctx, c.opts.ID)
	if err != nil {
		return res, c.fail(span, started, "failed to load state", err)
	}
	if found {
		logger.Info("connector current state", "last_run", prev.LastRun, "last_work_id", prev.LastWorkID)
	}
	ctx = withState(ctx, prev)

	res.WorkID, err = c.opts.Work.Initiate(ctx, c.opts.ID, c.opts.Name)
	if err != nil {
		return res, c.fail(span, started, "failed to initiate work", err)
	}
	span.SetAttributes(attribute.String("connector.work_id", res.WorkID))
	logger = logger.With("work_id", res.WorkID)

	defer func() {
		message := "Connector successfully run"
		if err != nil {
			message = err.Error()
		}
		if ferr := c.opts.Work.Finalize(context.WithoutCancel(ctx), res.WorkID, message, err != nil); ferr != nil {
			logger.Error("failed to finalize work", "error", ferr)
		}
	}()

	if err := c.process(ctx, logger, &res); err != nil {
		return res, c.fail(span, started, "connector run failed", err)
	}

	next := prev.Clone()
	next.LastRun = started
	next.LastWorkID = res.WorkID
	if err := c.opts.Store.Save(ctx, c.opts.ID, next); err != nil {
		return res, c.fail(span, started, "failed to save state", err)
	}
	logger.Info("connector updated state", "last_run", next.LastRun.UTC().Format(time.RFC3339))

	outcome := telemetry.OutcomeSuccess
	if res.Objects == 0 {
		outcome = telemetry.OutcomeEmpty
	}
	finished := c.now()
	c.opts.Metrics.ObserveRun(outcome, finished.Sub(started), finished)
	if c.opts.Monitor != nil {
		c.opts.Monitor.RecordRun(finished, nil)
	}
	span.SetStatus(codes.Ok, "")
	return res, nil
}

// process collects, converts, assembles and sends.
func (c *Connector[T]) process(ctx context.Context, logger *slog.Logger, res *Result) error {
	records, err := c.collect(ctx)
	if err != nil {
		return err
	}
	res.Collected = len(records)

	assembler, seeded, err := c.convert(ctx, logger, records, res)
	if err != nil {
		return err
	}
	c.opts.Metrics.ObserveRecords(res.Collected, res.Skipped)

	if assembler.Len() == seeded {
		logger.Info("no objects to process", "collected", res.Collected, "skipped", res.Skipped)
		return nil
	}

	_, span := c.opts.Tracer.Start(ctx, "connector.assemble")
	b, err := assembler.Build()
	stats := assembler.Stats()
	span.SetAttributes(
		attribute.Int("bundle.objects", b.Len()),
		attribute.Int("bundle.duplicates", stats.Duplicates),
		attribute.Int("bundle.filtered", stats.Filtered),
		attribute.Int("bundle.pruned", stats.Pruned),
	)
	span.End()
	if err != nil {
		return fmt.Errorf("assemble bundle: %w", err)
	}
	if stats.Conflicts > 0 {
		logger.Warn("duplicate entities with differing content were dropped", "conflicts", stats.Conflicts)
	}
	res.BundleID = b.ID
	res.Objects = b.Len()
	res.Filtered = stats.Filtered

	ctx, span = c.opts.Tracer.Start(ctx, "connector.send",
		trace.WithAttributes(attribute.String("bundle.id", b.ID)))
	err = c.opts.Transport.Send(ctx, b, res.WorkID)
	span.End()
	if err != nil {
		return fmt.Errorf("send bundle: %w", err)
	}
	c.opts.Metrics.ObserveBundle(res.Objects, res.Filtered)
	logger.Info("sent bundle", "bundle_id", b.ID, "objects", res.Objects, "filtered", res.Filtered)
	return nil
}

func (c *Connector[T]) collect(ctx context.Context) ([]T, error) {
	ctx, span := c.opts.Tracer.Start(ctx, "connector.collect")
	defer span.End()

	records, err := c.collector.Collect(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("collect: %w", err)
	}
	span.SetAttributes(attribute.Int("connector.records", len(records)))
	return records, nil
}

// convert translates every record into a fresh assembler seeded with the
// converter's author and marking, and returns the number of seed entities.
// Failing records are skipped.
func (c *Connector[T]) convert(ctx context.Context, logger *slog.Logger, records []T, res *Result) (*bundle.Assembler, int, error) {
	_, span := c.opts.Tracer.Start(ctx, "connector.convert")
	defer span.End()

	assembler := bundle.NewAssembler(c.opts.BundleOptions...)
	var seed []octi.Entity
	if author := c.converter.Author(); octi.Built(author) {
		seed = append(seed, author)
	}
	if marking := c.converter.Marking(); octi.Built(marking) {
		seed = append(seed, marking)
	}
	if err := assembler.Add(seed...); err != nil {
		return nil, 0, fmt.Errorf("seed bundle: %w", err)
	}

	for i, record := range records {
		entities, err := c.converter.Convert(record)
		if err == nil {
			err = assembler.Add(entities...)
		}
		if err != nil {
			res.Skipped++
			attrs := []any{"record", i, "error", err}
			var cerr *octi.ConstructionError
			if errors.As(err, &cerr) {
				attrs = append(attrs, "kind", cerr.Kind, "code", cerr.Code)
			}
			logger.Warn("skipping record", attrs...)
		}
	}
	span.SetAttributes(
		attribute.Int("connector.converted", len(records)-res.Skipped),
		attribute.Int("connector.skipped", res.Skipped),
	)
	return assembler, len(seed), nil
}

func (c *Connector[T]) fail(span trace.Span, started time.Time, msg string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	c.logger.Error(msg, "error", err)

	finished := c.now()
	c.opts.Metrics.ObserveRun(telemetry.OutcomeFailure, finished.Sub(started), finished)
	if c.opts.Monitor != nil {
		c.opts.Monitor.RecordRun(finished, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
