package connector

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs a job immediately and then at a fixed period. A run that
// is still going when the next one is due makes that next run skip.
type Scheduler struct {
	logger *slog.Logger
}

// NewScheduler creates a scheduler logging to logger.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{logger: logger}
}

// Run calls job now and then every period until ctx is cancelled. It waits
// for a running job to return before returning itself.
func (s *Scheduler) Run(ctx context.Context, period time.Duration, job func(context.Context)) error {
	if period <= 0 {
		return fmt.Errorf("schedule period must be positive, got %s", period)
	}

	logger := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	entryID, err := c.AddFunc("@every "+period.String(), func() { job(ctx) })
	if err != nil {
		return fmt.Errorf("add cron schedule: %w", err)
	}

	// The first run goes through the same chain so it cannot overlap the
	// first scheduled tick.
	first := c.Entry(entryID).WrappedJob

	c.Start()
	s.logger.Info("scheduler started", "period", period.String())
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		first.Run()
	}()

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	<-firstDone
	s.logger.Info("scheduler stopped")
	return nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
