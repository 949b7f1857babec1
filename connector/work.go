package connector

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// WorkTracker opens and closes units of work on the platform.
type WorkTracker interface {
	// Initiate opens a unit of work and returns its identifier.
	Initiate(ctx context.Context, connectorID, friendlyName string) (string, error)

	// Finalize closes the unit of work.
	Finalize(ctx context.Context, workID, message string, inError bool) error
}

// LogWork issues random work identifiers and logs the work lifecycle.
// It is the tracker used when none is configured.
type LogWork struct {
	Logger *slog.Logger
}

// Initiate implements WorkTracker.
func (w LogWork) Initiate(_ context.Context, connectorID, friendlyName string) (string, error) {
	id := uuid.NewString()
	w.logger().Info("work initiated", "work_id", id, "connector_id", connectorID, "name", friendlyName)
	return id, nil
}

// Finalize implements WorkTracker.
func (w LogWork) Finalize(_ context.Context, workID, message string, inError bool) error {
	level := slog.LevelInfo
	if inError {
		level = slog.LevelError
	}
	w.logger().Log(context.Background(), level, "work finalized", "work_id", workID, "message", message, "in_error", inError)
	return nil
}

func (w LogWork) logger() *slog.Logger {
	if w.Logger == nil {
		return slog.Default()
	}
	return w.Logger
}
