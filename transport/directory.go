package transport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/zero-day-ai/cti-sdk/stix"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DirectoryOptions configures a Directory transport.
type DirectoryOptions struct {
	// Path is the export directory. It is created when missing.
	Path string

	// Connector prefixes every file name.
	Connector string

	// Retention is how long exported files are kept. Zero keeps them forever.
	Retention time.Duration

	// Logger receives pruning events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Directory exports each bundle as a JSON file.
type Directory struct {
	path      string
	prefix    string
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewDirectory creates the export directory when needed.
func NewDirectory(opts DirectoryOptions) (*Directory, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("export directory path is required")
	}
	if opts.Retention < 0 {
		return nil, fmt.Errorf("retention must not be negative, got %s", opts.Retention)
	}
	if err := os.MkdirAll(opts.Path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	prefix := unsafeFileChars.ReplaceAllString(strings.TrimSpace(opts.Connector), "_")
	if prefix == "" {
		prefix = "bundle"
	}
	return &Directory{
		path:      opts.Path,
		prefix:    prefix,
		retention: opts.Retention,
		logger:    opts.Logger,
		now:       time.Now,
	}, nil
}

// FileName returns the file a bundle of workID is written to.
func (d *Directory) FileName(workID string) string {
	return filepath.Join(d.path, d.prefix+"-"+unsafeFileChars.ReplaceAllString(workID, "_")+".json")
}

// Send writes the bundle atomically, then prunes expired exports.
func (d *Directory) Send(ctx context.Context, b stix.Bundle, workID string) error {
	if workID == "" {
		return ErrMissingWorkID
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := b.Marshal()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.path, ".export-*")
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.FileName(workID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to publish export file: %w", err)
	}

	if _, err := d.Prune(); err != nil {
		d.logger.Warn("failed to prune export directory", "path", d.path, "error", err)
	}
	return nil
}

// Prune removes this connector's exports older than the retention period
// and returns how many were removed.
func (d *Directory) Prune() (int, error) {
	if d.retention == 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return 0, fmt.Errorf("failed to list export directory: %w", err)
	}

	cutoff := d.now().Add(-d.retention)
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, d.prefix+"-") || filepath.Ext(name) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(d.path, name)); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		removed++
		d.logger.Debug("pruned export", "file", name, "modified", info.ModTime())
	}
	return removed, nil
}
