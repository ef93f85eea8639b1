// Package common holds build metadata and logger setup shared by all
// binaries in the telemetry device.
package common

import (
	"log/slog"
	"os"
)

// PackageName identifies this service in logs and metrics.
const PackageName = "telemetry-device"

// Version is set at build time via -ldflags.
var Version = "dev"

// LoggingOpts configures the process-wide logger.
type LoggingOpts struct {
	// Debug enables debug-level messages.
	Debug bool

	// JSON switches the handler to JSON output (for log collectors).
	JSON bool

	// Service is added as a "service" attribute to every record.
	Service string

	// Version is added as a "version" attribute to every record.
	Version string
}

// SetupLogger creates the process-wide slog logger. Every component
// receives this logger (or a child of it) by injection; nothing logs
// through the default logger.
func SetupLogger(opts *LoggingOpts) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With("service", opts.Service)
	}
	if opts.Version != "" {
		logger = logger.With("version", opts.Version)
	}
	return logger
}
