/*
Copyright © 2026 MQMeter Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package logging configures the process-wide structured logger.
package logging

import (
	"os"
	"strings"

	"log/slog"
)

// Options control handler selection and verbosity.
type Options struct {
	// Debug forces LevelDebug regardless of LOG_LEVEL.
	Debug bool

	// JSON selects the JSON handler instead of text.
	JSON bool
}

// SetDefaultStructuredLogger installs the default slog logger with app
// identity attached to every record. Verbosity comes from the LOG_LEVEL
// environment variable (debug, info, warn, error) unless opts.Debug is
// set.
func SetDefaultStructuredLogger(name, version string, opts Options) {
	level := levelFromEnv()
	if opts.Debug {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}

	logger := slog.New(handler).With(
		slog.String("app", name),
		slog.String("version", version),
	)
	slog.SetDefault(logger)
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
