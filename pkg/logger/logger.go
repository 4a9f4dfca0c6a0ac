// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger configures the process-wide slog.Logger used for
// request logs (pkg/server) and startup diagnostics (cmd/searchsvc).
//
// The teacher's logger exists to keep an interactive CLI's terminal
// readable: it suppresses third-party log lines unless DEBUG is on and
// colors output for a human watching a shell. This service has no
// interactive terminal audience and few chatty third-party
// dependencies (the sql driver, the qdrant client) worth suppressing,
// so that filtering is gone. What's kept is the simpler ops split: a
// human-readable "text" format for local development and a "json"
// format for production, where log lines are ingested by a log
// aggregator rather than read in a terminal — the same split
// internal/logging.Setup in the reference pack's amanmcp repo makes
// with slog.NewJSONHandler.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// ParseLevel converts a string log level to slog.Level. Valid levels:
// debug, info, warn, error; anything else defaults to warn.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, nil
	}
}

// Init configures the process-wide default logger. format "json" uses
// slog.NewJSONHandler for aggregator ingestion; any other value
// (including "text", the default) uses slog.NewTextHandler for local
// development.
func Init(level slog.Level, output *os.File, format string) {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// OpenLogFile opens or creates a log file at path for append-only
// writes, returning the file handle and a cleanup function.
func OpenLogFile(path string) (*os.File, func(), error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return file, func() { file.Close() }, nil
}

// GetLogger returns the process-wide default logger, initializing it
// with INFO level and text format if Init hasn't been called yet.
func GetLogger() *slog.Logger {
	if defaultLogger == nil {
		Init(slog.LevelInfo, os.Stderr, "text")
	}
	return defaultLogger
}
