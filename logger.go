// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package raygpu

import (
	"log/slog"

	"github.com/gogpu/raygpu/internal/logging"
)

// SetLogger configures the logger for raygpu and all its sub-packages.
// By default, raygpu produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the silent
// default.
//
// Log levels used by raygpu:
//   - [slog.LevelDebug]: pipeline cache misses, bind group rebuilds, shader compiles
//   - [slog.LevelInfo]: lifecycle events (adapter selected, context created)
//   - [slog.LevelWarn]: recovered misuse (unknown binding, unknown attribute location)
//
// Example:
//
//	raygpu.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the current logger used by raygpu.
func Logger() *slog.Logger {
	return logging.Logger()
}
