// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/bureau-foundation/netbridge/lib/config"
)

// newLogger creates the daemon logger. The auto format uses
// slog.TextHandler when w is a terminal and slog.JSONHandler
// otherwise (systemd journal, pipes, containers).
func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	if useText(w, format) {
		return slog.New(slog.NewTextHandler(w, options))
	}
	return slog.New(slog.NewJSONHandler(w, options))
}

func useText(w io.Writer, format string) bool {
	switch format {
	case config.FormatText:
		return true
	case config.FormatJSON:
		return false
	}
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
