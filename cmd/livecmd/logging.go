// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"

	"github.com/invowk/livecmd/internal/config"
)

// newLogger returns a slog logger backed by a charmbracelet/log handler.
// Components only see *slog.Logger.
func newLogger(w io.Writer, level config.LogLevel) *slog.Logger {
	handler := log.NewWithOptions(w, log.Options{
		Prefix:          "livecmd",
		ReportTimestamp: true,
		Level:           charmLevel(level),
	})
	return slog.New(handler)
}

func charmLevel(level config.LogLevel) log.Level {
	switch level {
	case config.LogLevelDebug:
		return log.DebugLevel
	case config.LogLevelWarn:
		return log.WarnLevel
	case config.LogLevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
