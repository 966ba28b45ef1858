// Package log wires structured logging for the pipeline. SetupLogger
// installs a slog JSON logger whose records carry the stack traces of
// errors created by pkg/errors; NewConsoleLogger builds a zerolog console
// logger for interactive CLI output.
package log

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/lifeboat/pkg/errors"
)

// SetupLogger installs the process-wide slog logger: JSON records on w at
// the named level, wrapped by StackHandler so errors log their stacks.
func SetupLogger(w io.Writer, level string) error {
	lvl, err := ToLogLevel(level)
	if err != nil {
		return err
	}
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     lvl,
	}
	handler := slog.NewJSONHandler(w, &ops)
	slog.SetDefault(slog.New(WithStackHandler(handler)))
	return nil
}

// ToLogLevel converts a level name to a slog.Level.
func ToLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.NewValueError("ToLogLevel", fmt.Sprintf("unknown log level %q", level))
}

// NewConsoleLogger returns a zerolog logger writing human-readable output,
// used by the CLI for progress reporting. It also installs itself as the
// warning sink so structured warnings come out on the same stream.
func NewConsoleLogger(w io.Writer) zerolog.Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w}).With().Timestamp().Logger()
	errors.SetZerologWarnFunc(func(warning error) {
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			logger.Warn().EmbedObject(obj).Msg("warning")
			return
		}
		logger.Warn().Err(warning).Msg("warning")
	})
	return logger
}
