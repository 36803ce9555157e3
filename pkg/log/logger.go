// Package log provides structured logging for statlearn fitting operations.
//
// It is built on log/slog with a JSON handler, plus a wrapping handler that
// extracts cockroachdb/errors stack traces into a dedicated attribute. A
// zerolog bridge forwards library warnings (for example ConvergenceWarning)
// into the structured stream.
package log

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/statlearn/pkg/errors"
)

// SetupLogger configures the process-wide slog default logger with a JSON
// handler at the given level and installs the warning bridge.
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     ToLogLevel(loglevel),
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	errFmtHandler := WrapByErrFmtHandler(handler)
	slog.SetDefault(slog.New(errFmtHandler))

	installWarningBridge()
}

// ToLogLevel converts a level string to a slog.Level.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}

// GetLogger returns the default logger.
func GetLogger() *slog.Logger {
	return slog.Default()
}

// GetLoggerWithName returns a logger tagged with a component name, for
// example "linear_model.elastic_net" or "ensemble.boosting".
func GetLoggerWithName(name string) *slog.Logger {
	return slog.Default().With(ComponentKey, name)
}

// installWarningBridge routes pkg/errors warnings through zerolog so warning
// types carrying MarshalZerologObject are emitted structurally.
func installWarningBridge() {
	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
	errors.SetZerologWarnFunc(func(warning error) {
		ev := zl.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev.Object("warning", obj).Msg("statlearn warning")
			return
		}
		ev.Err(warning).Msg("statlearn warning")
	})
}
