// Package log provides a leveled logger with structured logging support.
package log

import (
	"context"
	"strings"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/sirupsen/logrus"
)

const (
	// TextFormat renders `level msg key=value` lines.
	TextFormat = "text"
	// JSONFormat renders one JSON object per entry.
	JSONFormat = "json"
)

type ctxKey byte

const loggerContextKey ctxKey = iota

var (
	// std is the name of the default logger.
	std = New()
)

// Default returns the standard logger used by the package-level output functions.
// It is highly recommended not to use it to avoid conflicts in tests.
func Default() Logger {
	return std
}

// NewTextFormatter returns the formatter used by default: no timestamps, since partools is a short-lived CLI.
func NewTextFormatter() logrus.Formatter {
	return &logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           false,
	}
}

// ParseFormat returns the formatter registered under the given name.
func ParseFormat(str string) (logrus.Formatter, error) {
	switch strings.ToLower(str) {
	case TextFormat, "":
		return NewTextFormatter(), nil
	case JSONFormat:
		return &logrus.JSONFormatter{DisableTimestamp: true}, nil
	}

	return nil, errors.Errorf("invalid log format %q, supported formats: %s, %s", str, TextFormat, JSONFormat)
}

// ContextWithLogger returns a new context carrying the given logger.
func ContextWithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// LoggerFromContext returns the logger stored in ctx, or the default logger if there is none.
func LoggerFromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerContextKey).(Logger); ok {
		return logger
	}

	return std
}
