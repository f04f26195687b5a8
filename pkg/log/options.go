package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Option configures a Logger.
type Option func(logger *logger)

// WithLevel sets the minimum level of entries that get written.
func WithLevel(level Level) Option {
	return func(logger *logger) {
		logger.Logger.SetLevel(level.ToLogrusLevel())
	}
}

// WithOutput sets the writer entries are written to.
func WithOutput(output io.Writer) Option {
	return func(logger *logger) {
		logger.Logger.SetOutput(output)
	}
}

// WithFormatter sets the entry formatter.
func WithFormatter(formatter logrus.Formatter) Option {
	return func(logger *logger) {
		logger.Logger.SetFormatter(formatter)
	}
}
