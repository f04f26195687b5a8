package log

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
)

// Logger wraps the logrus package to keep control over the log levels and formatting used by partools,
// and gives commands an easy way to clone a logger with extra fields.
type Logger interface {
	// Clone creates a new Logger instance with a copy of the fields from the current one.
	Clone() Logger

	// SetOptions sets the given options to the instance.
	SetOptions(opts ...Option)

	// WithOptions clones and sets the given options for the new instance.
	WithOptions(opts ...Option) Logger

	// Level returns log level.
	Level() Level

	// SetLevel parses and sets log level.
	SetLevel(str string) error

	// WithField adds a single field to the Logger and returns partly cloning instance.
	WithField(key string, value any) Logger

	// WithFields adds a struct of fields to the Logger.
	WithFields(fields Fields) Logger

	// WithError adds an error as single field to the Logger.
	WithError(err error) Logger

	// WithContext adds a context to the Logger.
	WithContext(ctx context.Context) Logger

	// Writer returns an io.Writer that writes to the Logger at the given log level.
	WriterLevel(level Level) *io.PipeWriter

	Logf(level Level, format string, args ...any)
	Tracef(format string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	Log(level Level, args ...any)
	Trace(args ...any)
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
}

// Fields type, used to pass to `WithFields`.
type Fields map[string]any

type logger struct {
	*logrus.Entry
}

// New returns a new Logger instance.
func New(opts ...Option) Logger {
	logger := &logger{
		Entry: logrus.NewEntry(logrus.New()),
	}
	logger.Logger.SetFormatter(NewTextFormatter())
	logger.Logger.SetLevel(DefaultLevel.ToLogrusLevel())
	logger.SetOptions(opts...)

	return logger
}

// Clone implements the Logger interface method.
func (logger *logger) Clone() Logger {
	return logger.clone()
}

// SetOptions implements the Logger interface method.
func (logger *logger) SetOptions(opts ...Option) {
	for _, opt := range opts {
		opt(logger)
	}
}

// WithOptions implements the Logger interface method.
func (logger *logger) WithOptions(opts ...Option) Logger {
	if len(opts) == 0 {
		return logger
	}

	logger = logger.clone()
	logger.SetOptions(opts...)

	return logger
}

// Level returns log level.
func (logger *logger) Level() Level {
	return FromLogrusLevel(logger.Logger.Level)
}

// SetLevel parses and sets log level.
func (logger *logger) SetLevel(str string) error {
	level, err := ParseLevel(str)
	if err != nil {
		return err
	}

	logger.Logger.SetLevel(level.ToLogrusLevel())

	return nil
}

// WriterLevel implements the Logger interface method.
func (logger *logger) WriterLevel(level Level) *io.PipeWriter {
	return logger.Logger.WriterLevel(level.ToLogrusLevel())
}

// WithField implements the Logger interface method.
func (logger *logger) WithField(key string, value any) Logger {
	return logger.WithFields(Fields{key: value})
}

// WithFields implements the Logger interface method.
func (logger *logger) WithFields(fields Fields) Logger {
	return logger.setEntry(logger.Entry.WithFields(logrus.Fields(fields)))
}

// WithError implements the Logger interface method.
func (logger *logger) WithError(err error) Logger {
	return logger.setEntry(logger.Entry.WithError(err))
}

// WithContext implements the Logger interface method.
func (logger *logger) WithContext(ctx context.Context) Logger {
	return logger.setEntry(logger.Entry.WithContext(ctx))
}

// Logf implements the Logger interface method.
func (logger *logger) Logf(level Level, format string, args ...any) {
	logger.Entry.Logf(level.ToLogrusLevel(), format, args...)
}

// Log implements the Logger interface method.
func (logger *logger) Log(level Level, args ...any) {
	logger.Entry.Log(level.ToLogrusLevel(), args...)
}

func (logger *logger) Trace(args ...any) { logger.Log(TraceLevel, args...) }
func (logger *logger) Debug(args ...any) { logger.Log(DebugLevel, args...) }
func (logger *logger) Info(args ...any)  { logger.Log(InfoLevel, args...) }
func (logger *logger) Warn(args ...any)  { logger.Log(WarnLevel, args...) }
func (logger *logger) Error(args ...any) { logger.Log(ErrorLevel, args...) }

func (logger *logger) Tracef(format string, args ...any) { logger.Logf(TraceLevel, format, args...) }
func (logger *logger) Debugf(format string, args ...any) { logger.Logf(DebugLevel, format, args...) }
func (logger *logger) Infof(format string, args ...any)  { logger.Logf(InfoLevel, format, args...) }
func (logger *logger) Warnf(format string, args ...any)  { logger.Logf(WarnLevel, format, args...) }
func (logger *logger) Errorf(format string, args ...any) { logger.Logf(ErrorLevel, format, args...) }

func (logger *logger) setEntry(entry *logrus.Entry) *logger {
	newLogger := *logger
	newLogger.Entry = entry

	return &newLogger
}

func (logger *logger) clone() *logger {
	parent := logger.Logger

	child := logrus.New()
	child.SetOutput(parent.Out)
	child.SetLevel(parent.Level)
	child.SetFormatter(parent.Formatter)
	child.ReplaceHooks(parent.Hooks)

	newLogger := *logger
	newLogger.Entry = logger.Dup()
	newLogger.Entry.Logger = child

	return &newLogger
}
