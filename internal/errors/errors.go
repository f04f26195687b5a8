// Package errors contains helper functions for wrapping errors with stack traces, stack output, and panic recovery.
package errors

import (
	"fmt"

	goerrors "github.com/go-errors/errors"
	"github.com/urfave/cli/v2"
)

// New creates a new instance of Error.
// If the given value does not contain an stack trace, it will be created.
func New(val any) error {
	if val == nil {
		return nil
	}

	return goerrors.Wrap(val, 1)
}

// Errorf creates a new error and wraps in an Error type that contains the stack trace.
func Errorf(message string, args ...any) error {
	err := fmt.Errorf(message, args...) //nolint:err113

	return goerrors.Wrap(err, 1)
}

// ErrorWithExitCode is a custom error that is used to specify the app exit code.
type ErrorWithExitCode struct {
	Err      error
	ExitCode int
}

func (err ErrorWithExitCode) Error() string {
	return err.Err.Error()
}

// ExitStatus returns the exit code the app should exit with.
func (err ErrorWithExitCode) ExitStatus() (int, error) {
	return err.ExitCode, nil
}

func (err ErrorWithExitCode) Unwrap() error {
	return err.Err
}

// WithStackTrace wraps the given error in an Error type that contains the stack trace. If the given error already has a stack trace,
// it is used directly. If the given error is nil, return nil.
func WithStackTrace(err error) error {
	if err == nil {
		return nil
	}

	// Keep the innermost trace.
	if ContainsStackTrace(err) {
		return err
	}

	return goerrors.Wrap(err, 1)
}

// WithStackTraceAndPrefix wraps the given error in an Error type that contains the stack trace and has the given message prepended as part of
// the error message. If the given error already has a stack trace, it is used directly. If the given error is nil,
// return nil.
func WithStackTraceAndPrefix(err error, message string, args ...any) error {
	if err == nil {
		return nil
	}

	return goerrors.WrapPrefix(err, fmt.Sprintf(message, args...), 1)
}

// WithPanicHandling wraps every command action to handle panics by returning them
// as an error with a stack trace up the chain.
func WithPanicHandling(action cli.ActionFunc) cli.ActionFunc {
	return func(ctx *cli.Context) (err error) {
		defer Recover(func(cause error) {
			err = cause
		})

		return action(ctx)
	}
}
