package signal

import (
	"context"
	"errors"
	"os"
	"syscall"
)

// signalExitBase is added to the signal number to form the exit status of a process killed by a signal.
const signalExitBase = 128

// ContextCanceledCause contains a signal to pass through when the context is cancelled.
type ContextCanceledCause struct {
	Signal os.Signal
}

// NewContextCanceledCause returns a new `ContextCanceledCause` instance.
func NewContextCanceledCause(sig os.Signal) *ContextCanceledCause {
	return &ContextCanceledCause{Signal: sig}
}

// Error implements the `Error` method.
func (cause ContextCanceledCause) Error() string {
	if cause.Signal == nil {
		return context.Canceled.Error()
	}

	return context.Canceled.Error() + " by signal " + cause.Signal.String()
}

// Unwrap implements the `Unwrap` method.
func (ContextCanceledCause) Unwrap() error {
	return context.Canceled
}

// ExitStatus returns the status a shell reports for a process killed by the signal.
func (cause ContextCanceledCause) ExitStatus() (int, error) {
	if sig, ok := cause.Signal.(syscall.Signal); ok {
		return signalExitBase + int(sig), nil
	}

	return 1, nil
}

// SignalFromContext returns the OS signal that cancelled ctx, or nil if ctx was not cancelled by a signal.
func SignalFromContext(ctx context.Context) os.Signal {
	if cause := new(ContextCanceledCause); errors.As(context.Cause(ctx), &cause) {
		return cause.Signal
	}

	return nil
}
