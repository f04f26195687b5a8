package worker

import (
	"fmt"

	"github.com/gruntwork-io/partools/internal/errors"
)

// Result is what the caller receives for one processed item: either a value, or the recoverable
// error the function returned for it.
type Result[R any] struct {
	Value R
	Err   error
}

// Classifier reports whether an error returned by the mapped function must abort the whole run.
type Classifier func(err error) bool

// FatalError marks an error as fatal to the run. The engine stops dispatching items and returns it
// from Iterate once all workers have finished their current item.
type FatalError struct {
	Err error
}

// Fatal wraps err so that the default classifier treats it as fatal.
func Fatal(err error) error {
	if err == nil {
		return nil
	}

	return &FatalError{Err: err}
}

func (err *FatalError) Error() string {
	return err.Err.Error()
}

func (err *FatalError) Unwrap() error {
	return err.Err
}

// PanicError is returned in place of a result when the mapped function panics.
type PanicError struct {
	Value any
	Err   error
}

func (err *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", err.Value)
}

func (err *PanicError) Unwrap() error {
	return err.Err
}

// ErrorStack returns the stack captured when the panic was recovered.
func (err *PanicError) ErrorStack() string {
	return errors.ErrorStack(err.Err)
}

// IsFatal is the default Classifier: errors wrapped with Fatal, recovered panics and context
// cancellation abort the run, everything else is recoverable.
func IsFatal(err error) bool {
	var (
		fatalErr *FatalError
		panicErr *PanicError
	)

	return errors.As(err, &fatalErr) || errors.As(err, &panicErr) || errors.IsContextCanceled(err)
}

type outcome[R any] struct {
	value R
	err   error
	fatal bool
}
