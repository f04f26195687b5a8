package errors

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// MultiError is an error type to track multiple errors.
type MultiError struct {
	inner *multierror.Error
}

// Error implements the error interface
func (errs *MultiError) Error() string {
	wrapped := UnwrapMultiErrors(errs)

	lines := make([]string, 0, len(wrapped))
	for _, err := range wrapped {
		lines = append(lines, addIndent(err.Error()))
	}

	if len(wrapped) == 1 {
		return fmt.Sprintf("error occurred:\n\n%s\n", strings.Join(lines, "\n\n"))
	}

	return fmt.Sprintf("%d errors occurred:\n\n%s\n", len(wrapped), strings.Join(lines, "\n\n"))
}

// WrappedErrors returns the error slice that this Error is wrapping.
func (errs *MultiError) WrappedErrors() []error {
	if errs == nil || errs.inner == nil {
		return nil
	}

	return errs.inner.WrappedErrors()
}

func (errs *MultiError) Unwrap() []error {
	return errs.WrappedErrors()
}

// Len returns the number of wrapped errors.
func (errs *MultiError) Len() int {
	return len(errs.WrappedErrors())
}

// ErrorOrNil returns an error interface if this Error represents
// a list of errors, or returns nil if the list of errors is empty.
func (errs *MultiError) ErrorOrNil() error {
	if errs == nil || errs.inner == nil {
		return nil
	}

	if err := errs.inner.ErrorOrNil(); err != nil {
		return errs
	}

	return nil
}

// Append is a helper function that will append more errors
// onto an Multierror in order to create a larger errs-error.
func (errs *MultiError) Append(appendErrs ...error) *MultiError {
	if errs == nil {
		errs = &MultiError{inner: new(multierror.Error)}
	}

	return &MultiError{inner: multierror.Append(errs.inner, appendErrs...)}
}

func addIndent(str string) string {
	rawLines := strings.Split(strings.ReplaceAll(str, "\r\n", "\n"), "\n")

	lines := make([]string, 0, len(rawLines))

	for i, line := range rawLines {
		if i == 0 {
			lines = append(lines, "* "+line)
			continue
		}

		lines = append(lines, "  "+line)
	}

	return strings.Join(lines, "\n")
}
