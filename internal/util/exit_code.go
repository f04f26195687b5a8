// Package util contains helpers shared by the partools commands.
package util

import (
	"os/exec"
	"syscall"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/urfave/cli/v2"
)

// GetExitCode returns the exit code the app should exit with for the given error. If the error does not
// implement `ExitStatus() (int, error)`, cli.ExitCoder, is not an exec.ExitError or a *errors.MultiError
// wrapping one of those, the error is returned.
func GetExitCode(err error) (int, error) {
	var exitStatus interface {
		ExitStatus() (int, error)
	}

	if errors.As(err, &exitStatus) {
		return exitStatus.ExitStatus()
	}

	var exitCoder cli.ExitCoder

	if errors.As(err, &exitCoder) {
		return exitCoder.ExitCode(), nil
	}

	var exiterr *exec.ExitError
	if ok := errors.As(err, &exiterr); ok {
		if status, ok := exiterr.Sys().(syscall.WaitStatus); ok {
			return status.ExitStatus(), nil
		}

		return exiterr.ExitCode(), nil
	}

	var multiErr *errors.MultiError
	if ok := errors.As(err, &multiErr); ok {
		for _, err := range multiErr.WrappedErrors() {
			exitCode, exitCodeErr := GetExitCode(err)
			if exitCodeErr == nil {
				return exitCode, nil
			}
		}
	}

	return 0, err
}
