package timeboxed

import (
	"context"
	"io"
	"strings"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/os/exec"
	"github.com/gruntwork-io/partools/pkg/log"
)

// TimeoutExitCode is the exit status used when the command did not exit by itself (ETIMEDOUT).
const TimeoutExitCode = 110

// Run runs command under opts.Timeout and writes its stdout to stdout. The returned error carries the exit
// status the app exits with when the command did not succeed.
func Run(ctx context.Context, l log.Logger, opts *Options, command []string, stdin io.Reader, stdout, stderr io.Writer) error {
	output, outcome, err := exec.RunWithDeadline(ctx, command, opts.Timeout, opts.TermTimeout,
		exec.WithStdin(stdin),
		exec.WithStderr(stderr),
		exec.WithLogger(l),
	)

	if _, writeErr := stdout.Write(output); writeErr != nil && err == nil {
		err = errors.WithStackTrace(writeErr)
	}

	if err != nil {
		return err
	}

	name := strings.Join(command, " ")

	switch {
	case outcome.Success():
		return nil
	case outcome.Exited():
		return errors.ErrorWithExitCode{
			Err:      errors.Errorf("%s: %s", name, outcome),
			ExitCode: outcome.Code,
		}
	default:
		return errors.ErrorWithExitCode{
			Err:      errors.Errorf("%s: timed out after %s (%s)", name, opts.Timeout, outcome),
			ExitCode: TimeoutExitCode,
		}
	}
}
