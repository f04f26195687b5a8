package exec

import (
	"io"

	"github.com/gruntwork-io/partools/pkg/log"
)

// Option is a decorator for `Cmd`.
type Option func(*Cmd)

// WithDir sets the working directory of the command.
func WithDir(dir string) Option {
	return func(cmd *Cmd) {
		cmd.Dir = dir
	}
}

// WithEnv adds the given variables to the environment inherited from the current process.
func WithEnv(env map[string]string) Option {
	return func(cmd *Cmd) {
		cmd.Env = envList(env)
	}
}

// WithStdin sets the stdin of the command.
func WithStdin(stdin io.Reader) Option {
	return func(cmd *Cmd) {
		cmd.Stdin = stdin
	}
}

// WithStderr sets where the stderr of the command goes. Nil discards it.
func WithStderr(stderr io.Writer) Option {
	return func(cmd *Cmd) {
		cmd.Stderr = stderr
	}
}

// WithProcessGroup runs the command in a new process group and sends the termination signals to the whole
// group, so that the processes it started are stopped as well.
func WithProcessGroup(enabled bool) Option {
	return func(cmd *Cmd) {
		cmd.processGroup = enabled

		if enabled {
			setProcessGroup(cmd.Cmd, 0)
		}
	}
}

// WithLogger sets the given logger.
func WithLogger(logger log.Logger) Option {
	return func(cmd *Cmd) {
		cmd.logger = logger
	}
}
