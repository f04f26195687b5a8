package exec

import (
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/shlex"
	"github.com/gruntwork-io/partools/internal/errors"
)

// shellMetaChars make a single-string command run through the shell.
const shellMetaChars = "*?{}[]<>()~&|\\$;'`\"\n#"

// Outcome is how a command ended: either it exited with a code, or it was killed by a signal.
type Outcome struct {
	Signal   os.Signal
	Code     int
	Signaled bool
}

// Exited reports whether the command exited on its own, as opposed to being killed by a signal.
func (outcome Outcome) Exited() bool {
	return !outcome.Signaled
}

// Success reports whether the command exited with code zero.
func (outcome Outcome) Success() bool {
	return !outcome.Signaled && outcome.Code == 0
}

// String returns "exit status N" or "signal: NAME".
func (outcome Outcome) String() string {
	if outcome.Signaled {
		return "signal: " + outcome.Signal.String()
	}

	return "exit status " + strconv.Itoa(outcome.Code)
}

func outcomeOf(state *os.ProcessState) Outcome {
	if state == nil {
		return Outcome{Code: -1}
	}

	if status, ok := state.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return Outcome{Signaled: true, Signal: status.Signal()}
	}

	return Outcome{Code: state.ExitCode()}
}

// ProcessSpawnError is returned when a command could not be started.
type ProcessSpawnError struct {
	Err  error
	Args []string
}

func (err ProcessSpawnError) Error() string {
	return "failed to start " + strings.Join(err.Args, " ") + ": " + err.Err.Error()
}

func (err ProcessSpawnError) Unwrap() error {
	return err.Err
}

// ResolveCommand turns a command into a program name and its arguments. A command made of a single
// string runs through the shell if it contains shell metacharacters, or is split with the shell quoting
// rules otherwise. Longer commands are used verbatim.
func ResolveCommand(command []string) (string, []string, error) {
	if len(command) == 0 {
		return "", nil, errors.New("empty command")
	}

	if len(command) > 1 {
		return command[0], command[1:], nil
	}

	if strings.ContainsAny(command[0], shellMetaChars) {
		return shellCommand(command[0])
	}

	args, err := shlex.Split(command[0])
	if err != nil {
		return "", nil, errors.WithStackTraceAndPrefix(err, "parsing command %q", command[0])
	}

	if len(args) == 0 {
		return "", nil, errors.New("empty command")
	}

	return args[0], args[1:], nil
}
