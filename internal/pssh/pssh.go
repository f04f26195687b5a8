// Package pssh runs a command on many hosts in parallel over ssh.
//
// All ssh processes are started at once in a single process group, each writing its stdout and stderr to
// an output file named after its host. They are reaped in the order they finish.
package pssh

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/os/exec"
	"github.com/gruntwork-io/partools/internal/os/pgroup"
	"github.com/gruntwork-io/partools/internal/util"
	"github.com/gruntwork-io/partools/pkg/log"
)

const (
	// DefaultProgram is the ssh client run for every host.
	DefaultProgram = "ssh"

	// StartFailureExitCode is reported for a host whose ssh process could not start, like ssh itself
	// does for connection errors.
	StartFailureExitCode = 255

	outputFilePerms = 0o644
	signalExitBase  = 128
)

// DefaultSSHOptions keeps ssh quiet and prevents it from prompting.
var DefaultSSHOptions = []string{"-q", "-oBatchMode=yes"}

// HostFinished is called once per host, in completion order, with the file holding the host output.
type HostFinished func(host, outputPath string, outcome exec.Outcome) error

// PSSH runs commands on a set of hosts.
type PSSH struct {
	logger   log.Logger
	progress io.Writer
	program  string
	args     []string
	hosts    []string
}

// New returns a PSSH for the given hosts.
func New(hosts []string, opts ...Option) *PSSH {
	pssh := &PSSH{
		logger:   log.Default(),
		progress: os.Stderr,
		program:  DefaultProgram,
		args:     DefaultSSHOptions,
		hosts:    hosts,
	}

	for _, opt := range opts {
		opt(pssh)
	}

	return pssh
}

// ScriptCommand returns the remote command that saves its stdin to a script and runs it with args.
func ScriptCommand(args string) string {
	script := "/tmp/pssh_$$.sh"

	return fmt.Sprintf("cat > %[1]s; chmod +x %[1]s; %[1]s %[2]s", script, args)
}

// Execute runs command on every host and writes the output of each host to `outputDir/<host>`. An empty
// outputDir creates a temporary directory, which is kept. stdinPath, if not empty, is sent as the stdin of
// every ssh process. onFinish is called for every host as it finishes; a nil onFinish prints the progress
// of the hosts. The returned error aggregates the failed hosts and carries the highest exit status.
func (pssh *PSSH) Execute(ctx context.Context, command, outputDir, stdinPath string, onFinish HostFinished) error {
	if outputDir == "" {
		dir, err := os.MkdirTemp("", "pssh-")
		if err != nil {
			return errors.WithStackTrace(err)
		}

		pssh.logger.Infof("Writing the output of the hosts to %s", dir)
		outputDir = dir
	}

	if onFinish == nil {
		onFinish = pssh.progressLogger()
	}

	var (
		group    = pgroup.New()
		cmdHosts = make(map[*exec.Cmd]string, len(pssh.hosts))
		failures = &errors.MultiError{}
		maxCode  = 0
	)

	for _, host := range pssh.hosts {
		cmd, err := pssh.start(group, host, command, filepath.Join(outputDir, host), stdinPath)
		if err != nil {
			failures = failures.Append(errors.WithStackTraceAndPrefix(err, "%s", host))
			maxCode = max(maxCode, StartFailureExitCode)

			continue
		}

		cmdHosts[cmd] = host
	}

	for group.Len() > 0 {
		cmd, outcome, err := group.WaitAny(ctx)
		if err != nil {
			return errors.WithStackTrace(err)
		}

		host := cmdHosts[cmd]

		if !outcome.Success() {
			failures = failures.Append(errors.Errorf("%s: %s", host, outcome))
			maxCode = max(maxCode, ExitCode(outcome))
		}

		if err := onFinish(host, filepath.Join(outputDir, host), outcome); err != nil {
			failures = failures.Append(err)
		}
	}

	if err := ctx.Err(); err != nil {
		return errors.WithStackTrace(context.Cause(ctx))
	}

	if err := failures.ErrorOrNil(); err != nil {
		return errors.ErrorWithExitCode{Err: err, ExitCode: max(maxCode, 1)}
	}

	return nil
}

// Stdout runs command on every host and writes the output of the hosts to stdout, every line prefixed
// with `<host>: `.
func (pssh *PSSH) Stdout(ctx context.Context, command, stdinPath string, stdout io.Writer) error {
	dir, err := os.MkdirTemp("", "pssh-")
	if err != nil {
		return errors.WithStackTrace(err)
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	logProgress := pssh.progressLogger()

	return pssh.Execute(ctx, command, dir, stdinPath, func(host, outputPath string, outcome exec.Outcome) error {
		if err := logProgress(host, outputPath, outcome); err != nil {
			return err
		}

		file, err := os.Open(outputPath)
		if err != nil {
			return errors.WithStackTrace(err)
		}
		defer file.Close() //nolint:errcheck

		if _, err := io.Copy(util.PrefixedWriter(stdout, host+": "), file); err != nil {
			return errors.WithStackTrace(err)
		}

		return nil
	})
}

func (pssh *PSSH) start(group *pgroup.Group, host, command, outputPath, stdinPath string) (*exec.Cmd, error) {
	output, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, outputFilePerms)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	// The child has its own copies of the descriptors once started.
	defer output.Close() //nolint:errcheck

	args := append(append([]string{}, pssh.args...), host, command)

	cmd := exec.Command(pssh.program, args...)
	cmd.Configure(exec.WithLogger(pssh.logger))
	cmd.Stdout = output
	cmd.Stderr = output

	if stdinPath != "" {
		stdin, err := os.Open(stdinPath)
		if err != nil {
			return nil, errors.WithStackTrace(err)
		}
		defer stdin.Close() //nolint:errcheck

		cmd.Stdin = stdin
	}

	if err := group.Start(cmd); err != nil {
		return nil, err
	}

	return cmd, nil
}

func (pssh *PSSH) progressLogger() HostFinished {
	finished := 0

	return func(host, _ string, outcome exec.Outcome) error {
		finished++

		msg := "Success"
		if !outcome.Success() {
			msg = "Failed " + failure(outcome)
		}

		_, err := fmt.Fprintf(pssh.progress, "%s: (%d/%d) %s\n", host, finished, len(pssh.hosts), msg)

		return errors.WithStackTrace(err)
	}
}

// ExitCode returns the exit status of a host, using the shell convention `128 + signal` for killed processes.
func ExitCode(outcome exec.Outcome) int {
	if !outcome.Signaled {
		return outcome.Code
	}

	if sig, ok := outcome.Signal.(syscall.Signal); ok {
		return signalExitBase + int(sig)
	}

	return signalExitBase
}

func failure(outcome exec.Outcome) string {
	if outcome.Signaled {
		return "(" + outcome.String() + ")"
	}

	return fmt.Sprintf("%d", outcome.Code)
}

// Option configures PSSH.
type Option func(*PSSH)

// WithProgram replaces the ssh client and its options. The program is called with the host and the command
// appended to args.
func WithProgram(program string, args ...string) Option {
	return func(pssh *PSSH) {
		pssh.program = program
		pssh.args = args
	}
}

// WithProgressWriter sets where the progress of the hosts is printed.
func WithProgressWriter(w io.Writer) Option {
	return func(pssh *PSSH) {
		pssh.progress = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(pssh *PSSH) {
		pssh.logger = logger
	}
}
