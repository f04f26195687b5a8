// Package exec runs external commands under a deadline.
//
// RunWithDeadline captures the stdout of a command until the command closes it or a deadline is reached.
// Reaching the deadline, or the cancellation of the context, escalates termination: the command first
// receives SIGTERM and, if it is still running after the termination grace period, SIGKILL. The command
// is always reaped before RunWithDeadline returns.
package exec

import (
	"context"
	"io"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"time"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/os/signal"
	"github.com/gruntwork-io/partools/pkg/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// ChunkSize is the size of the reads from the stdout pipe of the command.
	ChunkSize = 4096

	// DefaultWaitDelay bounds how long the stdin and stderr copies may outlive the command, when it leaves
	// children behind that still hold them.
	DefaultWaitDelay = time.Second

	// DefaultTermTimeout is how long a timed out command may take to exit after SIGTERM before it is killed.
	DefaultTermTimeout = time.Second
)

// Cmd is a command type.
type Cmd struct {
	*exec.Cmd

	logger   log.Logger
	filename string

	state        escalationState
	processGroup bool
}

// Command returns the `Cmd` struct to execute the named program with the given arguments.
// Stdin reads from the null device and stderr is inherited, unless configured otherwise.
func Command(name string, args ...string) *Cmd {
	cmd := &Cmd{
		Cmd:      exec.Command(name, args...),
		logger:   log.Default(),
		filename: filepath.Base(name),
	}

	cmd.Stderr = os.Stderr
	cmd.WaitDelay = DefaultWaitDelay

	return cmd
}

// Configure sets options to the `Cmd`.
func (cmd *Cmd) Configure(opts ...Option) {
	for _, opt := range opts {
		opt(cmd)
	}
}

// Start starts the specified command but does not wait for it to complete.
func (cmd *Cmd) Start() error {
	if err := cmd.Cmd.Start(); err != nil {
		return errors.WithStackTrace(&ProcessSpawnError{Args: cmd.Args, Err: err})
	}

	cmd.logger.Debugf("Started %s with pid %d", cmd.filename, cmd.Process.Pid)

	return nil
}

// RunWithDeadline resolves command, runs it and returns its stdout together with how it ended.
// A timeout of zero or less means no deadline. See Cmd.RunWithDeadline.
func RunWithDeadline(ctx context.Context, command []string, timeout, termTimeout time.Duration, opts ...Option) ([]byte, Outcome, error) {
	name, args, err := ResolveCommand(command)
	if err != nil {
		return nil, Outcome{}, err
	}

	cmd := Command(name, args...)
	cmd.Configure(opts...)

	return cmd.RunWithDeadline(ctx, timeout, termTimeout)
}

// RunWithDeadline starts the command and reads its stdout until end of data or until the deadline
// `now + timeout` is reached. On deadline or ctx cancellation the command is terminated gracefully:
// SIGTERM, then SIGKILL if it is still alive after termTimeout. It waits for the command to be reaped
// and returns the output read so far with the outcome. If ctx was cancelled, the cancellation cause is
// returned as the error.
func (cmd *Cmd) RunWithDeadline(ctx context.Context, timeout, termTimeout time.Duration) ([]byte, Outcome, error) {
	var deadline time.Time

	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, Outcome{}, errors.WithStackTrace(err)
	}
	defer reader.Close() //nolint:errcheck

	cmd.Stdout = writer

	if err := cmd.Start(); err != nil {
		writer.Close() //nolint:errcheck
		return nil, Outcome{}, err
	}

	// Only the child keeps the write end open, so its exit ends the data.
	writer.Close() //nolint:errcheck

	var (
		exited  = make(chan struct{})
		waitErr error
	)

	go func() {
		defer close(exited)

		waitErr = cmd.Wait()
	}()

	output, readErr := readUntil(ctx, reader, deadline)
	if readErr != nil {
		if !errors.Is(readErr, os.ErrDeadlineExceeded) {
			cmd.logger.Debugf("Reading output of %s failed: %v", cmd.filename, readErr)
		}

		cmd.terminate(exited, termTimeout)
	}

	<-exited
	cmd.advance(stateReaped)

	outcome := outcomeOf(cmd.ProcessState)

	if err := ctx.Err(); err != nil {
		return output, outcome, errors.WithStackTrace(context.Cause(ctx))
	}

	if exitErr := new(exec.ExitError); waitErr != nil && !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
		return output, outcome, errors.WithStackTrace(waitErr)
	}

	if readErr != nil && !errors.Is(readErr, os.ErrDeadlineExceeded) {
		return output, outcome, errors.WithStackTrace(readErr)
	}

	return output, outcome, nil
}

// SendSignal sends the given `sig` to the executed command, or to its whole process group if it runs in one.
func (cmd *Cmd) SendSignal(sig os.Signal) {
	cmd.logger.Debugf("%s signal is sent to %s", cases.Title(language.English).String(sig.String()), cmd.filename)

	if err := cmd.signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		cmd.logger.Errorf("Failed to send signal %s to %s: %v", sig, cmd.filename, err)
	}
}

func (cmd *Cmd) terminate(exited <-chan struct{}, termTimeout time.Duration) {
	cmd.advance(stateTermSent)
	cmd.SendSignal(signal.TermSignal)

	timer := time.NewTimer(termTimeout)
	defer timer.Stop()

	select {
	case <-exited:
		return
	case <-timer.C:
	}

	cmd.advance(stateKillSent)
	cmd.SendSignal(signal.KillSignal)
}

func (cmd *Cmd) advance(state escalationState) {
	if state <= cmd.state {
		return
	}

	cmd.logger.Tracef("%s: %s -> %s", cmd.filename, cmd.state, state)
	cmd.state = state
}

func readUntil(ctx context.Context, reader *os.File, deadline time.Time) ([]byte, error) {
	if err := reader.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, func() {
		_ = reader.SetReadDeadline(time.Now())
	})
	defer stop()

	var (
		output []byte
		chunk  = make([]byte, ChunkSize)
	)

	for {
		n, err := reader.Read(chunk)
		output = append(output, chunk[:n]...)

		if err == nil {
			continue
		}

		if errors.Is(err, io.EOF) {
			return output, nil
		}

		return output, err
	}
}

func envList(env map[string]string) []string {
	list := os.Environ()

	for _, key := range slices.Sorted(maps.Keys(env)) {
		list = append(list, key+"="+env[key])
	}

	return list
}
