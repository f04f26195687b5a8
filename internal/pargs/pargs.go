// Package pargs is a parallel xargs: it runs a command once per input line, in parallel.
//
// Every line is split on NUL characters into parameters. Each `{}` argument of the command template is
// replaced by the next parameter, and the parameters left over are appended to the command.
package pargs

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/os/exec"
	"github.com/gruntwork-io/partools/internal/progress"
	"github.com/gruntwork-io/partools/internal/worker"
	"github.com/gruntwork-io/partools/pkg/log"
)

const (
	// Placeholder is the template argument replaced by the next parameter of the line.
	Placeholder = "{}"

	// ParamSeparator separates the parameters of a line.
	ParamSeparator = "\x00"
)

// Result is the outcome of the command run for one line.
type Result struct {
	Line    string
	Command []string
	Stdout  []byte
	Stderr  []byte
	Outcome exec.Outcome
}

// LineError is returned for a line whose command could not run.
type LineError struct {
	Err  error
	Line string
}

func (err *LineError) Error() string {
	return Escape(err.Line) + ": " + err.Err.Error()
}

func (err *LineError) Unwrap() error {
	return err.Err
}

// PArgs runs a command template over the lines of an input.
type PArgs struct {
	*worker.Map[string, *Result]

	template []string
	opts     *options
}

// New returns a PArgs running template for every line read from input.
func New(template []string, input io.Reader, opts ...Option) *PArgs {
	cfg := &options{logger: log.Default(), termTimeout: exec.DefaultTermTimeout}

	for _, opt := range opts {
		opt(cfg)
	}

	pargs := &PArgs{template: template, opts: cfg}
	pargs.Map = worker.NewLinewise(input, cfg.workers, pargs.run, worker.WithLogger(cfg.logger))

	return pargs
}

// Run runs every line and prints the progress to stderr and the output of the commands to stdout.
func (pargs *PArgs) Run(ctx context.Context, stdout, stderr io.Writer, opts ...progress.Option) error {
	printer := progress.New[worker.Result[*Result]](pargs, stdout, stderr, opts...)

	return printer.Iterate(ctx, Render)
}

func (pargs *PArgs) run(ctx context.Context, line string) (*Result, error) {
	command, err := BuildCommand(pargs.template, line)
	if err != nil {
		return nil, &LineError{Line: line, Err: err}
	}

	var stderr bytes.Buffer

	stdout, outcome, err := exec.RunWithDeadline(ctx, command, pargs.opts.timeout, pargs.opts.termTimeout,
		exec.WithStderr(&stderr),
		exec.WithProcessGroup(pargs.opts.processGroup),
		exec.WithLogger(pargs.opts.logger),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}

		return nil, &LineError{Line: line, Err: err}
	}

	return &Result{
		Line:    line,
		Command: command,
		Stdout:  stdout,
		Stderr:  stderr.Bytes(),
		Outcome: outcome,
	}, nil
}

// BuildCommand substitutes the parameters of line into template.
func BuildCommand(template []string, line string) ([]string, error) {
	params := splitParams(line)
	command := make([]string, 0, len(template)+len(params))

	for _, arg := range template {
		if arg == Placeholder {
			if len(params) == 0 {
				return nil, errors.Errorf("not enough parameters for the %s arguments", Placeholder)
			}

			arg, params = params[0], params[1:]
		}

		command = append(command, arg)
	}

	return append(command, params...), nil
}

// Render turns a result into its progress line: the escaped input line, followed by how the command
// ended if it failed, or the error with its stack if the command could not run.
func Render(res worker.Result[*Result]) (progress.Unit, bool) {
	if res.Err != nil {
		return progress.Unit{Label: res.Err.Error(), Stderr: indentStack(res.Err)}, true
	}

	result := res.Value
	label := Escape(result.Line)

	if !result.Outcome.Success() {
		label += " (" + result.Outcome.String() + ")"
	}

	return progress.Unit{Label: label, Stdout: string(result.Stdout), Stderr: string(result.Stderr)}, true
}

// Escape makes line printable on a single line.
func Escape(line string) string {
	quoted := strconv.Quote(line)

	return quoted[1 : len(quoted)-1]
}

// splitParams splits line on NUL characters, dropping the trailing empty parameters.
func splitParams(line string) []string {
	params := strings.Split(line, ParamSeparator)

	for len(params) > 0 && params[len(params)-1] == "" {
		params = params[:len(params)-1]
	}

	return params
}

func indentStack(err error) string {
	stack := strings.TrimRight(errors.ErrorStack(err), "\n")
	if stack == "" {
		return ""
	}

	return "\t" + strings.ReplaceAll(stack, "\n", "\n\t") + "\n"
}

// Option configures PArgs.
type Option func(*options)

type options struct {
	logger       log.Logger
	workers      int
	timeout      time.Duration
	termTimeout  time.Duration
	processGroup bool
}

// WithWorkers sets the number of commands run in parallel. Zero or less uses worker.DefaultWorkers.
func WithWorkers(workers int) Option {
	return func(opts *options) {
		opts.workers = workers
	}
}

// WithTimeout bounds the run time of every command. Zero or less means no limit.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *options) {
		opts.timeout = timeout
	}
}

// WithTermTimeout sets how long a timed out command may take to exit after SIGTERM before it is killed.
func WithTermTimeout(termTimeout time.Duration) Option {
	return func(opts *options) {
		opts.termTimeout = termTimeout
	}
}

// WithProcessGroup runs every command in its own process group, so that a timeout stops its children too.
func WithProcessGroup(enabled bool) Option {
	return func(opts *options) {
		opts.processGroup = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}
