// Package pargs represents the command running a command in parallel for every line of its stdin,
// like a parallel xargs.
package pargs

import (
	"time"

	"github.com/gruntwork-io/partools/cli/flags"
	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/os/exec"
	"github.com/gruntwork-io/partools/pkg/log"
	"github.com/urfave/cli/v2"
)

const (
	CommandName = "pargs"
)

// Options are the settings of the pargs command.
type Options struct {
	Workers      int
	Timeout      time.Duration
	TermTimeout  time.Duration
	ProcessGroup bool
}

// NewOptions returns the default options: no timeout, one second to exit after SIGTERM.
func NewOptions() *Options {
	return &Options{
		TermTimeout: exec.DefaultTermTimeout,
	}
}

func NewFlags(opts *Options) []cli.Flag {
	return []cli.Flag{
		flags.NewWorkersFlag(&opts.Workers),
		flags.NewTimeoutFlag(&opts.Timeout, "Kill a command that runs longer than this. Zero disables the timeout."),
		flags.NewTermTimeoutFlag(&opts.TermTimeout),
		flags.NewProcessGroupFlag(&opts.ProcessGroup),
	}
}

func NewCommand(l log.Logger) *cli.Command {
	opts := NewOptions()

	return &cli.Command{
		Name:      CommandName,
		Usage:     "Run a command in parallel for every line read from stdin.",
		UsageText: "partools pargs [options] <command> [args...]",
		Description: `Every input line is split on "\0" into parameters. Each "{}" in the arguments is replaced by the next
parameter, and the remaining parameters are appended to the command. The progress is printed to stderr
and the output of every command to stdout, in completion order.`,
		Flags: NewFlags(opts),
		Action: errors.WithPanicHandling(func(ctx *cli.Context) error {
			if !ctx.Args().Present() {
				return errors.New("command not specified")
			}

			return Run(ctx.Context, l, opts, ctx.Args().Slice(), ctx.App.Reader, ctx.App.Writer, ctx.App.ErrWriter)
		}),
	}
}
