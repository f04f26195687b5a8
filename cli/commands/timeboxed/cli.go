// Package timeboxed represents the command running a single command under a deadline.
package timeboxed

import (
	"time"

	"github.com/gruntwork-io/partools/cli/flags"
	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/os/exec"
	"github.com/gruntwork-io/partools/pkg/log"
	"github.com/urfave/cli/v2"
)

const (
	CommandName = "timeboxed"

	// DefaultTimeout is the run time given to the command when no timeout is specified.
	DefaultTimeout = time.Second
)

// Options are the settings of the timeboxed command.
type Options struct {
	Timeout     time.Duration
	TermTimeout time.Duration
}

func NewOptions() *Options {
	return &Options{
		Timeout:     DefaultTimeout,
		TermTimeout: exec.DefaultTermTimeout,
	}
}

func NewFlags(opts *Options) []cli.Flag {
	return []cli.Flag{
		flags.NewTimeoutFlag(&opts.Timeout, "Terminate the command when it runs longer than this."),
		flags.NewTermTimeoutFlag(&opts.TermTimeout),
	}
}

func NewCommand(l log.Logger) *cli.Command {
	opts := NewOptions()

	return &cli.Command{
		Name:      CommandName,
		Usage:     "Run a command, but kill it if it takes too long.",
		UsageText: "partools timeboxed [options] <command> [args...]",
		Description: `Prints the stdout of the command, even a partial one, and exits with its exit status. Exits with 110
(ETIMEDOUT) when the command was killed by a signal, its own or the one sent on timeout.`,
		Flags: NewFlags(opts),
		Action: errors.WithPanicHandling(func(ctx *cli.Context) error {
			if !ctx.Args().Present() {
				return errors.New("command not specified")
			}

			return Run(ctx.Context, l, opts, ctx.Args().Slice(), ctx.App.Reader, ctx.App.Writer, ctx.App.ErrWriter)
		}),
	}
}
