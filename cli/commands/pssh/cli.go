// Package pssh represents the command running a command on many hosts over ssh in parallel.
package pssh

import (
	"strings"

	"github.com/gruntwork-io/partools/cli/flags"
	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/pssh"
	"github.com/gruntwork-io/partools/pkg/log"
	"github.com/urfave/cli/v2"
)

const (
	CommandName = "pssh"

	FileFlagName         = "file"
	FileArgumentFlagName = "file-argument"
	LogDirFlagName       = "logdir"
	SSHFlagName          = "ssh"
)

// Options are the settings of the pssh command.
type Options struct {
	File         string
	FileArgument string
	LogDir       string
	SSH          string

	// KeepLogs is set when the output of the hosts is kept in files instead of printed.
	KeepLogs bool
}

func NewOptions() *Options {
	return &Options{
		SSH: strings.Join(append([]string{pssh.DefaultProgram}, pssh.DefaultSSHOptions...), " "),
	}
}

func NewFlags(opts *Options) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        FileFlagName,
			Aliases:     []string{"f"},
			Destination: &opts.File,
			Usage:       "Instead of CMD, upload this local script and execute it remotely.",
		},
		&cli.StringFlag{
			Name:        FileArgumentFlagName,
			Aliases:     []string{"a"},
			Destination: &opts.FileArgument,
			Usage:       "Arguments passed to the remote --file script.",
		},
		&cli.StringFlag{
			Name:        LogDirFlagName,
			Aliases:     []string{"l"},
			EnvVars:     flags.EnvVars("pssh-" + LogDirFlagName),
			Destination: &opts.LogDir,
			Usage:       "Write the output of every host to DIR/<host> instead of stdout. An empty DIR creates a temporary one.",
		},
		&cli.StringFlag{
			Name:        SSHFlagName,
			EnvVars:     flags.EnvVars(SSHFlagName),
			Destination: &opts.SSH,
			Value:       opts.SSH,
			Hidden:      true,
			Usage:       "The ssh client and its options.",
		},
	}
}

func NewCommand(l log.Logger) *cli.Command {
	opts := NewOptions()

	return &cli.Command{
		Name:      CommandName,
		Usage:     "Run a command on many hosts over ssh in parallel.",
		UsageText: "partools pssh [options] HOST... CMD\n   partools pssh [options] --file SCRIPT HOST...",
		Description: `Every host runs in the same process group. The progress of the hosts is printed to stderr as they
finish, and the command exits with the highest exit status of the hosts.`,
		Flags: NewFlags(opts),
		Action: errors.WithPanicHandling(func(ctx *cli.Context) error {
			opts.KeepLogs = ctx.IsSet(LogDirFlagName)

			return Run(ctx.Context, l, opts, ctx.Args().Slice(), ctx.App.Writer, ctx.App.ErrWriter)
		}),
	}
}
