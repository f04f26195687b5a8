package pssh

import (
	"context"
	"io"

	"github.com/google/shlex"
	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/pssh"
	"github.com/gruntwork-io/partools/pkg/log"
	"github.com/mitchellh/go-homedir"
)

// Run runs the command on the hosts. Without --file, the last argument is the command and the other ones
// are the hosts.
func Run(ctx context.Context, l log.Logger, opts *Options, args []string, stdout, stderr io.Writer) error {
	hosts, command, stdinPath, err := parseArgs(opts, args)
	if err != nil {
		return err
	}

	program, err := shlex.Split(opts.SSH)
	if err != nil {
		return errors.WithStackTrace(err)
	}

	if len(program) == 0 {
		return errors.New("ssh client not specified")
	}

	runner := pssh.New(hosts,
		pssh.WithProgram(program[0], program[1:]...),
		pssh.WithProgressWriter(stderr),
		pssh.WithLogger(l),
	)

	l.Debugf("Running %q on %d hosts", command, len(hosts))

	if !opts.KeepLogs {
		return runner.Stdout(ctx, command, stdinPath, stdout)
	}

	logDir := opts.LogDir

	if logDir != "" {
		if logDir, err = homedir.Expand(logDir); err != nil {
			return errors.WithStackTrace(err)
		}
	}

	return runner.Execute(ctx, command, logDir, stdinPath, nil)
}

func parseArgs(opts *Options, args []string) (hosts []string, command, stdinPath string, err error) {
	if opts.File != "" {
		if len(args) == 0 {
			return nil, "", "", errors.New("no hosts specified")
		}

		stdinPath, err = homedir.Expand(opts.File)
		if err != nil {
			return nil, "", "", errors.WithStackTrace(err)
		}

		return args, pssh.ScriptCommand(opts.FileArgument), stdinPath, nil
	}

	if len(args) < 2 { //nolint:mnd
		return nil, "", "", errors.New("expected at least one host and a command")
	}

	return args[:len(args)-1], args[len(args)-1], "", nil
}
