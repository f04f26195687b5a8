package pargs

import (
	"context"
	"io"

	"github.com/gruntwork-io/partools/internal/pargs"
	"github.com/gruntwork-io/partools/pkg/log"
)

// Run runs template for every line of input. Failed commands are reported in the progress and do not
// fail the run; only errors that stop the whole run are returned.
func Run(ctx context.Context, l log.Logger, opts *Options, template []string, input io.Reader, stdout, stderr io.Writer) error {
	l.Debugf("Running %q for every input line", template)

	runner := pargs.New(template, input,
		pargs.WithWorkers(opts.Workers),
		pargs.WithTimeout(opts.Timeout),
		pargs.WithTermTimeout(opts.TermTimeout),
		pargs.WithProcessGroup(opts.ProcessGroup),
		pargs.WithLogger(l),
	)

	return runner.Run(ctx, stdout, stderr)
}
