// Package commands represents the partools commands.
package commands

import (
	"github.com/gruntwork-io/partools/cli/commands/jmap"
	"github.com/gruntwork-io/partools/cli/commands/pargs"
	"github.com/gruntwork-io/partools/cli/commands/pgroup"
	"github.com/gruntwork-io/partools/cli/commands/pssh"
	"github.com/gruntwork-io/partools/cli/commands/timeboxed"
	"github.com/gruntwork-io/partools/cli/commands/version"
	"github.com/gruntwork-io/partools/pkg/log"
	"github.com/urfave/cli/v2"
)

// New returns the commands of the app, sorted by name.
func New(l log.Logger) cli.Commands {
	return cli.Commands{
		jmap.NewCommand(l),
		pargs.NewCommand(l),
		pgroup.NewCommand(l),
		pssh.NewCommand(l),
		timeboxed.NewCommand(l),
		version.NewCommand(),
	}
}
