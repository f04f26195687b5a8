// Package pgroup represents the command grouping "prefix: line" output by the prefixes each line appears with.
package pgroup

import (
	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/pkg/log"
	"github.com/urfave/cli/v2"
)

const (
	CommandName = "pgroup"

	DelimiterFlagName      = "delimiter"
	IntraGroupSortFlagName = "intra-group-sort"
)

// Options are the settings of the pgroup command.
type Options struct {
	Delimiter      string
	IntraGroupSort bool
}

func NewOptions() *Options {
	return &Options{}
}

func NewFlags(opts *Options) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        DelimiterFlagName,
			Aliases:     []string{"d"},
			Destination: &opts.Delimiter,
			Usage:       "Use this REGEXP to separate prefix and rest, defaults to a colon with optional surrounding spaces.",
		},
		&cli.BoolFlag{
			Name:        IntraGroupSortFlagName,
			Aliases:     []string{"s"},
			Destination: &opts.IntraGroupSort,
			Usage:       "Output the lines within groups in lexical order.",
		},
	}
}

func NewCommand(l log.Logger) *cli.Command {
	opts := NewOptions()

	return &cli.Command{
		Name:      CommandName,
		Usage:     "Group lines of the form \"prefix: rest\" by prefix.",
		UsageText: "partools pgroup [options] [FILE...]",
		Description: `Reads the files in turn, or stdin when none is given. Prints one group per distinct set of prefixes, headed
by the prefixes and followed by every line seen with exactly those prefixes. Groups with fewer prefixes come first.`,
		Flags: NewFlags(opts),
		Action: errors.WithPanicHandling(func(ctx *cli.Context) error {
			return Run(ctx.Context, l, opts, ctx.Args().Slice(), ctx.App.Reader, ctx.App.Writer)
		}),
	}
}
