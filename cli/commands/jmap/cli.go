// Package jmap represents the command editing JSON object files under an exclusive lock.
package jmap

import (
	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/jmap"
	"github.com/gruntwork-io/partools/pkg/log"
	"github.com/urfave/cli/v2"
)

const (
	CommandName = "jmap"

	CreateFlagName = "create"
	BackupFlagName = "backup"
	OrderFlagName  = "order"
	SetFlagName    = "set"
	DeleteFlagName = "delete"
	GetFlagName    = "get"
)

// Options are the settings of the jmap command.
type Options struct {
	BackupSuffix string
	Ops          []jmap.Op
	Create       bool
	Order        bool
}

func NewOptions() *Options {
	return &Options{
		BackupSuffix: jmap.DefaultBackupSuffix,
	}
}

func NewFlags(opts *Options) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        CreateFlagName,
			Aliases:     []string{"c"},
			Destination: &opts.Create,
			Usage:       "Create missing maps.",
		},
		&cli.StringFlag{
			Name:        BackupFlagName,
			Aliases:     []string{"b"},
			Destination: &opts.BackupSuffix,
			Value:       opts.BackupSuffix,
			Usage:       "Use the file SUFFIX for backups, empty to disable.",
		},
		&cli.BoolFlag{
			Name:        OrderFlagName,
			Aliases:     []string{"o"},
			Destination: &opts.Order,
			Usage:       "Sort the keys of the map, otherwise new keys are appended.",
		},
		&cli.GenericFlag{
			Name:    SetFlagName,
			Aliases: []string{"s"},
			Value:   newOpsValue(&opts.Ops, jmap.ParseSet),
			Usage:   "Set a top-level `key=JSON` value. May be repeated.",
		},
		&cli.GenericFlag{
			Name:    DeleteFlagName,
			Aliases: []string{"d"},
			Value:   newOpsValue(&opts.Ops, parseDelete),
			Usage:   "Delete a top-level `key`. May be repeated.",
		},
		&cli.GenericFlag{
			Name:    GetFlagName,
			Aliases: []string{"g"},
			Value:   newOpsValue(&opts.Ops, parseGet),
			Usage:   "Print the JSON value of a top-level `key`. May be repeated.",
		},
	}
}

func NewCommand(l log.Logger) *cli.Command {
	opts := NewOptions()

	return &cli.Command{
		Name:      CommandName,
		Usage:     "Edit JSON object files under an exclusive lock.",
		UsageText: "partools jmap [options] <map.json>...",
		Description: `The --set, --delete and --get operations are applied in the order they are given, within one locked
transaction per file.`,
		Flags: NewFlags(opts),
		Action: errors.WithPanicHandling(func(ctx *cli.Context) error {
			if !ctx.Args().Present() {
				return errors.New("no map file specified")
			}

			return Run(ctx.Context, l, opts, ctx.Args().Slice(), ctx.App.Writer)
		}),
	}
}
