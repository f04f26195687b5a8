package jmap

import (
	"context"
	"io"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/jmap"
	"github.com/gruntwork-io/partools/pkg/log"
	"github.com/mitchellh/go-homedir"
)

// Run applies the ops to every map file in turn, stopping at the first failure.
func Run(ctx context.Context, l log.Logger, opts *Options, paths []string, stdout io.Writer) error {
	for _, path := range paths {
		path, err := homedir.Expand(path)
		if err != nil {
			return errors.WithStackTrace(err)
		}

		if opts.Create {
			if err := jmap.Create(path); err != nil {
				return err
			}
		}

		m := jmap.New(path,
			jmap.WithBackupSuffix(opts.BackupSuffix),
			jmap.WithSortedKeys(opts.Order),
			jmap.WithLogger(l),
		)

		if err := m.Apply(ctx, stdout, opts.Ops...); err != nil {
			return err
		}
	}

	return nil
}
