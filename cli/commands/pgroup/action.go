package pgroup

import (
	"context"
	"io"
	"os"
	"regexp"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/pgroupby"
	"github.com/gruntwork-io/partools/pkg/log"
	"github.com/mitchellh/go-homedir"
)

// Run groups the lines of the files, or of stdin when paths is empty, and prints the groups to stdout.
func Run(ctx context.Context, l log.Logger, opts *Options, paths []string, stdin io.Reader, stdout io.Writer) error {
	var groupOpts []pgroupby.Option

	if opts.Delimiter != "" {
		delimiter, err := regexp.Compile(opts.Delimiter)
		if err != nil {
			return errors.Errorf("invalid delimiter %q: %w", opts.Delimiter, err)
		}

		groupOpts = append(groupOpts, pgroupby.WithDelimiter(delimiter))
	}

	group := pgroupby.New(groupOpts...)

	if len(paths) == 0 {
		if err := group.Read(ctx, stdin); err != nil {
			return err
		}
	}

	for _, path := range paths {
		if err := readFile(ctx, l, group, path); err != nil {
			return err
		}
	}

	return pgroupby.Write(stdout, group.Groups(), opts.IntraGroupSort)
}

func readFile(ctx context.Context, l log.Logger, group *pgroupby.GroupBy, path string) error {
	path, err := homedir.Expand(path)
	if err != nil {
		return errors.WithStackTrace(err)
	}

	file, err := os.Open(path)
	if err != nil {
		return errors.WithStackTrace(err)
	}
	defer file.Close() //nolint:errcheck

	l.Debugf("Grouping lines of %s", path)

	return group.Read(ctx, file)
}
