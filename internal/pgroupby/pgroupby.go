// Package pgroupby groups lines of the form "prefix: rest" by the set of prefixes each rest appears with.
//
// This is typically used on the combined output of pssh: lines every host printed end up in one group
// headed by all host names, lines only some hosts printed in smaller groups.
package pgroupby

import (
	"context"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/worker"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultDelimiter separates the prefix from the rest of a line.
var DefaultDelimiter = regexp.MustCompile(` *: *`)

const groupKeySeparator = "\x00"

// Group is a list of lines sharing the same prefixes.
type Group struct {
	Prefixes []string
	Lines    []string
}

// Option configures a GroupBy.
type Option func(*GroupBy)

// WithDelimiter sets the expression separating the prefix from the rest of a line.
func WithDelimiter(delimiter *regexp.Regexp) Option {
	return func(g *GroupBy) {
		if delimiter != nil {
			g.delimiter = delimiter
		}
	}
}

// GroupBy collects lines and the prefixes they were seen with.
type GroupBy struct {
	delimiter *regexp.Regexp
	lines     *orderedmap.OrderedMap[string, map[string]struct{}]
}

// New returns an empty GroupBy.
func New(opts ...Option) *GroupBy {
	g := &GroupBy{
		delimiter: DefaultDelimiter,
		lines:     orderedmap.New[string, map[string]struct{}](),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Add records a single line. A line without delimiter is kept with no prefix, unless the same rest is
// also seen with one. Empty lines are ignored.
func (g *GroupBy) Add(line string) {
	if line == "" {
		return
	}

	parts := g.delimiter.Split(line, 2) //nolint:mnd

	prefixes, ok := g.lines.Get(parts[len(parts)-1])
	if !ok {
		prefixes = make(map[string]struct{})
		g.lines.Set(parts[len(parts)-1], prefixes)
	}

	if len(parts) == 2 { //nolint:mnd
		prefixes[parts[0]] = struct{}{}
	}
}

// Read adds every line of r.
func (g *GroupBy) Read(ctx context.Context, r io.Reader) error {
	return worker.Lines(r)(ctx, func(line string) bool {
		g.Add(line)

		return true
	})
}

// Groups returns the lines grouped by their sorted prefixes. Groups with fewer prefixes come first; groups
// with the same number of prefixes, and the lines within a group, keep the order they were first seen in.
func (g *GroupBy) Groups() []Group {
	groups := orderedmap.New[string, *Group]()

	for pair := g.lines.Oldest(); pair != nil; pair = pair.Next() {
		prefixes := make([]string, 0, len(pair.Value))
		for prefix := range pair.Value {
			prefixes = append(prefixes, prefix)
		}

		slices.Sort(prefixes)

		key := strings.Join(prefixes, groupKeySeparator)

		group, ok := groups.Get(key)
		if !ok {
			group = &Group{Prefixes: prefixes}
			groups.Set(key, group)
		}

		group.Lines = append(group.Lines, pair.Key)
	}

	result := make([]Group, 0, groups.Len())
	for pair := groups.Oldest(); pair != nil; pair = pair.Next() {
		result = append(result, *pair.Value)
	}

	slices.SortStableFunc(result, func(a, b Group) int {
		return len(a.Prefixes) - len(b.Prefixes)
	})

	return result
}

// Write prints groups to w, each as a "prefix, prefix:" header followed by its lines, separated by a blank
// line. With sortLines, the lines within each group are printed in lexical order.
func Write(w io.Writer, groups []Group, sortLines bool) error {
	if len(groups) == 0 {
		return nil
	}

	var sb strings.Builder

	for i, group := range groups {
		if i > 0 {
			sb.WriteString("\n\n")
		}

		lines := group.Lines
		if sortLines {
			lines = slices.Sorted(slices.Values(lines))
		}

		sb.WriteString(strings.Join(group.Prefixes, ", "))
		sb.WriteString(":\n")
		sb.WriteString(strings.Join(lines, "\n"))
	}

	sb.WriteString("\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return errors.WithStackTrace(err)
	}

	return nil
}
