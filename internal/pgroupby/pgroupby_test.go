package pgroupby_test

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/gruntwork-io/partools/internal/pgroupby"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hostOutput = "foo: foo\nfoo: bar\nfoo: baz\nbar: bar\n"

func TestGroupBy(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		input     string
		delimiter *regexp.Regexp
		sortLines bool
		expected  string
	}{
		{
			name:     "default delimiter",
			input:    hostOutput,
			expected: "foo:\nfoo\nbaz\n\nbar, foo:\nbar\n",
		},
		{
			name:      "custom delimiter and sorted lines",
			input:     hostOutput,
			delimiter: regexp.MustCompile(`:`),
			sortLines: true,
			expected:  "foo:\n baz\n foo\n\nbar, foo:\n bar\n",
		},
		{
			name:     "lines without prefix",
			input:    "plain\nh1: x\nh2: x\n",
			expected: ":\nplain\n\nh1, h2:\nx\n",
		},
		{
			name:     "prefix seen later",
			input:    "x\nh1: x\n",
			expected: "h1:\nx\n",
		},
		{
			name:     "equal sized groups keep first seen order",
			input:    "h2: b\nh1: a\nh2: c\n",
			expected: "h2:\nb\nc\n\nh1:\na\n",
		},
		{
			name:     "duplicate lines",
			input:    "h1: a\nh1: a\n",
			expected: "h1:\na\n",
		},
		{
			name:     "empty rest and empty lines",
			input:    "h1:\n\nh1: a\n",
			expected: "h1:\n\na\n",
		},
		{
			name:     "crlf line endings",
			input:    "h1: a\r\nh2: a\r\n",
			expected: "h1, h2:\na\n",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			group := pgroupby.New(pgroupby.WithDelimiter(tc.delimiter))
			require.NoError(t, group.Read(context.Background(), strings.NewReader(tc.input)))

			var out bytes.Buffer
			require.NoError(t, pgroupby.Write(&out, group.Groups(), tc.sortLines))
			assert.Equal(t, tc.expected, out.String())
		})
	}
}

func TestGroups(t *testing.T) {
	t.Parallel()

	group := pgroupby.New()
	for _, line := range []string{"web2: up", "web1: up", "web1: disk full", "db: up"} {
		group.Add(line)
	}

	assert.Equal(t, []pgroupby.Group{
		{Prefixes: []string{"web1"}, Lines: []string{"disk full"}},
		{Prefixes: []string{"db", "web1", "web2"}, Lines: []string{"up"}},
	}, group.Groups())
}
