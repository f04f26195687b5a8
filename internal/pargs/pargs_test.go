package pargs_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/os/exec"
	"github.com/gruntwork-io/partools/internal/pargs"
	"github.com/gruntwork-io/partools/internal/progress"
	"github.com/gruntwork-io/partools/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCommand(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		line        string
		template    []string
		expected    []string
		expectedErr bool
	}{
		{name: "append", template: []string{"echo"}, line: "a", expected: []string{"echo", "a"}},
		{name: "append all", template: []string{"echo", "-n"}, line: "a\x00b", expected: []string{"echo", "-n", "a", "b"}},
		{name: "replace", template: []string{"cp", "{}", "{}"}, line: "src\x00dst", expected: []string{"cp", "src", "dst"}},
		{name: "replace then append", template: []string{"mv", "{}", "-t"}, line: "a\x00b\x00c", expected: []string{"mv", "a", "-t", "b", "c"}},
		{name: "empty line", template: []string{"true"}, line: "", expected: []string{"true"}},
		{name: "trailing separators", template: []string{"echo"}, line: "a\x00\x00", expected: []string{"echo", "a"}},
		{name: "inner empty parameter", template: []string{"echo"}, line: "a\x00\x00b", expected: []string{"echo", "a", "", "b"}},
		{name: "not enough parameters", template: []string{"cp", "{}", "{}"}, line: "a", expectedErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			command, err := pargs.BuildCommand(tc.template, tc.line)
			if tc.expectedErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, command)
		})
	}
}

func TestEscape(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "plain", pargs.Escape("plain"))
	assert.Equal(t, `a\x00b`, pargs.Escape("a\x00b"))
	assert.Equal(t, `say \"hi\"\t`, pargs.Escape("say \"hi\"\t"))
}

func TestRender(t *testing.T) {
	t.Parallel()

	unit, next := pargs.Render(worker.Result[*pargs.Result]{Value: &pargs.Result{
		Line:    "a\x00b",
		Stdout:  []byte("out\n"),
		Stderr:  []byte("err\n"),
		Outcome: exec.Outcome{Code: 2},
	}})
	assert.True(t, next)
	assert.Equal(t, progress.Unit{Label: `a\x00b (exit status 2)`, Stdout: "out\n", Stderr: "err\n"}, unit)

	unit, _ = pargs.Render(worker.Result[*pargs.Result]{Value: &pargs.Result{Line: "ok"}})
	assert.Equal(t, progress.Unit{Label: "ok"}, unit)

	unit, _ = pargs.Render(worker.Result[*pargs.Result]{Err: &pargs.LineError{Line: "x", Err: errors.New("cannot run")}})
	assert.Equal(t, "x: cannot run", unit.Label)
	assert.True(t, strings.HasPrefix(unit.Stderr, "\t"))
	assert.True(t, strings.HasSuffix(unit.Stderr, "\n"))
}

func TestRunPrintsEveryLine(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	input := strings.NewReader("a\nb\x00c\n")
	p := pargs.New([]string{"echo", "{}"}, input, pargs.WithWorkers(1))

	require.NoError(t, p.Run(t.Context(), &stdout, &stderr))

	assert.Equal(t, "a\nb c\n", stdout.String())

	lines := strings.Split(strings.TrimSuffix(stderr.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "[1/"))
	assert.True(t, strings.HasSuffix(lines[0], "] a"))
	assert.Equal(t, `[2/2] b\x00c`, lines[1])

	consumed, submitted := p.Progress()
	assert.Equal(t, 2, consumed)
	assert.Equal(t, 2, submitted)
}

func TestRunReportsFailures(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	p := pargs.New([]string{"sh", "-c", "echo oops >&2; exit $0"}, strings.NewReader("3\n"), pargs.WithWorkers(2))

	require.NoError(t, p.Run(t.Context(), &stdout, &stderr, progress.WithStderrTerminal(false)))

	assert.Empty(t, stdout.String())
	assert.Equal(t, "[1/1] 3 (exit status 3)\noops\n", stderr.String())
}

func TestRunReportsLineErrors(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	p := pargs.New([]string{"echo", "{}", "{}"}, strings.NewReader("only-one\n"))

	require.NoError(t, p.Run(t.Context(), &stdout, &stderr))

	assert.Empty(t, stdout.String())
	assert.True(t, strings.HasPrefix(stderr.String(), "[1/1] only-one: not enough parameters"), stderr.String())
	assert.Contains(t, stderr.String(), "\n\t")
}

func TestRunTimesOutCommands(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	p := pargs.New([]string{"sh", "-c", "echo started; sleep $0"}, strings.NewReader("5\n"),
		pargs.WithTimeout(100*time.Millisecond),
		pargs.WithTermTimeout(time.Second),
		pargs.WithProcessGroup(true),
	)

	start := time.Now()

	require.NoError(t, p.Run(t.Context(), &stdout, &stderr))

	assert.Equal(t, "started\n", stdout.String())
	assert.Equal(t, "[1/1] 5 (signal: terminated)\n", stderr.String())
	assert.Less(t, time.Since(start), 5*time.Second)
}
