// Package progress decorates an iteration with a progress line per item.
//
// Every item handed out by the wrapped iterator is rendered to stderr as `[consumed/submitted] label`,
// followed by the item's own stderr and stdout output. When stderr is a terminal, each progress line
// starts by clearing the current line, and the line of an item that produced no output is left without
// its trailing newline, so that the next progress line overwrites it. Silent runs therefore show a single
// updating line, while items with output keep their progress line above the output.
package progress

import (
	"context"
	"fmt"
	"io"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/mattn/go-isatty"
)

// ClearLine erases the current terminal line and moves the cursor to its first column.
const ClearLine = "\x1b[2K\x1b[1G"

// Iterator is the component whose items are printed, typically a *worker.Map.
type Iterator[T any] interface {
	Iterate(ctx context.Context, yield func(T) bool) error
	Progress() (consumed, submitted int)
}

// Unit is how a single item is rendered. Stdout and Stderr are written verbatim, so they carry their own
// trailing newlines.
type Unit struct {
	Label  string
	Stdout string
	Stderr string
}

// Option configures a Printer.
type Option func(*options)

type options struct {
	stdoutTerminal *bool
	stderrTerminal *bool
}

// WithStdoutTerminal overrides whether stdout is treated as a terminal.
func WithStdoutTerminal(isTerminal bool) Option {
	return func(opts *options) {
		opts.stdoutTerminal = &isTerminal
	}
}

// WithStderrTerminal overrides whether stderr is treated as a terminal.
func WithStderrTerminal(isTerminal bool) Option {
	return func(opts *options) {
		opts.stderrTerminal = &isTerminal
	}
}

// Printer prints the progress of an Iterator.
type Printer[T any] struct {
	it             Iterator[T]
	stdout         io.Writer
	stderr         io.Writer
	stdoutTerminal bool
	stderrTerminal bool
}

// New returns a Printer writing the progress of it to stderr and the items' stdout to stdout.
func New[T any](it Iterator[T], stdout, stderr io.Writer, opts ...Option) *Printer[T] {
	cfg := &options{}

	for _, opt := range opts {
		opt(cfg)
	}

	printer := &Printer[T]{
		it:             it,
		stdout:         stdout,
		stderr:         stderr,
		stdoutTerminal: IsTerminal(stdout),
		stderrTerminal: IsTerminal(stderr),
	}

	if cfg.stdoutTerminal != nil {
		printer.stdoutTerminal = *cfg.stdoutTerminal
	}

	if cfg.stderrTerminal != nil {
		printer.stderrTerminal = *cfg.stderrTerminal
	}

	return printer
}

// Progress returns the progress of the wrapped iterator.
func (printer *Printer[T]) Progress() (consumed, submitted int) {
	return printer.it.Progress()
}

// Iterate iterates the wrapped iterator and renders every item with render. Iteration stops when render
// returns false, when writing fails, or when the wrapped iterator stops. The error of the wrapped
// iterator takes precedence over a write error.
func (printer *Printer[T]) Iterate(ctx context.Context, render func(item T) (Unit, bool)) error {
	var (
		pendingNewline bool
		writeErr       error
	)

	err := printer.it.Iterate(ctx, func(item T) bool {
		unit, next := render(item)

		pendingNewline, writeErr = printer.print(unit)
		if writeErr != nil {
			return false
		}

		return next
	})

	if pendingNewline {
		if _, err := io.WriteString(printer.stderr, "\n"); err != nil && writeErr == nil {
			writeErr = errors.WithStackTrace(err)
		}
	}

	if err != nil {
		return err
	}

	return writeErr
}

// print renders one unit and reports whether its progress line was left without a newline.
func (printer *Printer[T]) print(unit Unit) (bool, error) {
	var clearLine, newline string

	if printer.stderrTerminal {
		clearLine = ClearLine
	}

	overwritable := printer.stderrTerminal && unit.Stderr == "" && (unit.Stdout == "" || !printer.stdoutTerminal)
	if !overwritable {
		newline = "\n"
	}

	consumed, submitted := printer.it.Progress()

	line := fmt.Sprintf("%s[%d/%d] %s%s%s", clearLine, consumed, submitted, unit.Label, newline, unit.Stderr)

	if _, err := io.WriteString(printer.stderr, line); err != nil {
		return false, errors.WithStackTrace(err)
	}

	if err := flush(printer.stderr); err != nil {
		return false, err
	}

	if unit.Stdout != "" {
		if _, err := io.WriteString(printer.stdout, unit.Stdout); err != nil {
			return overwritable, errors.WithStackTrace(err)
		}

		if err := flush(printer.stdout); err != nil {
			return overwritable, err
		}
	}

	return overwritable, nil
}

// IsTerminal reports whether w is a file descriptor connected to a terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}

	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

func flush(w io.Writer) error {
	if flusher, ok := w.(interface{ Flush() error }); ok {
		return errors.WithStackTrace(flusher.Flush())
	}

	return nil
}
