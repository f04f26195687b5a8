package worker

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/queue"
	"golang.org/x/sync/errgroup"
)

// NewLinewise returns a Map running fn over the lines of r.
func NewLinewise[R any](r io.Reader, workers int, fn Func[string, R], opts ...Option) *Map[string, R] {
	return New(Lines(r), workers, fn, opts...)
}

// Lines returns a Source enumerating the lines of r without their line terminator ("\n" or "\r\n").
//
// The reader is consumed by a background goroutine, so a slow stream never holds up the workers on
// lines that were already read. The goroutine is joined before the source returns. When enumeration
// stops early and the reader supports read deadlines (pipes, sockets), a pending read is interrupted;
// otherwise the source waits for the pending read to complete.
func Lines(r io.Reader) Source[string] {
	return func(ctx context.Context, yield func(string) bool) error {
		var (
			lines = queue.New[string]()
			group errgroup.Group
		)

		group.Go(func() error {
			return readLines(ctx, r, lines)
		})

		for {
			line, err := lines.Pop(ctx)
			if err != nil || !yield(line) {
				break
			}
		}

		restore := func() {}

		if !lines.IsClosed() {
			lines.Close()
			restore = interruptRead(r)
		}

		lines.Clear()

		err := group.Wait()

		restore()

		return err
	}
}

func readLines(ctx context.Context, r io.Reader, lines *queue.Queue[string]) error {
	defer lines.Close()

	reader := bufio.NewReader(r)

	for {
		line, err := reader.ReadString('\n')

		if line != "" {
			if err := lines.Push(ctx, trimLineEnding(line)); err != nil {
				return nil
			}
		}

		if err == nil {
			continue
		}

		if errors.Is(err, io.EOF) || lines.IsClosed() {
			return nil
		}

		return errors.WithStackTrace(err)
	}
}

// interruptRead makes a pending read on r return, if r supports read deadlines. The returned func clears
// the deadline again so the caller can keep reading from r.
func interruptRead(r io.Reader) func() {
	reader, ok := r.(interface{ SetReadDeadline(t time.Time) error })
	if !ok || reader.SetReadDeadline(time.Now()) != nil {
		return func() {}
	}

	return func() {
		_ = reader.SetReadDeadline(time.Time{})
	}
}

func trimLineEnding(line string) string {
	line = strings.TrimSuffix(line, "\n")

	return strings.TrimSuffix(line, "\r")
}
