package util

import (
	"bytes"
	"io"

	"github.com/gruntwork-io/partools/internal/errors"
)

// PrefixedWriter returns a writer that inserts prefix at the beginning of every line written to writer.
// Lines may be split across writes.
func PrefixedWriter(writer io.Writer, prefix string) io.Writer {
	return &prefixedWriter{writer: writer, prefix: prefix, atLineStart: true}
}

type prefixedWriter struct {
	writer      io.Writer
	prefix      string
	atLineStart bool
}

func (pw *prefixedWriter) Write(p []byte) (int, error) {
	var buf bytes.Buffer

	for line := range bytes.Lines(p) {
		if pw.atLineStart {
			buf.WriteString(pw.prefix)
		}

		buf.Write(line)
		pw.atLineStart = line[len(line)-1] == '\n'
	}

	if _, err := pw.writer.Write(buf.Bytes()); err != nil {
		return 0, errors.WithStackTrace(err)
	}

	return len(p), nil
}
