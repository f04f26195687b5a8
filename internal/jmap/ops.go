package jmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gruntwork-io/partools/internal/errors"
)

// Op is one change or read applied to a map object within a transaction.
type Op struct {
	apply func(out io.Writer) func(obj *Object) error
	desc  string
}

func (op Op) String() string {
	return op.desc
}

// Set returns an op setting key to the JSON value.
func Set(key string, value json.RawMessage) Op {
	return Op{
		desc: "set " + key,
		apply: func(_ io.Writer) func(*Object) error {
			return func(obj *Object) error {
				var compact bytes.Buffer

				if err := json.Compact(&compact, value); err != nil {
					return errors.WithStackTraceAndPrefix(err, "invalid JSON value for key %q", key)
				}

				obj.Set(key, compact.Bytes())

				return nil
			}
		},
	}
}

// ParseSet parses a `key=JSON` assignment into a Set op.
func ParseSet(assignment string) (Op, error) {
	key, value, ok := strings.Cut(assignment, "=")
	if !ok {
		return Op{}, errors.Errorf("must be <key>=<value>: %q", assignment)
	}

	if !json.Valid([]byte(value)) {
		return Op{}, errors.Errorf("invalid JSON value for key %q: %s", key, value)
	}

	return Set(key, json.RawMessage(value)), nil
}

// Delete returns an op removing key.
func Delete(key string) Op {
	return Op{
		desc: "delete " + key,
		apply: func(_ io.Writer) func(*Object) error {
			return func(obj *Object) error {
				obj.Delete(key)
				return nil
			}
		},
	}
}

// Get returns an op writing the compact JSON value of key followed by a newline, or `null` if key is not set.
func Get(key string) Op {
	return Op{
		desc: "get " + key,
		apply: func(out io.Writer) func(*Object) error {
			return func(obj *Object) error {
				value, ok := obj.Get(key)
				if !ok {
					value = json.RawMessage("null")
				}

				var compact bytes.Buffer

				if err := json.Compact(&compact, value); err != nil {
					return errors.WithStackTrace(err)
				}

				_, err := fmt.Fprintf(out, "%s\n", compact.Bytes())

				return errors.WithStackTrace(err)
			}
		},
	}
}

// Apply runs ops in order within a single transaction, writing the output of the Get ops to out.
func (m *Map) Apply(ctx context.Context, out io.Writer, ops ...Op) error {
	return m.Transaction(ctx, func(obj *Object) error {
		for _, op := range ops {
			m.logger.Tracef("Applying %s to %s", op, m.path)

			if err := op.apply(out)(obj); err != nil {
				return err
			}
		}

		return nil
	})
}
