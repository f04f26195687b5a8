package jmap

import (
	"strings"

	"github.com/gruntwork-io/partools/internal/jmap"
)

// opsValue is the value of the flags adding ops to a shared list, so that the ops keep the order they
// were given in on the command line.
type opsValue struct {
	ops   *[]jmap.Op
	parse func(arg string) (jmap.Op, error)
	args  []string
}

func newOpsValue(ops *[]jmap.Op, parse func(arg string) (jmap.Op, error)) *opsValue {
	return &opsValue{ops: ops, parse: parse}
}

// Set implements flag.Value.
func (val *opsValue) Set(arg string) error {
	op, err := val.parse(arg)
	if err != nil {
		return err
	}

	*val.ops = append(*val.ops, op)
	val.args = append(val.args, arg)

	return nil
}

// String implements flag.Value.
func (val *opsValue) String() string {
	if val == nil {
		return ""
	}

	return strings.Join(val.args, ",")
}

func parseDelete(key string) (jmap.Op, error) {
	return jmap.Delete(key), nil
}

func parseGet(key string) (jmap.Op, error) {
	return jmap.Get(key), nil
}
