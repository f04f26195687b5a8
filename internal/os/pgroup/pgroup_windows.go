//go:build windows

package pgroup

import (
	"os"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/os/exec"
)

// Signal is not supported on Windows.
func (group *Group) Signal(_ os.Signal) error {
	return errors.New("process groups are not supported on windows")
}

func waitGroup(_ int) (int, exec.Outcome, error) {
	return 0, exec.Outcome{}, errors.New("process groups are not supported on windows")
}
