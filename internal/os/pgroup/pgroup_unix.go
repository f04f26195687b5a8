//go:build !windows

package pgroup

import (
	"os"
	"syscall"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/os/exec"
	"golang.org/x/sys/unix"
)

// Signal sends sig to every process of the group, including the processes started by its members.
func (group *Group) Signal(sig os.Signal) error {
	unixSig, ok := sig.(syscall.Signal)
	if !ok {
		return errors.Errorf("unsupported signal %v", sig)
	}

	pgid := group.ID()
	if pgid == 0 {
		return nil
	}

	if err := unix.Kill(-pgid, unixSig); err != nil && !errors.Is(err, unix.ESRCH) {
		return errors.WithStackTrace(err)
	}

	return nil
}

func waitGroup(pgid int) (int, exec.Outcome, error) {
	for {
		var status unix.WaitStatus

		pid, err := unix.Wait4(-pgid, &status, 0, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}

		if err != nil {
			return 0, exec.Outcome{}, err
		}

		if status.Signaled() {
			return pid, exec.Outcome{Signaled: true, Signal: status.Signal()}, nil
		}

		return pid, exec.Outcome{Code: status.ExitStatus()}, nil
	}
}
