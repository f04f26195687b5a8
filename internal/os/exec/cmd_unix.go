//go:build !windows

package exec

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/gruntwork-io/partools/internal/errors"
	"golang.org/x/sys/unix"
)

func shellCommand(script string) (string, []string, error) {
	return "/bin/sh", []string{"-c", script}, nil
}

// setProcessGroup makes the command join the process group pgid, or lead a new one if pgid is zero.
func setProcessGroup(cmd *exec.Cmd, pgid int) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}

	cmd.SysProcAttr.Setpgid = true
	cmd.SysProcAttr.Pgid = pgid
}

// JoinProcessGroup makes the command join the process group pgid once started, or lead a new one if
// pgid is zero.
func (cmd *Cmd) JoinProcessGroup(pgid int) {
	setProcessGroup(cmd.Cmd, pgid)
}

func (cmd *Cmd) signal(sig os.Signal) error {
	unixSig, ok := sig.(syscall.Signal)
	if !cmd.processGroup || !ok {
		return cmd.Process.Signal(sig)
	}

	if err := unix.Kill(-cmd.Process.Pid, unixSig); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return os.ErrProcessDone
		}

		return err
	}

	return nil
}
