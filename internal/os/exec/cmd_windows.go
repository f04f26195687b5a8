//go:build windows

package exec

import (
	"os"
	"os/exec"
)

func shellCommand(script string) (string, []string, error) {
	return "cmd", []string{"/C", script}, nil
}

// Process groups are not supported on Windows, the command runs in the group of its parent.
func setProcessGroup(_ *exec.Cmd, _ int) {}

// JoinProcessGroup is a no-op on Windows.
func (cmd *Cmd) JoinProcessGroup(_ int) {}

func (cmd *Cmd) signal(sig os.Signal) error {
	return cmd.Process.Signal(sig)
}
