//go:build !windows
// +build !windows

package signal

import (
	"os"
	"syscall"
)

// InterruptSignal is an interrupt signal.
const InterruptSignal = syscall.SIGINT

// TermSignal asks a process to terminate gracefully.
const TermSignal = syscall.SIGTERM

// KillSignal terminates a process unconditionally.
const KillSignal = syscall.SIGKILL

// InterruptSignals contains a list of signals that are treated as interrupts.
var InterruptSignals []os.Signal = []os.Signal{syscall.SIGTERM, syscall.SIGINT}
