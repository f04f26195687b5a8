//go:build windows
// +build windows

package signal

import (
	"os"
)

// InterruptSignal is an interrupt signal.
var InterruptSignal os.Signal = os.Interrupt

// TermSignal asks a process to terminate. Windows has no graceful equivalent, so it kills.
var TermSignal os.Signal = os.Kill

// KillSignal terminates a process unconditionally.
var KillSignal os.Signal = os.Kill

// InterruptSignals contains a list of signals that are treated as interrupts.
var InterruptSignals []os.Signal = []os.Signal{os.Interrupt}
