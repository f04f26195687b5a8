// Package pgroup runs commands in a shared process group and reaps them in the order they finish.
//
// The first started command leads the group, the following ones join it. WaitAny reaps whichever member
// exits next, the way `wait(-pgid)` does. Members are reaped here rather than through exec.Cmd.Wait, so
// their stdio must be files: output copied through pipes by the exec package is never drained.
package pgroup

import (
	"context"
	"sync"

	"github.com/gruntwork-io/partools/internal/errors"
	"github.com/gruntwork-io/partools/internal/os/exec"
	"github.com/gruntwork-io/partools/internal/os/signal"
)

// ErrEmpty is returned by WaitAny when the group has no running member.
var ErrEmpty = errors.New("process group has no running member")

// Group is a process group handle.
type Group struct {
	members map[int]*exec.Cmd
	pgid    int
	mu      sync.Mutex
}

// New returns an empty group. The process group itself is created by the first Start.
func New() *Group {
	return &Group{members: make(map[int]*exec.Cmd)}
}

// ID returns the process group id, or zero before the first member started.
func (group *Group) ID() int {
	group.mu.Lock()
	defer group.mu.Unlock()

	return group.pgid
}

// Len returns the number of members that were not reaped yet.
func (group *Group) Len() int {
	group.mu.Lock()
	defer group.mu.Unlock()

	return len(group.members)
}

// Start starts cmd as a member of the group.
func (group *Group) Start(cmd *exec.Cmd) error {
	group.mu.Lock()
	defer group.mu.Unlock()

	cmd.JoinProcessGroup(group.pgid)

	if err := cmd.Start(); err != nil {
		return err
	}

	pid := cmd.Process.Pid

	if group.pgid == 0 {
		group.pgid = pid
	}

	group.members[pid] = cmd

	return nil
}

// WaitAny blocks until a member exits, reaps it and returns it with its outcome. If ctx is done while
// waiting, the group is sent the termination signal and WaitAny keeps waiting for that member to exit.
func (group *Group) WaitAny(ctx context.Context) (*exec.Cmd, exec.Outcome, error) {
	group.mu.Lock()
	pgid, size := group.pgid, len(group.members)
	group.mu.Unlock()

	if size == 0 {
		return nil, exec.Outcome{}, ErrEmpty
	}

	stop := context.AfterFunc(ctx, func() {
		_ = group.Signal(signal.TermSignal)
	})
	defer stop()

	pid, outcome, err := waitGroup(pgid)
	if err != nil {
		return nil, exec.Outcome{}, errors.WithStackTrace(err)
	}

	group.mu.Lock()
	defer group.mu.Unlock()

	cmd, ok := group.members[pid]
	if !ok {
		return nil, outcome, errors.Errorf("reaped unknown process %d of group %d", pid, pgid)
	}

	delete(group.members, pid)

	// The process is already reaped, so the handle must not wait for it.
	_ = cmd.Process.Release()

	return cmd, outcome, nil
}
