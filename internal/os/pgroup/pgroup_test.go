//go:build linux || darwin

package pgroup_test

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/gruntwork-io/partools/internal/os/exec"
	"github.com/gruntwork-io/partools/internal/os/pgroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func start(t *testing.T, group *pgroup.Group, script string) *exec.Cmd {
	t.Helper()

	cmd := exec.Command("/bin/sh", "-c", script)
	cmd.Stderr = nil
	require.NoError(t, group.Start(cmd))

	return cmd
}

func TestGroupReapsInCompletionOrder(t *testing.T) {
	t.Parallel()

	group := pgroup.New()

	slow := start(t, group, "sleep 0.4; exit 2")
	fast := start(t, group, "sleep 0.1; exit 3")

	pgid := group.ID()
	assert.Equal(t, slow.Process.Pid, pgid)

	memberPgid, err := unix.Getpgid(fast.Process.Pid)
	require.NoError(t, err)
	assert.Equal(t, pgid, memberPgid)
	assert.Equal(t, 2, group.Len())

	cmd, outcome, err := group.WaitAny(t.Context())
	require.NoError(t, err)
	assert.Same(t, fast, cmd)
	assert.Equal(t, exec.Outcome{Code: 3}, outcome)

	cmd, outcome, err = group.WaitAny(t.Context())
	require.NoError(t, err)
	assert.Same(t, slow, cmd)
	assert.Equal(t, 2, outcome.Code)

	assert.Zero(t, group.Len())

	_, _, err = group.WaitAny(t.Context())
	require.ErrorIs(t, err, pgroup.ErrEmpty)
}

func TestGroupSignal(t *testing.T) {
	t.Parallel()

	group := pgroup.New()

	start(t, group, "sleep 5")
	start(t, group, "sleep 5")

	require.NoError(t, group.Signal(syscall.SIGTERM))

	for range 2 {
		_, outcome, err := group.WaitAny(t.Context())
		require.NoError(t, err)
		assert.True(t, outcome.Signaled)
		assert.Equal(t, syscall.SIGTERM, outcome.Signal)
	}
}

func TestGroupWaitAnyTerminatesOnCancel(t *testing.T) {
	t.Parallel()

	group := pgroup.New()

	start(t, group, "sleep 5")

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	begin := time.Now()

	_, outcome, err := group.WaitAny(ctx)
	require.NoError(t, err)
	assert.True(t, outcome.Signaled)
	assert.Less(t, time.Since(begin), 5*time.Second)
}
