//go:build !windows

package process

import (
	"os/exec"
	"syscall"
	"time"
)

// waitDelay bounds how long Wait blocks on inherited pipes after the group
// has been killed.
const waitDelay = 2 * time.Second

// Configure starts cmd in its own process group and makes context
// cancellation kill the whole group instead of only the direct child.
// Must be called before cmd.Start.
func Configure(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		KillProcessGroup(cmd.Process.Pid)
		return nil
	}
	cmd.WaitDelay = waitDelay
}

// KillProcessGroup kills a process and all its children by sending SIGKILL
// to the process group (negative PID).
func KillProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	// Best-effort; the child may already have exited.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
