//go:build !windows

package engine

import (
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/satishbabariya/prisma-engine-go/internal/debug"
)

// terminate asks the engine to exit with SIGINT and escalates to SIGKILL
// when it has not exited within timeout. A zero timeout waits forever.
func terminate(cmd *exec.Cmd, exited <-chan struct{}, timeout time.Duration) error {
	if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
		if err == os.ErrProcessDone {
			return nil
		}
		return err
	}
	if timeout <= 0 {
		<-exited
		return nil
	}
	select {
	case <-exited:
		return nil
	case <-time.After(timeout):
	}

	debug.Warn("query engine did not exit in time, killing", "pid", cmd.Process.Pid, "timeout", timeout)
	if err := cmd.Process.Signal(syscall.SIGKILL); err != nil && err != os.ErrProcessDone {
		return err
	}
	<-exited
	return nil
}
