//go:build windows

package engine

import (
	"os"
	"os/exec"
	"time"
)

// terminate kills the engine and waits up to timeout for it to exit.
func terminate(cmd *exec.Cmd, exited <-chan struct{}, timeout time.Duration) error {
	if err := cmd.Process.Kill(); err != nil && err != os.ErrProcessDone {
		return err
	}
	if timeout <= 0 {
		<-exited
		return nil
	}
	select {
	case <-exited:
	case <-time.After(timeout):
	}
	return nil
}
