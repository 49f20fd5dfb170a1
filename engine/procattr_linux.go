//go:build linux

package engine

import "syscall"

// sysProcAttr kills the engine when the parent dies.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Pdeathsig: syscall.SIGKILL}
}
