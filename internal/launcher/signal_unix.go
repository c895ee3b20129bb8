//go:build !windows

package launcher

import (
	"os"
	"syscall"
)

func signalGroup(pid int, sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		s = syscall.SIGTERM
	}
	// negative pid targets the process group created at spawn
	return syscall.Kill(-pid, s)
}
