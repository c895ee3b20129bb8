//go:build !windows

package launcher

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr puts the monitor in its own process group so a
// shutdown signal to the controller's group does not reach it implicitly,
// and so the optional kill-on-shutdown path can signal the whole group.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
