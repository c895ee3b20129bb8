//go:build windows

package launcher

import (
	"os/exec"
	"syscall"
)

// Windows creation flags
const createNewProcessGroup = 0x00000200

// configureSysProcAttr creates a new process group on Windows so console
// control events for the controller do not propagate to monitors.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
}
