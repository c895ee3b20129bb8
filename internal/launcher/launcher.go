package launcher

import (
	"fmt"
	"os"
)

// Handle identifies a successfully started monitor process. The launcher is
// fire-and-forget: the handle reports only the start outcome and offers a
// best-effort signal for the optional kill-on-shutdown path.
type Handle struct {
	PID      int
	SimpleID string

	proc *os.Process
}

// SignalGroup delivers sig to the monitor's process group. Safe to call on
// an already-exited process; the error is informational.
func (h *Handle) SignalGroup(sig os.Signal) error {
	if h == nil || h.proc == nil {
		return nil
	}
	return signalGroup(h.proc.Pid, sig)
}

// SpawnError reports that a monitor process could not be started.
type SpawnError struct {
	SimpleID string
	Err      error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn monitor %s: %v", e.SimpleID, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Launcher starts one detached monitor process per credential. Spawn returns
// as soon as the OS process exists; it never waits for the child's lifetime.
type Launcher interface {
	Spawn(token, simpleID string) (*Handle, error)
}
