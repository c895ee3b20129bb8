package launcher

import (
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/insightsec/harvestr/internal/logger"
)

// DefaultCommand is the monitor program looked up on PATH when none is configured.
const DefaultCommand = "harvestr-monitor"

// ExecLauncher spawns monitor processes with os/exec. Each child gets its own
// process group and, when a log dir is configured, rotating stdout/stderr
// files named after its simple id.
type ExecLauncher struct {
	Command string   // monitor program; DefaultCommand when empty
	Args    []string // extra args placed before token and simple id
	WorkDir string
	Env     []string // extra environment entries appended to os.Environ
	Log     logger.Config
}

func (l *ExecLauncher) Spawn(token, simpleID string) (*Handle, error) {
	if token == "" {
		return nil, &SpawnError{SimpleID: simpleID, Err: errors.New("empty token")}
	}
	program := l.Command
	if program == "" {
		program = DefaultCommand
	}
	args := append(append([]string{}, l.Args...), token, simpleID)
	// #nosec G204 -- program comes from operator configuration
	cmd := exec.Command(program, args...)
	if l.WorkDir != "" {
		cmd.Dir = l.WorkDir
	}
	if len(l.Env) > 0 {
		cmd.Env = append(os.Environ(), l.Env...)
	}
	configureSysProcAttr(cmd)

	outW, errW, err := l.Log.Writers("monitor-" + simpleID)
	if err != nil {
		return nil, &SpawnError{SimpleID: simpleID, Err: err}
	}
	cmd.Stdout = writerOrNull(outW)
	cmd.Stderr = writerOrNull(errW)

	if err := cmd.Start(); err != nil {
		closeAll(outW, errW)
		return nil, &SpawnError{SimpleID: simpleID, Err: err}
	}

	h := &Handle{PID: cmd.Process.Pid, SimpleID: simpleID, proc: cmd.Process}

	// Reap the child when it eventually exits so long sessions do not
	// accumulate zombies. The exit outcome is deliberately not observed.
	go func() {
		_ = cmd.Wait()
		closeAll(outW, errW)
	}()

	return h, nil
}

func writerOrNull(w io.WriteCloser) io.Writer {
	if w != nil {
		return w
	}
	null, _ := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	return null
}

func closeAll(ws ...io.WriteCloser) {
	for _, w := range ws {
		if w != nil {
			_ = w.Close()
		}
	}
}
