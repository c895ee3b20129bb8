//go:build !windows

package launcher

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/insightsec/harvestr/internal/logger"
)

func TestSpawnSuccess(t *testing.T) {
	l := &ExecLauncher{Command: "/bin/sh", Args: []string{"-c", "exit 0"}}
	h, err := l.Spawn("tokA", "1")
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if h.PID <= 0 {
		t.Fatalf("expected a real pid, got %d", h.PID)
	}
	if h.SimpleID != "1" {
		t.Fatalf("unexpected simple id %q", h.SimpleID)
	}
}

func TestSpawnMissingBinary(t *testing.T) {
	l := &ExecLauncher{Command: "/nonexistent/harvestr-monitor"}
	_, err := l.Spawn("tokA", "1")
	var se *SpawnError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpawnError, got %v", err)
	}
	if se.SimpleID != "1" {
		t.Fatalf("unexpected simple id in error: %q", se.SimpleID)
	}
}

func TestSpawnEmptyToken(t *testing.T) {
	l := &ExecLauncher{Command: "/bin/sh", Args: []string{"-c", "exit 0"}}
	if _, err := l.Spawn("", "1"); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestSpawnArgOrder(t *testing.T) {
	// the monitor must receive the raw token then the simple id
	out := filepath.Join(t.TempDir(), "args.txt")
	l := &ExecLauncher{Command: "/bin/sh", Args: []string{"-c", `printf '%s %s' "$1" "$2" > ` + out, "argv0"}}
	if _, err := l.Spawn("tokA", "7"); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for {
		b, err := os.ReadFile(out)
		if err == nil && string(b) == "tokA 7" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("monitor args not observed, got %q (err %v)", string(b), err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestSpawnWritesMonitorLogs(t *testing.T) {
	dir := t.TempDir()
	l := &ExecLauncher{
		Command: "/bin/sh",
		Args:    []string{"-c", "echo out", "argv0"},
		Log:     logger.Config{Dir: dir},
	}
	if _, err := l.Spawn("tokA", "3"); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	stdout := filepath.Join(dir, "monitor-3.stdout.log")
	deadline := time.Now().Add(5 * time.Second)
	for {
		b, err := os.ReadFile(stdout)
		if err == nil && len(b) > 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("stdout log not written: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestSignalGroup(t *testing.T) {
	l := &ExecLauncher{Command: "/bin/sh", Args: []string{"-c", "sleep 30"}}
	h, err := l.Spawn("tokA", "9")
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if err := h.SignalGroup(syscall.SIGKILL); err != nil {
		t.Fatalf("signal group: %v", err)
	}
	// the reaper goroutine collects the child; just ensure repeat signaling
	// of a dying group does not panic
	time.Sleep(100 * time.Millisecond)
	_ = h.SignalGroup(syscall.SIGKILL)
}

func TestSignalGroupNilHandle(t *testing.T) {
	var h *Handle
	if err := h.SignalGroup(syscall.SIGTERM); err != nil {
		t.Fatalf("nil handle signal: %v", err)
	}
}
