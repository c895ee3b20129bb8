package eventlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
)

// ErrNoIOC is returned when the log contains no matching indicator.
var ErrNoIOC = errors.New("no matching ioc in event log")

// Reader extracts indicators from the shared JSONL log. Other tools write
// the same file concurrently, so malformed or truncated lines are skipped
// rather than treated as errors.
type Reader struct {
	path string
}

func NewReader(path string) *Reader { return &Reader{path: path} }

// LatestIOC streams the log and returns the value of the most recent
// ioc_discovered event whose data.ioc_type matches iocType.
func (r *Reader) LatestIOC(iocType string) (string, error) {
	// #nosec G304 -- path comes from operator configuration
	f, err := os.Open(r.path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	var latest string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			continue // tolerate corrupted or partial lines
		}
		if e.Type != TypeIOC || e.Data == nil {
			continue
		}
		if t, _ := e.Data["ioc_type"].(string); t != iocType {
			continue
		}
		if v, ok := e.Data["value"].(string); ok && v != "" {
			latest = v
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if latest == "" {
		return "", ErrNoIOC
	}
	return latest, nil
}

// Tail returns up to n most recent well-formed events, oldest first.
func (r *Reader) Tail(n int) ([]Event, error) {
	// #nosec G304 -- path comes from operator configuration
	f, err := os.Open(r.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var out []Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		out = append(out, e)
		if n > 0 && len(out) > n {
			out = out[1:]
		}
	}
	return out, sc.Err()
}
