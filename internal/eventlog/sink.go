package eventlog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
)

// Sink is a destination for audit events. Implementations must append each
// event as one self-contained unit so concurrent writers from other tools
// cannot interleave inside a record.
type Sink interface {
	Append(ctx context.Context, e Event) error
}

// FileSink appends newline-delimited JSON records to a log file. The file is
// opened in append mode and closed on every call: each write is durable and
// a single line-append stays atomic even with external writers on the same
// file.
type FileSink struct {
	path string
}

func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		return nil, errors.New("empty event log path")
	}
	return &FileSink{path: path}, nil
}

// Path returns the log file location.
func (f *FileSink) Path() string { return f.path }

func (f *FileSink) Append(_ context.Context, e Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	// #nosec G304 -- path comes from operator configuration
	fh, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}
	_, werr := fh.Write(append(b, '\n'))
	cerr := fh.Close()
	if werr != nil {
		return werr
	}
	return cerr
}

// MultiSink fans an event out to every sink. All sinks are attempted even
// when one fails; the first error is returned so callers can warn on it.
type MultiSink []Sink

func (m MultiSink) Append(ctx context.Context, e Event) error {
	var first error
	for _, s := range m {
		if err := s.Append(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
