package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/insightsec/harvestr/internal/eventlog"
)

func TestNewSinkFromDSNFile(t *testing.T) {
	dir := t.TempDir()
	for _, dsn := range []string{
		filepath.Join(dir, "bare.log"),
		"file://" + filepath.Join(dir, "prefixed.log"),
	} {
		s, err := NewSinkFromDSN(dsn)
		if err != nil {
			t.Fatalf("NewSinkFromDSN(%q): %v", dsn, err)
		}
		if _, ok := s.(*eventlog.FileSink); !ok {
			t.Fatalf("expected FileSink for %q, got %T", dsn, s)
		}
	}
}

func TestNewSinkFromDSNSqlite(t *testing.T) {
	s, err := NewSinkFromDSN("sqlite://" + filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("NewSinkFromDSN: %v", err)
	}
	sq, ok := s.(*eventlog.SQLSink)
	if !ok {
		t.Fatalf("expected SQLSink, got %T", s)
	}
	if err := sq.Append(context.Background(), eventlog.New(eventlog.TypeSessionStart, eventlog.StatusSuccess)); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = sq.Close()
}

func TestNewSinkFromDSNErrors(t *testing.T) {
	if _, err := NewSinkFromDSN(""); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
	if _, err := NewSinkFromDSN("ftp://host/events"); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}
