package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation configuration for monitor output files
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes where a spawned monitor's stdout/stderr go.
// If Dir is set, files are Dir/<name>.stdout.log and Dir/<name>.stderr.log.
// Rotation parameters follow lumberjack semantics.
type Config struct {
	Dir        string `json:"dir" mapstructure:"dir"`
	MaxSizeMB  int    `json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `json:"compress" mapstructure:"compress"`
	Level      string `json:"level" mapstructure:"level"`
}

// Writers returns io.WriteClosers for stdout and stderr of the named monitor.
// Both are nil when no Dir is configured.
func (c Config) Writers(name string) (io.WriteCloser, io.WriteCloser, error) {
	if c.Dir == "" {
		return nil, nil, nil
	}
	if err := os.MkdirAll(c.Dir, 0o750); err != nil {
		return nil, nil, err
	}
	outW := &lj.Logger{
		Filename:   filepath.Join(c.Dir, fmt.Sprintf("%s.stdout.log", name)),
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
	errW := &lj.Logger{
		Filename:   filepath.Join(c.Dir, fmt.Sprintf("%s.stderr.log", name)),
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
	return outW, errW, nil
}

// Setup installs a colored slog handler on stderr as the default logger.
// level accepts debug/info/warn/error (case-insensitive); empty means info.
func Setup(level string) *slog.Logger {
	var lv slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lv = slog.LevelDebug
	case "warn", "warning":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	h := NewColorTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv}, true)
	l := slog.New(h)
	slog.SetDefault(l)
	return l
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
