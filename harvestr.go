package harvestr

import (
	"github.com/insightsec/harvestr/internal/config"
	"github.com/insightsec/harvestr/internal/controller"
	"github.com/insightsec/harvestr/internal/eventlog"
	elfactory "github.com/insightsec/harvestr/internal/eventlog/factory"
	"github.com/insightsec/harvestr/internal/launcher"
	"github.com/insightsec/harvestr/internal/registry"
	regfactory "github.com/insightsec/harvestr/internal/registry/factory"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = config.Config

type Controller = controller.Controller

type Options = controller.Options

type Result = controller.Result

type Registry = registry.Store

type WorkerRecord = registry.Record

type Launcher = launcher.Launcher

type ExecLauncher = launcher.ExecLauncher

type Handle = launcher.Handle

type Event = eventlog.Event

type Sink = eventlog.Sink

// LoadConfig reads and validates a harvestr.toml file.
func LoadConfig(path string) (*Config, error) { return config.Load(path) }

// NewController wires a session orchestrator from its collaborators.
func NewController(store Registry, sink Sink, ln Launcher, opts Options) *Controller {
	return controller.New(store, sink, ln, opts)
}

// NewRegistry opens a worker registry from a DSN (sqlite path or postgres URL).
func NewRegistry(dsn string) (Registry, error) { return regfactory.NewFromDSN(dsn) }

// NewFileSink opens the append-only JSONL audit log at path.
func NewFileSink(path string) (Sink, error) { return eventlog.NewFileSink(path) }

// NewSinkFromDSN opens any supported audit sink (file, sqlite, postgres, clickhouse).
func NewSinkFromDSN(dsn string) (Sink, error) { return elfactory.NewSinkFromDSN(dsn) }

// NewReader opens an indicator reader over the shared JSONL log.
func NewReader(path string) *eventlog.Reader { return eventlog.NewReader(path) }

// BotID returns the decorated registry key for a 1-based launch sequence.
func BotID(n int) string { return controller.BotID(n) }
