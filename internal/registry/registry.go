package registry

import (
	"context"
	"errors"
	"time"
)

// Record is one fleet member as persisted in the bots table.
// BotID is unique per session (the registry is fully cleared at session
// start). Token is the credential the monitor authenticates with and is
// never written to logs. LastSeen and EventsCollected are owned by the
// monitor processes; the controller only writes their defaults.
type Record struct {
	ID              int64     `json:"id"`
	BotID           string    `json:"bot_id"`
	Token           string    `json:"-"`
	Status          string    `json:"status"`
	LastSeen        time.Time `json:"last_seen"`
	EventsCollected int64     `json:"events_collected"`
}

// StatusActive is the default status assigned at registration.
const StatusActive = "active"

var (
	// ErrDuplicateWorker is returned by Register when the bot_id already exists.
	ErrDuplicateWorker = errors.New("registry: duplicate worker")
	// ErrUnavailable is returned when the underlying store cannot be reached.
	ErrUnavailable = errors.New("registry: store unavailable")
)

// Store is the persistence contract the controller depends on.
// Clear must be idempotent; EnsureSchema must be safe to call repeatedly.

type Store interface {
	EnsureSchema(ctx context.Context) error
	Clear(ctx context.Context) error
	Register(ctx context.Context, botID, token string) (int64, error)
	List(ctx context.Context) ([]Record, error)
	UpdateHeartbeat(ctx context.Context, botID string, collected int64) error
	Close() error
}
