package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/insightsec/harvestr/internal/registry"
)

// DB implements registry.Store for SQLite (modernc.org/sqlite driver, CGO-free).
// Path is a filesystem path to the database file. Use ":memory:" for in-memory.

type DB struct {
	db *sql.DB
}

// New opens a SQLite database at path.
func New(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bots(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bot_id TEXT NOT NULL UNIQUE,
			bot_token TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			last_seen TIMESTAMP NOT NULL,
			events_collected INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_bots_status ON bots(status);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%w: %v", registry.ErrUnavailable, err)
		}
	}
	return nil
}

func (s *DB) Close() error { return s.db.Close() }

func (s *DB) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM bots;`); err != nil {
		return fmt.Errorf("%w: %v", registry.ErrUnavailable, err)
	}
	return nil
}

func (s *DB) Register(ctx context.Context, botID, token string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO bots(bot_id, bot_token, status, last_seen, events_collected)
		VALUES(?, ?, ?, ?, 0);`,
		botID, token, registry.StatusActive, time.Now().UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("%w: %s", registry.ErrDuplicateWorker, botID)
		}
		return 0, fmt.Errorf("%w: %v", registry.ErrUnavailable, err)
	}
	return res.LastInsertId()
}

func (s *DB) List(ctx context.Context) ([]registry.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bot_id, bot_token, status, last_seen, events_collected
		FROM bots
		ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", registry.ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

func (s *DB) UpdateHeartbeat(ctx context.Context, botID string, collected int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE bots SET last_seen=?, events_collected=events_collected+?
		WHERE bot_id=?;`,
		time.Now().UTC(), collected, botID)
	if err != nil {
		return fmt.Errorf("%w: %v", registry.ErrUnavailable, err)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]registry.Record, error) {
	out := make([]registry.Record, 0)
	for rows.Next() {
		var r registry.Record
		if err := rows.Scan(&r.ID, &r.BotID, &r.Token, &r.Status, &r.LastSeen, &r.EventsCollected); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
