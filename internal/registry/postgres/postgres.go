package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/insightsec/harvestr/internal/registry"
)

// DB implements registry.Store for PostgreSQL via the pgx stdlib driver.

type DB struct {
	db *sql.DB
}

func New(dsn string) (*DB, error) {
	d, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &DB{db: d}, nil
}

func (p *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS bots(
			id BIGSERIAL PRIMARY KEY,
			bot_id TEXT NOT NULL UNIQUE,
			bot_token TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			last_seen TIMESTAMPTZ NOT NULL,
			events_collected BIGINT NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_bots_status ON bots(status);`,
	}
	for _, q := range stmts {
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%w: %v", registry.ErrUnavailable, err)
		}
	}
	return nil
}

func (p *DB) Close() error { return p.db.Close() }

func (p *DB) Clear(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM bots;`); err != nil {
		return fmt.Errorf("%w: %v", registry.ErrUnavailable, err)
	}
	return nil
}

func (p *DB) Register(ctx context.Context, botID, token string) (int64, error) {
	var id int64
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO bots(bot_id, bot_token, status, last_seen, events_collected)
		VALUES($1, $2, $3, $4, 0)
		RETURNING id;`,
		botID, token, registry.StatusActive, time.Now().UTC()).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("%w: %s", registry.ErrDuplicateWorker, botID)
		}
		return 0, fmt.Errorf("%w: %v", registry.ErrUnavailable, err)
	}
	return id, nil
}

func (p *DB) List(ctx context.Context) ([]registry.Record, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, bot_id, bot_token, status, last_seen, events_collected
		FROM bots
		ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", registry.ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()
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

func (p *DB) UpdateHeartbeat(ctx context.Context, botID string, collected int64) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE bots SET last_seen=$1, events_collected=events_collected+$2
		WHERE bot_id=$3;`,
		time.Now().UTC(), collected, botID)
	if err != nil {
		return fmt.Errorf("%w: %v", registry.ErrUnavailable, err)
	}
	return nil
}
