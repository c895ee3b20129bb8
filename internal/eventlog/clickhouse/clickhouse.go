package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/insightsec/harvestr/internal/eventlog"
)

// Sink ships audit events to ClickHouse using the official Go client, for
// installations that aggregate harvester logs there instead of tailing the
// JSONL file.
type Sink struct {
	conn  driver.Conn
	table string
}

func New(addr, table string) (*Sink, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: "default",
			Username: "default",
			Password: "",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &Sink{conn: conn, table: table}, nil
}

func (s *Sink) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Sink) Append(ctx context.Context, e eventlog.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (event_type, occurred_at, status, bot_id, reason, payload) VALUES (?, ?, ?, ?, ?, ?)`, s.table)

	err = s.conn.Exec(ctx, query,
		string(e.Type),
		e.Timestamp,
		string(e.Status),
		e.BotID,
		e.Reason,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event into ClickHouse: %w", err)
	}
	return nil
}
