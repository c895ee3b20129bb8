package factory

import (
	"errors"
	"strings"

	"github.com/insightsec/harvestr/internal/registry"
	pg "github.com/insightsec/harvestr/internal/registry/postgres"
	sq "github.com/insightsec/harvestr/internal/registry/sqlite"
)

// NewFromDSN selects a registry backend based on DSN.
// Supported:
//   - sqlite:  "sqlite://<path>" or bare filepath (treated as sqlite)
//   - postgres: DSN starting with "postgres://" or "postgresql://"
func NewFromDSN(dsn string) (registry.Store, error) {
	d := strings.TrimSpace(dsn)
	ld := strings.ToLower(d)
	if ld == "" {
		return nil, errors.New("empty DSN")
	}
	if strings.HasPrefix(ld, "postgres://") || strings.HasPrefix(ld, "postgresql://") {
		return pg.New(d)
	}
	if strings.HasPrefix(ld, "sqlite://") {
		return sq.New(strings.TrimPrefix(d, "sqlite://"))
	}
	// default to sqlite path
	return sq.New(d)
}
