package postgres

import (
	"fmt"
	"net/url"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"tradingagents/internal/adapters/config"
	"tradingagents/pkg/errors"
)

// Migrate applies pending database migrations from the given directory.
// dir example: file://migrations
func Migrate(dir string, cfg config.PostgresConfig) error {
	if dir == "" {
		dir = "file://migrations"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password),
		cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	m, err := migrate.New(dir, dsn)
	if err != nil {
		return errors.Wrap(err, "open migrations")
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "apply migrations")
	}
	return nil
}
