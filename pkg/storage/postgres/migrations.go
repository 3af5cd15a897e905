package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// newMigrationProvider builds a goose provider over the embedded migrations.
// Applied versions are tracked in goose_db_version.
func (s *Store) newMigrationProvider() (*goose.Provider, func() error, error) {
	fsys, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("migrations fs: %w", err)
	}
	db := stdlib.OpenDBFromPool(s.pool)
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("goose provider: %w", err)
	}
	return provider, db.Close, nil
}

// migrate applies pending schema migrations.
func (s *Store) migrate(ctx context.Context) error {
	provider, closeDB, err := s.newMigrationProvider()
	if err != nil {
		return err
	}
	defer closeDB()

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	for _, r := range results {
		s.logger.Info("applied migration",
			"file", r.Source.Path,
			"version", r.Source.Version,
			"duration", r.Duration,
		)
	}
	return nil
}
