package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/goliatone/go-messmass/internal/config"
	"github.com/goliatone/go-messmass/internal/logging"
	"github.com/goliatone/go-messmass/pkg/store/sqlite"
)

type migrateCmd struct {
	Up      migrateUpCmd      `cmd:"" default:"1" help:"Apply pending migrations."`
	Down    migrateDownCmd    `cmd:"" help:"Roll back the most recent migration."`
	Version migrateVersionCmd `cmd:"" help:"Print the current schema version."`
}

type migrateUpCmd struct{}
type migrateDownCmd struct{}
type migrateVersionCmd struct{}

func openSchema(ctx context.Context, path string) (*sqlite.Store, *zap.Logger, error) {
	cfg, logger, err := loadRuntime(path)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.Driver != config.DriverSQLite {
		return nil, nil, fmt.Errorf("messmass-admin: migrations need database.driver=%s, got %s", config.DriverSQLite, cfg.Database.Driver)
	}
	store, err := sqlite.Open(ctx, cfg.Database.DSN, sqlite.Options{SkipMigrate: true})
	if err != nil {
		return nil, nil, err
	}
	return store, logger, nil
}

func (migrateUpCmd) Run(ctx context.Context, root *cli) error {
	store, logger, err := openSchema(ctx, root.Config)
	if err != nil {
		return err
	}
	defer store.Close()
	return sqlite.Migrate(ctx, store.DB(), logging.NewGooseLogger(logger))
}

func (migrateDownCmd) Run(ctx context.Context, root *cli) error {
	store, logger, err := openSchema(ctx, root.Config)
	if err != nil {
		return err
	}
	defer store.Close()
	return sqlite.Rollback(ctx, store.DB(), logging.NewGooseLogger(logger))
}

func (migrateVersionCmd) Run(ctx context.Context, root *cli) error {
	store, _, err := openSchema(ctx, root.Config)
	if err != nil {
		return err
	}
	defer store.Close()
	version, err := sqlite.Version(ctx, store.DB())
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "schema version %d\n", version)
	return nil
}
