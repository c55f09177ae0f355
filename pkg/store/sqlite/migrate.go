package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its base FS, dialect, and logger in package globals.
var gooseMu sync.Mutex

func configureGoose(logger goose.Logger) error {
	goose.SetBaseFS(migrations)
	if logger != nil {
		goose.SetLogger(logger)
	}
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("sqlite: set dialect: %w", err)
	}
	return nil
}

// Migrate applies every pending embedded migration. A nil logger keeps
// goose's current logger.
func Migrate(ctx context.Context, db *sql.DB, logger goose.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	if err := configureGoose(logger); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("sqlite: run migrations: %w", err)
	}
	return nil
}

// Rollback reverts the most recent migration.
func Rollback(ctx context.Context, db *sql.DB, logger goose.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	if err := configureGoose(logger); err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("sqlite: rollback migration: %w", err)
	}
	return nil
}

// Version returns the applied schema version.
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	if err := configureGoose(nil); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, db)
}
