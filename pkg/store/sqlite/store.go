// Package sqlite persists admin records in SQLite through the pure Go
// modernc driver. Each entity is stored as a JSON document keyed by its id;
// list queries are evaluated with admin.ApplyListQuery.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	admin "github.com/goliatone/go-messmass/components/admin"
)

// Options configures Open.
type Options struct {
	// SkipMigrate leaves the schema untouched.
	SkipMigrate bool
	// Logger receives goose migration output.
	Logger goose.Logger
	Now    func() time.Time
}

// Store bundles one table per admin entity plus the settings row.
type Store struct {
	db         *sql.DB
	Projects   *Table[admin.Project]
	Categories *Table[admin.HashtagCategory]
	Users      *Table[admin.AdminUser]
	Variables  *Table[admin.VariableDefinition]
	Styles     *Table[admin.StyleTheme]
	Charts     *Table[admin.ChartAlgorithm]
	Settings   *Settings
}

// Open connects to path (a file name or any modernc DSN) and migrates the
// schema unless opts.SkipMigrate is set.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: pragma: %w", err)
	}
	if !opts.SkipMigrate {
		if err := Migrate(ctx, db, opts.Logger); err != nil {
			db.Close()
			return nil, err
		}
	}
	return NewStore(db, opts.Now), nil
}

// NewStore wraps an already migrated database.
func NewStore(db *sql.DB, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		db:         db,
		Projects:   newTable[admin.Project](db, "projects", "project", now),
		Categories: newTable[admin.HashtagCategory](db, "categories", "category", now),
		Users:      newTable[admin.AdminUser](db, "users", "user", now),
		Variables:  newTable[admin.VariableDefinition](db, "variables", "variable", now),
		Styles:     newTable[admin.StyleTheme](db, "styles", "style", now),
		Charts:     newTable[admin.ChartAlgorithm](db, "charts", "chart", now),
		Settings:   &Settings{db: db, now: now},
	}
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Bind points every repository of opts at this store.
func (s *Store) Bind(opts *admin.Options) {
	opts.Projects = s.Projects
	opts.Categories = s.Categories
	opts.Users = s.Users
	opts.Variables = s.Variables
	opts.Styles = s.Styles
	opts.Charts = s.Charts
	opts.Settings = s.Settings
}

// Table stores entities of one kind as JSON documents.
type Table[T admin.Entity] struct {
	db   *sql.DB
	name string
	kind string
	now  func() time.Time
}

var _ admin.Repository[admin.StyleTheme] = (*Table[admin.StyleTheme])(nil)

func newTable[T admin.Entity](db *sql.DB, name, kind string, now func() time.Time) *Table[T] {
	return &Table[T]{db: db, name: name, kind: kind, now: now}
}

// List loads the table and applies the query.
func (t *Table[T]) List(ctx context.Context, query admin.ListQuery) (admin.ListPage[T], error) {
	all, err := t.All(ctx)
	if err != nil {
		return admin.ListPage[T]{}, err
	}
	return admin.ApplyListQuery(all, query)
}

// All returns every record.
func (t *Table[T]) All(ctx context.Context) ([]T, error) {
	rows, err := t.db.QueryContext(ctx, "SELECT body FROM "+t.name)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query %s: %w", t.name, err)
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("sqlite: scan %s: %w", t.name, err)
		}
		record, err := decode[T](body)
		if err != nil {
			return nil, fmt.Errorf("sqlite: decode %s: %w", t.kind, err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate %s: %w", t.name, err)
	}
	return out, nil
}

// Get loads one record.
func (t *Table[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var body string
	err := t.db.QueryRowContext(ctx, "SELECT body FROM "+t.name+" WHERE id = ?", id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, admin.NotFound(t.kind, id)
	}
	if err != nil {
		return zero, fmt.Errorf("sqlite: get %s %s: %w", t.kind, id, err)
	}
	record, err := decode[T](body)
	if err != nil {
		return zero, fmt.Errorf("sqlite: decode %s %s: %w", t.kind, id, err)
	}
	return record, nil
}

// Save upserts a record.
func (t *Table[T]) Save(ctx context.Context, record T) (T, error) {
	var zero T
	id := record.EntityID()
	if id == "" {
		return zero, fmt.Errorf("sqlite: %s id is required", t.kind)
	}
	body, err := json.Marshal(record)
	if err != nil {
		return zero, fmt.Errorf("sqlite: encode %s: %w", t.kind, err)
	}
	_, err = t.db.ExecContext(ctx,
		"INSERT INTO "+t.name+" (id, body, updated_at) VALUES (?, ?, ?) "+
			"ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at",
		id, string(body), t.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return zero, fmt.Errorf("sqlite: save %s %s: %w", t.kind, id, err)
	}
	return record, nil
}

// Delete removes a record.
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	res, err := t.db.ExecContext(ctx, "DELETE FROM "+t.name+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("sqlite: delete %s %s: %w", t.kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete %s %s: %w", t.kind, id, err)
	}
	if n == 0 {
		return admin.NotFound(t.kind, id)
	}
	return nil
}

func decode[T any](body string) (T, error) {
	var out T
	err := json.Unmarshal([]byte(body), &out)
	return out, err
}

// Settings persists the singleton style settings row.
type Settings struct {
	db  *sql.DB
	now func() time.Time
}

// LoadSettings returns the stored record, or the zero record when none has
// been written.
func (s *Settings) LoadSettings(ctx context.Context) (admin.StyleSettings, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM style_settings WHERE id = 1").Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return admin.StyleSettings{}, nil
	}
	if err != nil {
		return admin.StyleSettings{}, fmt.Errorf("sqlite: load settings: %w", err)
	}
	return decode[admin.StyleSettings](body)
}

// SaveSettings replaces the row. The last write wins.
func (s *Settings) SaveSettings(ctx context.Context, settings admin.StyleSettings) error {
	body, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("sqlite: encode settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO style_settings (id, body, updated_at) VALUES (1, ?, ?) "+
			"ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at",
		string(body), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save settings: %w", err)
	}
	return nil
}
