// Package memory keeps admin records in process memory. It backs tests, the
// demo server, and deployments that do not need durability.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	admin "github.com/goliatone/go-messmass/components/admin"
)

// Collection is an RWMutex guarded repository of T. Records are deep copied
// on the way in and out so callers never share maps or slices with the
// store.
type Collection[T admin.Entity] struct {
	kind    string
	mu      sync.RWMutex
	records map[string]T
}

var _ admin.Repository[admin.Project] = (*Collection[admin.Project])(nil)

// NewCollection builds an empty collection. kind names the records in not
// found errors.
func NewCollection[T admin.Entity](kind string, seed ...T) *Collection[T] {
	c := &Collection[T]{kind: kind, records: make(map[string]T, len(seed))}
	for _, record := range seed {
		c.records[record.EntityID()] = clone(record)
	}
	return c
}

// List filters, orders, and pages the collection.
func (c *Collection[T]) List(ctx context.Context, query admin.ListQuery) (admin.ListPage[T], error) {
	all, err := c.All(ctx)
	if err != nil {
		return admin.ListPage[T]{}, err
	}
	return admin.ApplyListQuery(all, query)
}

// All returns every record in no particular order.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.records))
	for _, record := range c.records {
		out = append(out, clone(record))
	}
	return out, nil
}

// Get loads one record.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.records[id]
	if !ok {
		return zero, admin.NotFound(c.kind, id)
	}
	return clone(record), nil
}

// Save inserts or replaces a record by id.
func (c *Collection[T]) Save(ctx context.Context, record T) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	id := record.EntityID()
	if id == "" {
		return zero, fmt.Errorf("memory: %s id is required", c.kind)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[id] = clone(record)
	return clone(record), nil
}

// Delete removes a record.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.records[id]; !ok {
		return admin.NotFound(c.kind, id)
	}
	delete(c.records, id)
	return nil
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

func clone[T any](v T) T {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// Settings holds the singleton style settings record.
type Settings struct {
	mu       sync.RWMutex
	settings admin.StyleSettings
}

// LoadSettings returns a copy of the current record.
func (s *Settings) LoadSettings(context.Context) (admin.StyleSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Clone(), nil
}

// SaveSettings replaces the record. The last write wins.
func (s *Settings) SaveSettings(_ context.Context, settings admin.StyleSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings.Clone()
	return nil
}

// Store bundles a collection per admin entity.
type Store struct {
	Projects   *Collection[admin.Project]
	Categories *Collection[admin.HashtagCategory]
	Users      *Collection[admin.AdminUser]
	Variables  *Collection[admin.VariableDefinition]
	Styles     *Collection[admin.StyleTheme]
	Charts     *Collection[admin.ChartAlgorithm]
	Settings   *Settings
}

// New builds an empty store.
func New() *Store {
	return &Store{
		Projects:   NewCollection[admin.Project]("project"),
		Categories: NewCollection[admin.HashtagCategory]("category"),
		Users:      NewCollection[admin.AdminUser]("user"),
		Variables:  NewCollection[admin.VariableDefinition]("variable"),
		Styles:     NewCollection[admin.StyleTheme]("style"),
		Charts:     NewCollection[admin.ChartAlgorithm]("chart"),
		Settings:   &Settings{},
	}
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
