// Package messmass is the public entry point for embedding the admin core.
package messmass

import (
	core "github.com/goliatone/go-messmass/components/admin"
	"github.com/goliatone/go-messmass/pkg/store/memory"
)

// Service exposes the underlying components/admin.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// NewMemoryService builds a Service whose unset stores are in-memory
// collections. Stores already present in opts are kept.
func NewMemoryService(opts Options) *Service {
	var mem Options
	memory.New().Bind(&mem)
	if opts.Projects == nil {
		opts.Projects = mem.Projects
	}
	if opts.Categories == nil {
		opts.Categories = mem.Categories
	}
	if opts.Users == nil {
		opts.Users = mem.Users
	}
	if opts.Variables == nil {
		opts.Variables = mem.Variables
	}
	if opts.Styles == nil {
		opts.Styles = mem.Styles
	}
	if opts.Charts == nil {
		opts.Charts = mem.Charts
	}
	if opts.Settings == nil {
		opts.Settings = mem.Settings
	}
	return core.NewService(opts)
}
