package adminshell

import (
	"context"
	"errors"
	"fmt"

	admin "github.com/goliatone/go-messmass/components/admin"
)

// MenuBuilder ensures admin entries exist within a host navigation.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem captures admin page link metadata.
type MenuItem struct {
	Label    string
	Route    string
	Icon     string
	Position int
}

// DefaultMenu lists every admin page in display order.
func DefaultMenu() []MenuItem {
	return []MenuItem{
		{Label: "Events", Route: "admin.projects", Icon: "calendar", Position: 10},
		{Label: "Categories", Route: "admin.categories", Icon: "tag", Position: 20},
		{Label: "Variables", Route: "admin.variables", Icon: "sliders", Position: 30},
		{Label: "Styles", Route: "admin.styles", Icon: "palette", Position: 40},
		{Label: "Charts", Route: "admin.charts", Icon: "pie-chart", Position: 50},
		{Label: "Users", Route: "admin.users", Icon: "users", Position: 60},
	}
}

// Config wires the admin service and navigation seeding into a host shell.
type Config struct {
	Enabled     bool
	MenuCode    string
	MenuBuilder MenuBuilder
	Service     *admin.Service
	// Items overrides DefaultMenu.
	Items []MenuItem
}

// Shell exposes helpers for host admin applications.
type Shell struct {
	cfg Config
}

// New creates a Shell that can seed admin menus.
func New(cfg Config) (*Shell, error) {
	if cfg.Enabled && cfg.Service == nil {
		return nil, errors.New("adminshell: admin service is required when enabled")
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	if len(cfg.Items) == 0 {
		cfg.Items = DefaultMenu()
	}
	return &Shell{cfg: cfg}, nil
}

// Service exposes the configured admin service when enabled.
func (s *Shell) Service() *admin.Service {
	if !s.cfg.Enabled {
		return nil
	}
	return s.cfg.Service
}

// Menu returns the entries Bootstrap seeds.
func (s *Shell) Menu() []MenuItem {
	out := make([]MenuItem, len(s.cfg.Items))
	copy(out, s.cfg.Items)
	return out
}

// Bootstrap seeds one menu entry per admin page when enabled.
func (s *Shell) Bootstrap(ctx context.Context) error {
	if !s.cfg.Enabled || s.cfg.MenuBuilder == nil {
		return nil
	}
	for _, item := range s.cfg.Items {
		if err := s.cfg.MenuBuilder.EnsureMenuItem(ctx, s.cfg.MenuCode, item); err != nil {
			return fmt.Errorf("adminshell: seed %s: %w", item.Route, err)
		}
	}
	return nil
}

// Theme resolves the style applied to the admin shell itself.
func (s *Shell) Theme(ctx context.Context) (admin.StyleTheme, error) {
	if !s.cfg.Enabled {
		return admin.BuiltinStyle(), nil
	}
	resolution, err := s.cfg.Service.ResolveStyle(ctx, "", admin.ScopeAdmin)
	if err != nil {
		return admin.StyleTheme{}, err
	}
	return resolution.Theme, nil
}
