package admin

import (
	"context"
	"fmt"
	"strings"
)

// FieldUpdate sets one dot path inside a style theme.
type FieldUpdate struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// ListStyles returns one page of style themes.
func (s *Service) ListStyles(ctx context.Context, query ListQuery) (ListPage[StyleTheme], error) {
	store, err := s.styles()
	if err != nil {
		return ListPage[StyleTheme]{}, err
	}
	query, err = s.prepareList(query, StyleSortFields)
	if err != nil {
		return ListPage[StyleTheme]{}, err
	}
	page, err := store.List(ctx, query)
	if err != nil {
		return ListPage[StyleTheme]{}, err
	}
	for i := range page.Items {
		page.Items[i] = DeriveChartColors(page.Items[i])
	}
	return page, nil
}

// GetStyle loads a theme. Themes stored without chart colors are returned
// with the palette backfilled.
func (s *Service) GetStyle(ctx context.Context, id string) (StyleTheme, error) {
	if id == BuiltinStyleID {
		return BuiltinStyle(), nil
	}
	store, err := s.styles()
	if err != nil {
		return StyleTheme{}, err
	}
	theme, err := store.Get(ctx, id)
	if err != nil {
		return StyleTheme{}, err
	}
	return DeriveChartColors(theme), nil
}

// CreateStyle stores a new theme.
func (s *Service) CreateStyle(ctx context.Context, theme StyleTheme) (StyleTheme, error) {
	store, err := s.styles()
	if err != nil {
		return StyleTheme{}, err
	}
	theme.Name = strings.TrimSpace(theme.Name)
	if err := theme.Validate(); err != nil {
		return StyleTheme{}, err
	}
	theme = DeriveChartColors(theme)
	now := s.opts.Now()
	theme.ID = s.opts.NewID()
	theme.CreatedAt = now
	theme.UpdatedAt = now
	saved, err := store.Save(ctx, theme)
	if err != nil {
		return StyleTheme{}, fmt.Errorf("admin: save style: %w", err)
	}
	return saved, s.changed(ctx, "style", "create", saved.ID, saved, map[string]any{"name": saved.Name})
}

// UpdateStyle replaces a theme wholesale, keeping its identity and creation
// time.
func (s *Service) UpdateStyle(ctx context.Context, theme StyleTheme) (StyleTheme, error) {
	store, err := s.styles()
	if err != nil {
		return StyleTheme{}, err
	}
	if theme.ID == BuiltinStyleID {
		return StyleTheme{}, Conflict("the built-in style cannot be modified")
	}
	existing, err := store.Get(ctx, theme.ID)
	if err != nil {
		return StyleTheme{}, err
	}
	theme.Name = strings.TrimSpace(theme.Name)
	if err := theme.Validate(); err != nil {
		return StyleTheme{}, err
	}
	theme = DeriveChartColors(theme)
	theme.CreatedAt = existing.CreatedAt
	theme.UpdatedAt = s.opts.Now()
	saved, err := store.Save(ctx, theme)
	if err != nil {
		return StyleTheme{}, fmt.Errorf("admin: save style: %w", err)
	}
	return saved, s.changed(ctx, "style", "update", saved.ID, saved, map[string]any{"name": saved.Name})
}

// EditStyle applies dot path updates in order and saves the result. Either
// all updates apply or none do.
func (s *Service) EditStyle(ctx context.Context, id string, updates []FieldUpdate) (StyleTheme, error) {
	theme, err := s.GetStyle(ctx, id)
	if err != nil {
		return StyleTheme{}, err
	}
	for _, update := range updates {
		theme, err = UpdateField(theme, update.Path, update.Value)
		if err != nil {
			return StyleTheme{}, err
		}
	}
	theme.ID = id
	return s.UpdateStyle(ctx, theme)
}

// ToggleStyleBackground flips a stored theme's background between solid and
// gradient.
func (s *Service) ToggleStyleBackground(ctx context.Context, id, key string) (StyleTheme, error) {
	theme, err := s.GetStyle(ctx, id)
	if err != nil {
		return StyleTheme{}, err
	}
	theme, err = ToggleBackgroundType(theme, key)
	if err != nil {
		return StyleTheme{}, err
	}
	return s.UpdateStyle(ctx, theme)
}

// DeleteStyle removes a theme and clears every settings pointer to it.
func (s *Service) DeleteStyle(ctx context.Context, id string) error {
	if id == BuiltinStyleID {
		return Conflict("the built-in style cannot be deleted")
	}
	store, err := s.styles()
	if err != nil {
		return err
	}
	if _, err := store.Get(ctx, id); err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("admin: delete style: %w", err)
	}
	if s.opts.Settings != nil {
		_, err := s.mutateSettings(ctx, func(settings *StyleSettings) bool {
			dirty := false
			if settings.GlobalStyleID == id {
				settings.GlobalStyleID = ""
				dirty = true
			}
			if settings.AdminStyleID == id {
				settings.AdminStyleID = ""
				dirty = true
			}
			for tag, styleID := range settings.HashtagStyles {
				if styleID == id {
					delete(settings.HashtagStyles, tag)
					dirty = true
				}
			}
			return dirty
		})
		if err != nil {
			return err
		}
	}
	return s.changed(ctx, "style", "delete", id, nil, nil)
}

// StyleSettings returns the current singleton pointers.
func (s *Service) StyleSettings(ctx context.Context) (StyleSettings, error) {
	store, err := s.settings()
	if err != nil {
		return StyleSettings{}, err
	}
	return store.LoadSettings(ctx)
}

// SetGlobalStyle points the public pages at styleID. An empty id clears the
// pointer.
func (s *Service) SetGlobalStyle(ctx context.Context, styleID string) (StyleSettings, error) {
	return s.setPointer(ctx, "global", styleID, func(settings *StyleSettings, id string) {
		settings.GlobalStyleID = id
	})
}

// SetAdminStyle points the admin shell at styleID. An empty id clears the
// pointer.
func (s *Service) SetAdminStyle(ctx context.Context, styleID string) (StyleSettings, error) {
	return s.setPointer(ctx, "admin", styleID, func(settings *StyleSettings, id string) {
		settings.AdminStyleID = id
	})
}

// BindHashtagStyle applies styleID to projects carrying hashtag. An empty id
// removes the binding.
func (s *Service) BindHashtagStyle(ctx context.Context, hashtag, styleID string) (StyleSettings, error) {
	tag := normalizeHashtag(hashtag)
	if tag == "" {
		return StyleSettings{}, Invalid("hashtag", "hashtag is required")
	}
	return s.setPointer(ctx, "hashtag", styleID, func(settings *StyleSettings, id string) {
		if id == "" {
			delete(settings.HashtagStyles, tag)
			return
		}
		if settings.HashtagStyles == nil {
			settings.HashtagStyles = map[string]string{}
		}
		settings.HashtagStyles[tag] = id
	})
}

func (s *Service) setPointer(ctx context.Context, pointer, styleID string, apply func(*StyleSettings, string)) (StyleSettings, error) {
	styleID = strings.TrimSpace(styleID)
	if styleID != "" && styleID != BuiltinStyleID {
		if _, err := s.GetStyle(ctx, styleID); err != nil {
			return StyleSettings{}, err
		}
	}
	settings, err := s.mutateSettings(ctx, func(settings *StyleSettings) bool {
		apply(settings, styleID)
		return true
	})
	if err != nil {
		return StyleSettings{}, err
	}
	return settings, s.changed(ctx, "settings", pointer, pointer, settings, map[string]any{"style_id": styleID})
}

func (s *Service) mutateSettings(ctx context.Context, mutate func(*StyleSettings) bool) (StyleSettings, error) {
	store, err := s.settings()
	if err != nil {
		return StyleSettings{}, err
	}
	s.settingsMu.Lock()
	defer s.settingsMu.Unlock()
	current, err := store.LoadSettings(ctx)
	if err != nil {
		return StyleSettings{}, fmt.Errorf("admin: load settings: %w", err)
	}
	next := current.Clone()
	if !mutate(&next) {
		return current, nil
	}
	next.UpdatedAt = s.opts.Now()
	if err := store.SaveSettings(ctx, next); err != nil {
		return StyleSettings{}, fmt.Errorf("admin: save settings: %w", err)
	}
	return next, nil
}

// ResolveStyle picks the theme for a project page (projectID may be empty)
// in the given scope. Dangling pointers are skipped and the built-in theme
// is the final fallback.
func (s *Service) ResolveStyle(ctx context.Context, projectID string, scope StyleScope) (StyleResolution, error) {
	var settings StyleSettings
	if s.opts.Settings != nil {
		loaded, err := s.opts.Settings.LoadSettings(ctx)
		if err != nil {
			return StyleResolution{}, fmt.Errorf("admin: load settings: %w", err)
		}
		settings = loaded
	}
	var project *Project
	if projectID != "" {
		loaded, err := s.GetProject(ctx, projectID)
		if err != nil {
			return StyleResolution{}, err
		}
		project = &loaded
	}
	for _, candidate := range StyleCandidates(settings, project, scope) {
		theme, err := s.GetStyle(ctx, candidate.StyleID)
		if err != nil {
			if IsNotFound(err) {
				s.recordTelemetry(ctx, "admin.style.dangling", map[string]any{
					"style_id": candidate.StyleID,
					"source":   candidate.Source,
				})
				continue
			}
			return StyleResolution{}, err
		}
		return StyleResolution{Theme: theme, Source: candidate.Source, Hashtag: candidate.Hashtag}, nil
	}
	return StyleResolution{Theme: BuiltinStyle(), Source: SourceBuiltin}, nil
}
