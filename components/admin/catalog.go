package admin

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ListProjects returns one page of projects.
func (s *Service) ListProjects(ctx context.Context, query ListQuery) (ListPage[Project], error) {
	store, err := s.projects()
	if err != nil {
		return ListPage[Project]{}, err
	}
	query, err = s.prepareList(query, ProjectSortFields)
	if err != nil {
		return ListPage[Project]{}, err
	}
	return store.List(ctx, query)
}

// GetProject loads a project by id.
func (s *Service) GetProject(ctx context.Context, id string) (Project, error) {
	store, err := s.projects()
	if err != nil {
		return Project{}, err
	}
	return store.Get(ctx, id)
}

// CreateProject stores a new project after validating its stats against the
// variable registry.
func (s *Service) CreateProject(ctx context.Context, project Project) (Project, error) {
	store, err := s.projects()
	if err != nil {
		return Project{}, err
	}
	project = normalizeProject(project)
	if err := s.validateProject(ctx, project, nil); err != nil {
		return Project{}, err
	}
	now := s.opts.Now()
	project.ID = s.opts.NewID()
	project.CreatedAt = now
	project.UpdatedAt = now
	saved, err := store.Save(ctx, project)
	if err != nil {
		return Project{}, fmt.Errorf("admin: save project: %w", err)
	}
	return saved, s.changed(ctx, "project", "create", saved.ID, saved, map[string]any{"event_name": saved.EventName})
}

// UpdateProject replaces the mutable fields of an existing project. Stats
// entries stored earlier and left unchanged are not validated again, so
// values kept under a deleted or renamed variable do not block edits.
func (s *Service) UpdateProject(ctx context.Context, project Project) (Project, error) {
	store, err := s.projects()
	if err != nil {
		return Project{}, err
	}
	existing, err := store.Get(ctx, project.ID)
	if err != nil {
		return Project{}, err
	}
	project = normalizeProject(project)
	if err := s.validateProject(ctx, project, existing.Stats); err != nil {
		return Project{}, err
	}
	project.CreatedAt = existing.CreatedAt
	project.UpdatedAt = s.opts.Now()
	saved, err := store.Save(ctx, project)
	if err != nil {
		return Project{}, fmt.Errorf("admin: save project: %w", err)
	}
	return saved, s.changed(ctx, "project", "update", saved.ID, saved, map[string]any{"event_name": saved.EventName})
}

// MergeProjectStats merges a partial stats payload into a project. Keys
// absent from the payload keep their stored values.
func (s *Service) MergeProjectStats(ctx context.Context, id string, stats map[string]any) (Project, error) {
	store, err := s.projects()
	if err != nil {
		return Project{}, err
	}
	project, err := store.Get(ctx, id)
	if err != nil {
		return Project{}, err
	}
	if err := s.validateStats(ctx, stats); err != nil {
		return Project{}, err
	}
	merged := maps.Clone(project.Stats)
	if merged == nil {
		merged = make(map[string]any, len(stats))
	}
	maps.Copy(merged, stats)
	project.Stats = merged
	project.UpdatedAt = s.opts.Now()
	saved, err := store.Save(ctx, project)
	if err != nil {
		return Project{}, fmt.Errorf("admin: save project stats: %w", err)
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	return saved, s.changed(ctx, "project", "stats", saved.ID, saved, map[string]any{"keys": keys})
}

// DeleteProject removes a project.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	store, err := s.projects()
	if err != nil {
		return err
	}
	if _, err := store.Get(ctx, id); err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("admin: delete project: %w", err)
	}
	return s.changed(ctx, "project", "delete", id, nil, nil)
}

func normalizeProject(p Project) Project {
	p.EventName = strings.TrimSpace(p.EventName)
	p.EventDate = strings.TrimSpace(p.EventDate)
	p.StyleID = strings.TrimSpace(p.StyleID)
	tags := make([]string, 0, len(p.Hashtags))
	for _, tag := range p.Hashtags {
		if tag = normalizeHashtag(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	p.Hashtags = tags
	return p
}

func (s *Service) validateProject(ctx context.Context, p Project, stored map[string]any) error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.EventName, validation.Required),
		validation.Field(&p.EventDate, validation.Required, validation.Date("2006-01-02")),
	)
	if err != nil {
		return validationError(err, "invalid project")
	}
	return s.validateStats(ctx, changedStats(p.Stats, stored))
}

// changedStats returns the entries of next that are absent from stored or
// hold a different value.
func changedStats(next, stored map[string]any) map[string]any {
	if len(stored) == 0 {
		return next
	}
	out := make(map[string]any, len(next))
	for key, value := range next {
		previous, ok := stored[key]
		if ok && sameStatValue(previous, value) {
			continue
		}
		out[key] = value
	}
	return out
}

// sameStatValue treats numbers of different Go types as equal when their
// values match, since stored stats come back from JSON as float64.
func sameStatValue(a, b any) bool {
	fa, aok := statNumber(a)
	fb, bok := statNumber(b)
	if aok && bok {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func (s *Service) validateStats(ctx context.Context, stats map[string]any) error {
	if len(stats) == 0 {
		return nil
	}
	vars, err := s.variables()
	if err != nil {
		return err
	}
	defs, err := vars.All(ctx)
	if err != nil {
		return fmt.Errorf("admin: load variables: %w", err)
	}
	return s.opts.StatsValidator.Validate(defs, stats)
}

// ListCategories returns one page of hashtag categories.
func (s *Service) ListCategories(ctx context.Context, query ListQuery) (ListPage[HashtagCategory], error) {
	store, err := s.categories()
	if err != nil {
		return ListPage[HashtagCategory]{}, err
	}
	query, err = s.prepareList(query, CategorySortFields)
	if err != nil {
		return ListPage[HashtagCategory]{}, err
	}
	return store.List(ctx, query)
}

// CreateCategory stores a new hashtag category. Names are unique regardless
// of case.
func (s *Service) CreateCategory(ctx context.Context, category HashtagCategory) (HashtagCategory, error) {
	store, err := s.categories()
	if err != nil {
		return HashtagCategory{}, err
	}
	category.Name = strings.TrimSpace(category.Name)
	category.Color = strings.TrimSpace(category.Color)
	if err := category.Validate(); err != nil {
		return HashtagCategory{}, err
	}
	if err := s.ensureUniqueCategory(ctx, store, category); err != nil {
		return HashtagCategory{}, err
	}
	now := s.opts.Now()
	category.ID = s.opts.NewID()
	category.CreatedAt = now
	category.UpdatedAt = now
	saved, err := store.Save(ctx, category)
	if err != nil {
		return HashtagCategory{}, fmt.Errorf("admin: save category: %w", err)
	}
	return saved, s.changed(ctx, "category", "create", saved.ID, saved, map[string]any{"name": saved.Name})
}

// UpdateCategory replaces the name, color, and order of a category.
func (s *Service) UpdateCategory(ctx context.Context, category HashtagCategory) (HashtagCategory, error) {
	store, err := s.categories()
	if err != nil {
		return HashtagCategory{}, err
	}
	existing, err := store.Get(ctx, category.ID)
	if err != nil {
		return HashtagCategory{}, err
	}
	category.Name = strings.TrimSpace(category.Name)
	category.Color = strings.TrimSpace(category.Color)
	if err := category.Validate(); err != nil {
		return HashtagCategory{}, err
	}
	if err := s.ensureUniqueCategory(ctx, store, category); err != nil {
		return HashtagCategory{}, err
	}
	category.CreatedAt = existing.CreatedAt
	category.UpdatedAt = s.opts.Now()
	saved, err := store.Save(ctx, category)
	if err != nil {
		return HashtagCategory{}, fmt.Errorf("admin: save category: %w", err)
	}
	return saved, s.changed(ctx, "category", "update", saved.ID, saved, map[string]any{"name": saved.Name})
}

// DeleteCategory removes a category. Projects keep their categorized
// hashtags.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	store, err := s.categories()
	if err != nil {
		return err
	}
	if _, err := store.Get(ctx, id); err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("admin: delete category: %w", err)
	}
	return s.changed(ctx, "category", "delete", id, nil, nil)
}

func (s *Service) ensureUniqueCategory(ctx context.Context, store Repository[HashtagCategory], category HashtagCategory) error {
	all, err := store.All(ctx)
	if err != nil {
		return fmt.Errorf("admin: load categories: %w", err)
	}
	for _, existing := range all {
		if existing.ID != category.ID && strings.EqualFold(existing.Name, category.Name) {
			return Conflict(fmt.Sprintf("category %q already exists", category.Name))
		}
	}
	return nil
}

// Validate checks the category shape.
func (c HashtagCategory) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.Length(1, 64)),
		validation.Field(&c.Color, validation.Required, validation.Match(hexColorPattern).Error("must be a hex color")),
		validation.Field(&c.Order, validation.Min(0)),
	)
	return validationError(err, "invalid category")
}

// ListUsers returns one page of admin users.
func (s *Service) ListUsers(ctx context.Context, query ListQuery) (ListPage[AdminUser], error) {
	store, err := s.users()
	if err != nil {
		return ListPage[AdminUser]{}, err
	}
	query, err = s.prepareList(query, UserSortFields)
	if err != nil {
		return ListPage[AdminUser]{}, err
	}
	return store.List(ctx, query)
}

// CreateUser registers an admin user. Emails are unique regardless of case.
func (s *Service) CreateUser(ctx context.Context, user AdminUser) (AdminUser, error) {
	store, err := s.users()
	if err != nil {
		return AdminUser{}, err
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Name = strings.TrimSpace(user.Name)
	if user.Role == "" {
		user.Role = RoleAdmin
	}
	if err := user.Validate(); err != nil {
		return AdminUser{}, err
	}
	all, err := store.All(ctx)
	if err != nil {
		return AdminUser{}, fmt.Errorf("admin: load users: %w", err)
	}
	for _, existing := range all {
		if strings.EqualFold(existing.Email, user.Email) {
			return AdminUser{}, Conflict(fmt.Sprintf("user %q already exists", user.Email))
		}
	}
	now := s.opts.Now()
	user.ID = s.opts.NewID()
	user.CreatedAt = now
	user.UpdatedAt = now
	saved, err := store.Save(ctx, user)
	if err != nil {
		return AdminUser{}, fmt.Errorf("admin: save user: %w", err)
	}
	return saved, s.changed(ctx, "user", "create", saved.ID, saved, map[string]any{"role": saved.Role})
}

// UpdateUser changes the name and role of a user. Emails are immutable.
func (s *Service) UpdateUser(ctx context.Context, user AdminUser) (AdminUser, error) {
	store, err := s.users()
	if err != nil {
		return AdminUser{}, err
	}
	existing, err := store.Get(ctx, user.ID)
	if err != nil {
		return AdminUser{}, err
	}
	existing.Name = strings.TrimSpace(user.Name)
	if user.Role != "" {
		existing.Role = user.Role
	}
	if err := existing.Validate(); err != nil {
		return AdminUser{}, err
	}
	existing.UpdatedAt = s.opts.Now()
	saved, err := store.Save(ctx, existing)
	if err != nil {
		return AdminUser{}, fmt.Errorf("admin: save user: %w", err)
	}
	return saved, s.changed(ctx, "user", "update", saved.ID, saved, map[string]any{"role": saved.Role})
}

// DeleteUser removes an admin user.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	store, err := s.users()
	if err != nil {
		return err
	}
	if _, err := store.Get(ctx, id); err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("admin: delete user: %w", err)
	}
	return s.changed(ctx, "user", "delete", id, nil, nil)
}

// Validate checks the user shape.
func (u AdminUser) Validate() error {
	err := validation.ValidateStruct(&u,
		validation.Field(&u.Email, validation.Required, is.EmailFormat),
		validation.Field(&u.Name, validation.Required),
		validation.Field(&u.Role, validation.Required, validation.In(RoleAdmin, RoleSuperAdmin)),
	)
	return validationError(err, "invalid user")
}
