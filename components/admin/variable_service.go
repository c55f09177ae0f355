package admin

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// ListVariables returns one page of variable definitions.
func (s *Service) ListVariables(ctx context.Context, query ListQuery) (ListPage[VariableDefinition], error) {
	store, err := s.variables()
	if err != nil {
		return ListPage[VariableDefinition]{}, err
	}
	query, err = s.prepareList(query, VariableSortFields)
	if err != nil {
		return ListPage[VariableDefinition]{}, err
	}
	return store.List(ctx, query)
}

// Registry returns every variable ordered by category, clicker order, and
// name.
func (s *Service) Registry(ctx context.Context) ([]VariableDefinition, error) {
	store, err := s.variables()
	if err != nil {
		return nil, err
	}
	defs, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin: load variables: %w", err)
	}
	SortVariables(defs)
	return defs, nil
}

// SortVariables orders definitions by category, clicker order (unranked
// last), then name.
func SortVariables(defs []VariableDefinition) {
	slices.SortStableFunc(defs, func(a, b VariableDefinition) int {
		if c := cmp.Compare(a.Category, b.Category); c != 0 {
			return c
		}
		if c := compareRank(a.ClickerOrder, b.ClickerOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

func compareRank(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*a, *b)
}

// GetVariable loads a definition by name.
func (s *Service) GetVariable(ctx context.Context, name string) (VariableDefinition, error) {
	store, err := s.variables()
	if err != nil {
		return VariableDefinition{}, err
	}
	return store.Get(ctx, name)
}

// CreateVariable registers a custom variable. Reorderable variables are
// ranked after the existing members of their category.
func (s *Service) CreateVariable(ctx context.Context, def VariableDefinition) (VariableDefinition, error) {
	store, err := s.variables()
	if err != nil {
		return VariableDefinition{}, err
	}
	def = def.Normalized()
	def.IsCustom = true
	if err := def.Validate(); err != nil {
		return VariableDefinition{}, err
	}
	registry, err := s.registryMap(ctx)
	if err != nil {
		return VariableDefinition{}, err
	}
	if _, exists := registry[def.Name]; exists {
		return VariableDefinition{}, Conflict(fmt.Sprintf("variable %q already exists", def.Name))
	}
	if def.Derived {
		if err := ValidateFormula(def.Formula, def.Name, registry); err != nil {
			return VariableDefinition{}, err
		}
	}
	if def.Reorderable() && def.ClickerOrder == nil {
		next := nextRank(registry, def.Category)
		def.ClickerOrder = &next
	}
	now := s.opts.Now()
	def.CreatedAt = now
	def.UpdatedAt = now
	saved, err := store.Save(ctx, def)
	if err != nil {
		return VariableDefinition{}, fmt.Errorf("admin: save variable: %w", err)
	}
	return saved, s.changed(ctx, "variable", "create", saved.Name, saved, map[string]any{"category": saved.Category})
}

func nextRank(registry map[string]VariableDefinition, category string) int {
	next := 0
	for _, def := range registry {
		if def.Category == category && def.ClickerOrder != nil && *def.ClickerOrder >= next {
			next = *def.ClickerOrder + 1
		}
	}
	return next
}

// UpdateVariable merges a partial update into a definition. Flags are
// ignored for derived and text variables. A variable that joins the clicker
// or moves category without an explicit rank is ranked last in its category.
func (s *Service) UpdateVariable(ctx context.Context, patch VariablePatch) (VariableDefinition, error) {
	store, err := s.variables()
	if err != nil {
		return VariableDefinition{}, err
	}
	def, err := store.Get(ctx, strings.TrimSpace(patch.Name))
	if err != nil {
		return VariableDefinition{}, err
	}
	previous := def
	if patch.Label != nil {
		def.Label = *patch.Label
	}
	if patch.Category != nil {
		def.Category = *patch.Category
	}
	if patch.Description != nil {
		def.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Flags != nil && !def.FlagsLocked() {
		def.Flags = *patch.Flags
	}
	if patch.ClickerOrder != nil {
		rank := *patch.ClickerOrder
		def.ClickerOrder = &rank
	}
	if patch.Formula != nil {
		if !def.Derived {
			return VariableDefinition{}, Invalid("formula", "only derived variables carry a formula")
		}
		def.Formula = *patch.Formula
	}
	def = def.Normalized()
	if err := def.Validate(); err != nil {
		return VariableDefinition{}, err
	}
	if patch.ClickerOrder == nil {
		moved := def.Category != previous.Category
		joined := def.Flags.VisibleInClicker && !previous.Flags.VisibleInClicker && def.ClickerOrder == nil
		if moved || joined {
			def.ClickerOrder = nil
			if def.Reorderable() {
				registry, err := s.registryMap(ctx)
				if err != nil {
					return VariableDefinition{}, err
				}
				next := nextRank(registry, def.Category)
				def.ClickerOrder = &next
			}
		}
	}
	if def.Derived && patch.Formula != nil {
		registry, err := s.registryMap(ctx)
		if err != nil {
			return VariableDefinition{}, err
		}
		if err := ValidateFormula(def.Formula, def.Name, registry); err != nil {
			return VariableDefinition{}, err
		}
	}
	def.UpdatedAt = s.opts.Now()
	saved, err := store.Save(ctx, def)
	if err != nil {
		return VariableDefinition{}, fmt.Errorf("admin: save variable: %w", err)
	}
	return saved, s.changed(ctx, "variable", "update", saved.Name, saved, nil)
}

// SetVariableFlag sets one visibility flag. Derived and text variables keep
// their flags unchanged and the call is a no-op.
func (s *Service) SetVariableFlag(ctx context.Context, name, flag string, value bool) (VariableDefinition, error) {
	store, err := s.variables()
	if err != nil {
		return VariableDefinition{}, err
	}
	if flag != FlagVisibleInClicker && flag != FlagEditableInManual {
		return VariableDefinition{}, Invalid("flag", fmt.Sprintf("unknown flag %q", flag))
	}
	def, err := store.Get(ctx, name)
	if err != nil {
		return VariableDefinition{}, err
	}
	if def.FlagsLocked() {
		s.recordTelemetry(ctx, "admin.variable.flag_ignored", map[string]any{"name": name, "flag": flag})
		return def, nil
	}
	current := def.Flags.VisibleInClicker
	if flag == FlagEditableInManual {
		current = def.Flags.EditableInManual
	}
	if current == value {
		return def, nil
	}
	if flag == FlagVisibleInClicker {
		def.Flags.VisibleInClicker = value
		if value && def.ClickerOrder == nil {
			registry, err := s.registryMap(ctx)
			if err != nil {
				return VariableDefinition{}, err
			}
			next := nextRank(registry, def.Category)
			def.ClickerOrder = &next
		}
	} else {
		def.Flags.EditableInManual = value
	}
	def.UpdatedAt = s.opts.Now()
	saved, err := store.Save(ctx, def)
	if err != nil {
		return VariableDefinition{}, fmt.Errorf("admin: save variable flag: %w", err)
	}
	return saved, s.changed(ctx, "variable", "flag", saved.Name, saved, map[string]any{"flag": flag, "value": value})
}

// RenameVariableLabel changes the display label. Allowed for every variable.
func (s *Service) RenameVariableLabel(ctx context.Context, name, label string) (VariableDefinition, error) {
	if strings.TrimSpace(label) == "" {
		return VariableDefinition{}, Invalid("label", "label is required")
	}
	return s.UpdateVariable(ctx, VariablePatch{Name: name, Label: &label})
}

// RenameVariable changes the identifier of a custom variable and rewrites
// formula references to it. System variables are rejected because stored
// stats are keyed by name.
func (s *Service) RenameVariable(ctx context.Context, name, newName string) (VariableDefinition, error) {
	store, err := s.variables()
	if err != nil {
		return VariableDefinition{}, err
	}
	newName = strings.TrimSpace(newName)
	def, err := store.Get(ctx, name)
	if err != nil {
		return VariableDefinition{}, err
	}
	if !def.IsCustom {
		return VariableDefinition{}, Conflict(fmt.Sprintf("system variable %q cannot be renamed", name))
	}
	if newName == name {
		return def, nil
	}
	renamed := def
	renamed.Name = newName
	if err := renamed.Validate(); err != nil {
		return VariableDefinition{}, err
	}
	registry, err := s.registryMap(ctx)
	if err != nil {
		return VariableDefinition{}, err
	}
	if _, exists := registry[newName]; exists {
		return VariableDefinition{}, Conflict(fmt.Sprintf("variable %q already exists", newName))
	}

	renamed.UpdatedAt = s.opts.Now()
	saved, err := store.Save(ctx, renamed)
	if err != nil {
		return VariableDefinition{}, fmt.Errorf("admin: save renamed variable: %w", err)
	}
	if err := store.Delete(ctx, name); err != nil {
		return VariableDefinition{}, fmt.Errorf("admin: remove old variable name: %w", err)
	}
	oldRef, newRef := "["+name+"]", "["+newName+"]"
	for _, other := range registry {
		if !other.Derived || !strings.Contains(other.Formula, oldRef) {
			continue
		}
		other.Formula = strings.ReplaceAll(other.Formula, oldRef, newRef)
		other.UpdatedAt = renamed.UpdatedAt
		if _, err := store.Save(ctx, other); err != nil {
			return VariableDefinition{}, fmt.Errorf("admin: rewrite formula of %s: %w", other.Name, err)
		}
	}
	return saved, s.changed(ctx, "variable", "rename", saved.Name, saved, map[string]any{"previous_name": name})
}

// DeleteVariable removes a custom variable definition. Stored stats under
// the name are left in place.
func (s *Service) DeleteVariable(ctx context.Context, name string) error {
	store, err := s.variables()
	if err != nil {
		return err
	}
	def, err := store.Get(ctx, name)
	if err != nil {
		return err
	}
	if !def.IsCustom {
		return Conflict(fmt.Sprintf("system variable %q cannot be deleted", name))
	}
	registry, err := s.registryMap(ctx)
	if err != nil {
		return err
	}
	for _, other := range registry {
		if other.Derived && slices.Contains(FormulaReferences(other.Formula), name) {
			return Conflict(fmt.Sprintf("variable %q is referenced by %s", name, other.Name))
		}
	}
	if err := store.Delete(ctx, name); err != nil {
		return fmt.Errorf("admin: delete variable: %w", err)
	}
	return s.changed(ctx, "variable", "delete", name, nil, map[string]any{"category": def.Category})
}

// ReorderList returns the variables of category that take part in clicker
// ordering, in their current order.
func (s *Service) ReorderList(ctx context.Context, category string) ([]VariableDefinition, error) {
	defs, err := s.Registry(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]VariableDefinition, 0, len(defs))
	for _, def := range defs {
		if def.Category == category && def.Reorderable() {
			out = append(out, def)
		}
	}
	return out, nil
}

// ReorderVariables assigns clickerOrder = index to each name. Only ranks that
// change are written, one update per variable. Failed writes do not roll back
// the others; they are reported together.
func (s *Service) ReorderVariables(ctx context.Context, category string, names []string) error {
	store, err := s.variables()
	if err != nil {
		return err
	}
	s.reorderMu.Lock()
	defer s.reorderMu.Unlock()

	registry, err := s.registryMap(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		def, ok := registry[name]
		if !ok {
			return NotFound("variable", name)
		}
		if _, dup := seen[name]; dup {
			return Invalid("names", fmt.Sprintf("variable %q listed twice", name))
		}
		seen[name] = struct{}{}
		if def.Category != category {
			return Invalid("names", fmt.Sprintf("variable %q is not in category %q", name, category))
		}
		if !def.Reorderable() {
			return Invalid("names", fmt.Sprintf("variable %q is not shown in the clicker", name))
		}
	}

	var (
		failures []error
		updated  []string
	)
	now := s.opts.Now()
	for index, name := range names {
		def := registry[name]
		if def.ClickerOrder != nil && *def.ClickerOrder == index {
			continue
		}
		rank := index
		def.ClickerOrder = &rank
		def.UpdatedAt = now
		if _, err := store.Save(ctx, def); err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", name, err))
			continue
		}
		updated = append(updated, name)
	}
	if len(failures) > 0 {
		s.recordTelemetry(ctx, "admin.variable.reorder_partial", map[string]any{
			"category": category,
			"updated":  updated,
			"failed":   len(failures),
		})
		partial := goerrors.New(fmt.Sprintf("reorder of %q partially failed", category), goerrors.CategoryOperation).
			WithTextCode("PARTIAL_REORDER").
			WithMetadata(map[string]any{"updated": updated, "failed": len(failures)})
		partial.Source = errors.Join(failures...)
		return partial
	}
	if len(updated) == 0 {
		return nil
	}
	return s.changed(ctx, "variable", "reorder", category, names, map[string]any{"category": category, "updated": updated})
}

// SeedVariables inserts system variables that are not registered yet and
// returns how many were added. Existing definitions are left untouched.
func (s *Service) SeedVariables(ctx context.Context, defs []VariableDefinition) (int, error) {
	store, err := s.variables()
	if err != nil {
		return 0, err
	}
	registry, err := s.registryMap(ctx)
	if err != nil {
		return 0, err
	}
	created := 0
	now := s.opts.Now()
	for _, def := range defs {
		def = def.Normalized()
		def.IsCustom = false
		if _, exists := registry[def.Name]; exists {
			continue
		}
		if err := def.Validate(); err != nil {
			return created, fmt.Errorf("admin: seed variable %s: %w", def.Name, err)
		}
		def.CreatedAt = now
		def.UpdatedAt = now
		if _, err := store.Save(ctx, def); err != nil {
			return created, fmt.Errorf("admin: seed variable %s: %w", def.Name, err)
		}
		registry[def.Name] = def
		created++
	}
	if created > 0 {
		s.recordTelemetry(ctx, "admin.variable.seed", map[string]any{"created": created})
	}
	return created, nil
}

func (s *Service) registryMap(ctx context.Context) (map[string]VariableDefinition, error) {
	store, err := s.variables()
	if err != nil {
		return nil, err
	}
	defs, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin: load variables: %w", err)
	}
	out := make(map[string]VariableDefinition, len(defs))
	for _, def := range defs {
		out[def.Name] = def
	}
	return out, nil
}
