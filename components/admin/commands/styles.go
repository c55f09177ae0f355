package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	admin "github.com/goliatone/go-messmass/components/admin"
)

// SaveStyleInput creates a theme when Style.ID is empty and replaces it
// otherwise.
type SaveStyleInput struct {
	Style admin.StyleTheme
	Actor
	Result *Result[admin.StyleTheme] `json:"-"`
}

type styleService interface {
	CreateStyle(ctx context.Context, theme admin.StyleTheme) (admin.StyleTheme, error)
	UpdateStyle(ctx context.Context, theme admin.StyleTheme) (admin.StyleTheme, error)
}

// SaveStyleCommand wraps the style create and update operations.
type SaveStyleCommand struct {
	service   styleService
	telemetry Telemetry
}

// NewSaveStyleCommand builds the command.
func NewSaveStyleCommand(service styleService, telemetry Telemetry) *SaveStyleCommand {
	return &SaveStyleCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveStyleInput] = (*SaveStyleCommand)(nil)

// Execute stores the theme.
func (c *SaveStyleCommand) Execute(ctx context.Context, msg SaveStyleInput) error {
	if c.service == nil {
		return errors.New("save style command requires service")
	}
	ctx = msg.Actor.apply(ctx)
	save, verb := c.service.CreateStyle, "create"
	if msg.Style.ID != "" {
		save, verb = c.service.UpdateStyle, "update"
	}
	saved, err := save(ctx, msg.Style)
	if err != nil {
		return err
	}
	msg.Result.Store(saved)
	c.telemetry.Record(ctx, "admin.command.style."+verb, map[string]any{"id": saved.ID})
	return nil
}

// EditStyleInput applies dot path updates to a stored theme.
type EditStyleInput struct {
	StyleID string              `json:"style_id"`
	Updates []admin.FieldUpdate `json:"updates"`
	Actor
	Result *Result[admin.StyleTheme] `json:"-"`
}

type editStyleService interface {
	EditStyle(ctx context.Context, id string, updates []admin.FieldUpdate) (admin.StyleTheme, error)
}

// EditStyleCommand wraps Service.EditStyle.
type EditStyleCommand struct {
	service   editStyleService
	telemetry Telemetry
}

// NewEditStyleCommand builds the command.
func NewEditStyleCommand(service editStyleService, telemetry Telemetry) *EditStyleCommand {
	return &EditStyleCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[EditStyleInput] = (*EditStyleCommand)(nil)

// Execute applies the updates.
func (c *EditStyleCommand) Execute(ctx context.Context, msg EditStyleInput) error {
	if c.service == nil {
		return errors.New("edit style command requires service")
	}
	if len(msg.Updates) == 0 {
		return admin.Invalid("updates", "at least one update is required")
	}
	saved, err := c.service.EditStyle(msg.Actor.apply(ctx), msg.StyleID, msg.Updates)
	if err != nil {
		return err
	}
	msg.Result.Store(saved)
	paths := make([]string, len(msg.Updates))
	for i, update := range msg.Updates {
		paths[i] = update.Path
	}
	c.telemetry.Record(ctx, "admin.command.style.edit", map[string]any{
		"id":    saved.ID,
		"paths": paths,
	})
	return nil
}

// ToggleBackgroundInput flips one background between solid and gradient.
type ToggleBackgroundInput struct {
	StyleID string `json:"style_id"`
	Key     string `json:"key"`
	Actor
	Result *Result[admin.StyleTheme] `json:"-"`
}

type toggleService interface {
	ToggleStyleBackground(ctx context.Context, id, key string) (admin.StyleTheme, error)
}

// ToggleBackgroundCommand wraps Service.ToggleStyleBackground.
type ToggleBackgroundCommand struct {
	service   toggleService
	telemetry Telemetry
}

// NewToggleBackgroundCommand builds the command.
func NewToggleBackgroundCommand(service toggleService, telemetry Telemetry) *ToggleBackgroundCommand {
	return &ToggleBackgroundCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleBackgroundInput] = (*ToggleBackgroundCommand)(nil)

// Execute toggles the background.
func (c *ToggleBackgroundCommand) Execute(ctx context.Context, msg ToggleBackgroundInput) error {
	if c.service == nil {
		return errors.New("toggle background command requires service")
	}
	saved, err := c.service.ToggleStyleBackground(msg.Actor.apply(ctx), msg.StyleID, msg.Key)
	if err != nil {
		return err
	}
	msg.Result.Store(saved)
	c.telemetry.Record(ctx, "admin.command.style.toggle", map[string]any{
		"id":  saved.ID,
		"key": msg.Key,
	})
	return nil
}

// Style pointers a SetPointerInput may target.
const (
	PointerGlobal  = "global"
	PointerAdmin   = "admin"
	PointerHashtag = "hashtag"
)

// SetPointerInput moves one settings pointer. An empty StyleID clears it.
type SetPointerInput struct {
	Pointer string `json:"pointer"`
	StyleID string `json:"style_id"`
	Hashtag string `json:"hashtag,omitempty"`
	Actor
	Result *Result[admin.StyleSettings] `json:"-"`
}

type pointerService interface {
	SetGlobalStyle(ctx context.Context, styleID string) (admin.StyleSettings, error)
	SetAdminStyle(ctx context.Context, styleID string) (admin.StyleSettings, error)
	BindHashtagStyle(ctx context.Context, hashtag, styleID string) (admin.StyleSettings, error)
}

// SetPointerCommand updates the global, admin, or hashtag style pointers.
type SetPointerCommand struct {
	service   pointerService
	telemetry Telemetry
}

// NewSetPointerCommand builds the command.
func NewSetPointerCommand(service pointerService, telemetry Telemetry) *SetPointerCommand {
	return &SetPointerCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetPointerInput] = (*SetPointerCommand)(nil)

// Execute moves the pointer.
func (c *SetPointerCommand) Execute(ctx context.Context, msg SetPointerInput) error {
	if c.service == nil {
		return errors.New("set pointer command requires service")
	}
	actx := msg.Actor.apply(ctx)
	var (
		settings admin.StyleSettings
		err      error
	)
	switch msg.Pointer {
	case PointerGlobal:
		settings, err = c.service.SetGlobalStyle(actx, msg.StyleID)
	case PointerAdmin:
		settings, err = c.service.SetAdminStyle(actx, msg.StyleID)
	case PointerHashtag:
		settings, err = c.service.BindHashtagStyle(actx, msg.Hashtag, msg.StyleID)
	default:
		return admin.Invalid("pointer", fmt.Sprintf("unknown style pointer %q", msg.Pointer))
	}
	if err != nil {
		return err
	}
	msg.Result.Store(settings)
	c.telemetry.Record(ctx, "admin.command.style.pointer", map[string]any{
		"pointer":  msg.Pointer,
		"style_id": msg.StyleID,
		"hashtag":  msg.Hashtag,
	})
	return nil
}
