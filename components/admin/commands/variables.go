package commands

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"
	admin "github.com/goliatone/go-messmass/components/admin"
)

// CreateVariableInput registers a custom variable.
type CreateVariableInput struct {
	Variable admin.VariableDefinition
	Actor
	Result *Result[admin.VariableDefinition] `json:"-"`
}

type createVariableService interface {
	CreateVariable(ctx context.Context, def admin.VariableDefinition) (admin.VariableDefinition, error)
}

// CreateVariableCommand wraps Service.CreateVariable.
type CreateVariableCommand struct {
	service   createVariableService
	telemetry Telemetry
}

// NewCreateVariableCommand builds the command.
func NewCreateVariableCommand(service createVariableService, telemetry Telemetry) *CreateVariableCommand {
	return &CreateVariableCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CreateVariableInput] = (*CreateVariableCommand)(nil)

// Execute creates the variable.
func (c *CreateVariableCommand) Execute(ctx context.Context, msg CreateVariableInput) error {
	if c.service == nil {
		return errors.New("create variable command requires service")
	}
	saved, err := c.service.CreateVariable(msg.Actor.apply(ctx), msg.Variable)
	if err != nil {
		return err
	}
	msg.Result.Store(saved)
	c.telemetry.Record(ctx, "admin.command.variable.create", map[string]any{
		"name":     saved.Name,
		"category": saved.Category,
		"derived":  saved.Derived,
	})
	return nil
}

// UpdateVariableInput applies a partial update.
type UpdateVariableInput struct {
	Patch admin.VariablePatch
	Actor
	Result *Result[admin.VariableDefinition] `json:"-"`
}

type updateVariableService interface {
	UpdateVariable(ctx context.Context, patch admin.VariablePatch) (admin.VariableDefinition, error)
}

// UpdateVariableCommand wraps Service.UpdateVariable.
type UpdateVariableCommand struct {
	service   updateVariableService
	telemetry Telemetry
}

// NewUpdateVariableCommand builds the command.
func NewUpdateVariableCommand(service updateVariableService, telemetry Telemetry) *UpdateVariableCommand {
	return &UpdateVariableCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateVariableInput] = (*UpdateVariableCommand)(nil)

// Execute patches the variable.
func (c *UpdateVariableCommand) Execute(ctx context.Context, msg UpdateVariableInput) error {
	if c.service == nil {
		return errors.New("update variable command requires service")
	}
	if strings.TrimSpace(msg.Patch.Name) == "" {
		return errors.New("update variable command requires name")
	}
	saved, err := c.service.UpdateVariable(msg.Actor.apply(ctx), msg.Patch)
	if err != nil {
		return err
	}
	msg.Result.Store(saved)
	c.telemetry.Record(ctx, "admin.command.variable.update", map[string]any{"name": saved.Name})
	return nil
}

// SetFlagInput toggles one visibility flag.
type SetFlagInput struct {
	Name  string `json:"name"`
	Flag  string `json:"flag"`
	Value bool   `json:"value"`
	Actor
	Result *Result[admin.VariableDefinition] `json:"-"`
}

type flagService interface {
	SetVariableFlag(ctx context.Context, name, flag string, value bool) (admin.VariableDefinition, error)
}

// SetFlagCommand wraps Service.SetVariableFlag. Derived and text variables
// come back unchanged without an error.
type SetFlagCommand struct {
	service   flagService
	telemetry Telemetry
}

// NewSetFlagCommand builds the command.
func NewSetFlagCommand(service flagService, telemetry Telemetry) *SetFlagCommand {
	return &SetFlagCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetFlagInput] = (*SetFlagCommand)(nil)

// Execute sets the flag.
func (c *SetFlagCommand) Execute(ctx context.Context, msg SetFlagInput) error {
	if c.service == nil {
		return errors.New("set flag command requires service")
	}
	saved, err := c.service.SetVariableFlag(msg.Actor.apply(ctx), msg.Name, msg.Flag, msg.Value)
	if err != nil {
		return err
	}
	msg.Result.Store(saved)
	c.telemetry.Record(ctx, "admin.command.variable.flag", map[string]any{
		"name":  msg.Name,
		"flag":  msg.Flag,
		"value": msg.Value,
	})
	return nil
}

// RenameInput changes either the display label or, for custom variables,
// the identifier. Label wins when both are set.
type RenameInput struct {
	Name    string `json:"name"`
	Label   string `json:"label,omitempty"`
	NewName string `json:"new_name,omitempty"`
	Actor
	Result *Result[admin.VariableDefinition] `json:"-"`
}

type renameService interface {
	RenameVariableLabel(ctx context.Context, name, label string) (admin.VariableDefinition, error)
	RenameVariable(ctx context.Context, name, newName string) (admin.VariableDefinition, error)
}

// RenameVariableCommand wraps the label and identifier rename operations.
type RenameVariableCommand struct {
	service   renameService
	telemetry Telemetry
}

// NewRenameVariableCommand builds the command.
func NewRenameVariableCommand(service renameService, telemetry Telemetry) *RenameVariableCommand {
	return &RenameVariableCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RenameInput] = (*RenameVariableCommand)(nil)

// Execute performs the rename.
func (c *RenameVariableCommand) Execute(ctx context.Context, msg RenameInput) error {
	if c.service == nil {
		return errors.New("rename command requires service")
	}
	label := strings.TrimSpace(msg.Label)
	newName := strings.TrimSpace(msg.NewName)
	if label == "" && newName == "" {
		return admin.Invalid("label", "label or new name is required")
	}
	actx := msg.Actor.apply(ctx)
	var (
		saved admin.VariableDefinition
		err   error
		kind  = "label"
	)
	if label != "" {
		saved, err = c.service.RenameVariableLabel(actx, msg.Name, label)
	} else {
		kind = "identifier"
		saved, err = c.service.RenameVariable(actx, msg.Name, newName)
	}
	if err != nil {
		return err
	}
	msg.Result.Store(saved)
	c.telemetry.Record(ctx, "admin.command.variable.rename", map[string]any{
		"name":   msg.Name,
		"target": saved.Name,
		"kind":   kind,
	})
	return nil
}

// ReorderInput is the new order of one category's reorderable variables.
type ReorderInput struct {
	Category string   `json:"category"`
	Names    []string `json:"names"`
	Actor
}

type reorderService interface {
	ReorderVariables(ctx context.Context, category string, names []string) error
}

// ReorderVariablesCommand wraps Service.ReorderVariables.
type ReorderVariablesCommand struct {
	service   reorderService
	telemetry Telemetry
}

// NewReorderVariablesCommand builds the command.
func NewReorderVariablesCommand(service reorderService, telemetry Telemetry) *ReorderVariablesCommand {
	return &ReorderVariablesCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ReorderInput] = (*ReorderVariablesCommand)(nil)

// Execute applies the new ordering.
func (c *ReorderVariablesCommand) Execute(ctx context.Context, msg ReorderInput) error {
	if c.service == nil {
		return errors.New("reorder command requires service")
	}
	if err := c.service.ReorderVariables(msg.Actor.apply(ctx), msg.Category, msg.Names); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "admin.command.variable.reorder", map[string]any{
		"category": msg.Category,
		"count":    len(msg.Names),
	})
	return nil
}

// SeedVariablesInput controls which definitions are seeded. An empty
// Variables slice seeds the built-in system set.
type SeedVariablesInput struct {
	Variables []admin.VariableDefinition
	Created   *Result[int] `json:"-"`
}

type seedService interface {
	SeedVariables(ctx context.Context, defs []admin.VariableDefinition) (int, error)
}

// SeedVariablesCommand inserts system variables that are not stored yet.
type SeedVariablesCommand struct {
	service   seedService
	telemetry Telemetry
}

// NewSeedVariablesCommand wires dependencies.
func NewSeedVariablesCommand(service seedService, telemetry Telemetry) *SeedVariablesCommand {
	return &SeedVariablesCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SeedVariablesInput] = (*SeedVariablesCommand)(nil)

// Execute runs the seed.
func (c *SeedVariablesCommand) Execute(ctx context.Context, msg SeedVariablesInput) error {
	if c.service == nil {
		return errors.New("seed command requires service")
	}
	defs := msg.Variables
	if len(defs) == 0 {
		defs = admin.DefaultVariables()
	}
	created, err := c.service.SeedVariables(ctx, defs)
	if err != nil {
		return err
	}
	msg.Created.Store(created)
	c.telemetry.Record(ctx, "admin.command.variable.seed", map[string]any{
		"declared": len(defs),
		"created":  created,
	})
	return nil
}
