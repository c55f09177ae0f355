package commands

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"
)

// DeleteInput identifies the record to remove.
type DeleteInput struct {
	ID string `json:"id"`
	Actor
}

// DeleteCommand removes one record of a single entity kind.
type DeleteCommand struct {
	kind      string
	remove    func(ctx context.Context, id string) error
	telemetry Telemetry
}

var _ gocommand.Commander[DeleteInput] = (*DeleteCommand)(nil)

type projectDeleter interface {
	DeleteProject(ctx context.Context, id string) error
}

type categoryDeleter interface {
	DeleteCategory(ctx context.Context, id string) error
}

type userDeleter interface {
	DeleteUser(ctx context.Context, id string) error
}

type variableDeleter interface {
	DeleteVariable(ctx context.Context, name string) error
}

type styleDeleter interface {
	DeleteStyle(ctx context.Context, id string) error
}

type chartDeleter interface {
	DeleteChart(ctx context.Context, id string) error
}

// NewDeleteProjectCommand wraps Service.DeleteProject.
func NewDeleteProjectCommand(service projectDeleter, telemetry Telemetry) *DeleteCommand {
	if service == nil {
		return newDeleteCommand("project", nil, telemetry)
	}
	return newDeleteCommand("project", service.DeleteProject, telemetry)
}

// NewDeleteCategoryCommand wraps Service.DeleteCategory.
func NewDeleteCategoryCommand(service categoryDeleter, telemetry Telemetry) *DeleteCommand {
	if service == nil {
		return newDeleteCommand("category", nil, telemetry)
	}
	return newDeleteCommand("category", service.DeleteCategory, telemetry)
}

// NewDeleteUserCommand wraps Service.DeleteUser.
func NewDeleteUserCommand(service userDeleter, telemetry Telemetry) *DeleteCommand {
	if service == nil {
		return newDeleteCommand("user", nil, telemetry)
	}
	return newDeleteCommand("user", service.DeleteUser, telemetry)
}

// NewDeleteVariableCommand wraps Service.DeleteVariable. The input id is the
// variable name.
func NewDeleteVariableCommand(service variableDeleter, telemetry Telemetry) *DeleteCommand {
	if service == nil {
		return newDeleteCommand("variable", nil, telemetry)
	}
	return newDeleteCommand("variable", service.DeleteVariable, telemetry)
}

// NewDeleteStyleCommand wraps Service.DeleteStyle.
func NewDeleteStyleCommand(service styleDeleter, telemetry Telemetry) *DeleteCommand {
	if service == nil {
		return newDeleteCommand("style", nil, telemetry)
	}
	return newDeleteCommand("style", service.DeleteStyle, telemetry)
}

// NewDeleteChartCommand wraps Service.DeleteChart.
func NewDeleteChartCommand(service chartDeleter, telemetry Telemetry) *DeleteCommand {
	if service == nil {
		return newDeleteCommand("chart", nil, telemetry)
	}
	return newDeleteCommand("chart", service.DeleteChart, telemetry)
}

func newDeleteCommand(kind string, remove func(context.Context, string) error, telemetry Telemetry) *DeleteCommand {
	return &DeleteCommand{kind: kind, remove: remove, telemetry: normalizeTelemetry(telemetry)}
}

// Kind returns the entity kind this command deletes.
func (c *DeleteCommand) Kind() string { return c.kind }

// Execute deletes the record.
func (c *DeleteCommand) Execute(ctx context.Context, msg DeleteInput) error {
	if c.remove == nil {
		return errors.New("delete " + c.kind + " command requires service")
	}
	id := strings.TrimSpace(msg.ID)
	if id == "" {
		return errors.New("delete " + c.kind + " command requires id")
	}
	if err := c.remove(msg.Actor.apply(ctx), id); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "admin.command."+c.kind+".delete", map[string]any{"id": id})
	return nil
}
