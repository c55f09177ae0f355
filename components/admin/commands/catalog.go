package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	admin "github.com/goliatone/go-messmass/components/admin"
)

// SaveProjectInput creates a project when Project.ID is empty and replaces
// it otherwise.
type SaveProjectInput struct {
	Project admin.Project
	Actor
	Result *Result[admin.Project] `json:"-"`
}

type projectService interface {
	CreateProject(ctx context.Context, project admin.Project) (admin.Project, error)
	UpdateProject(ctx context.Context, project admin.Project) (admin.Project, error)
}

// SaveProjectCommand wraps Service.CreateProject and Service.UpdateProject.
type SaveProjectCommand struct {
	service   projectService
	telemetry Telemetry
}

// NewSaveProjectCommand builds the command.
func NewSaveProjectCommand(service projectService, telemetry Telemetry) *SaveProjectCommand {
	return &SaveProjectCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveProjectInput] = (*SaveProjectCommand)(nil)

// Execute stores the project.
func (c *SaveProjectCommand) Execute(ctx context.Context, msg SaveProjectInput) error {
	if c.service == nil {
		return errors.New("save project command requires service")
	}
	ctx = msg.Actor.apply(ctx)
	save, verb := c.service.CreateProject, "create"
	if msg.Project.ID != "" {
		save, verb = c.service.UpdateProject, "update"
	}
	saved, err := save(ctx, msg.Project)
	if err != nil {
		return err
	}
	msg.Result.Store(saved)
	c.telemetry.Record(ctx, "admin.command.project."+verb, map[string]any{"id": saved.ID})
	return nil
}

// MergeStatsInput carries a partial stats payload for one project.
type MergeStatsInput struct {
	ProjectID string         `json:"project_id"`
	Stats     map[string]any `json:"stats"`
	Actor
	Result *Result[admin.Project] `json:"-"`
}

type statsService interface {
	MergeProjectStats(ctx context.Context, id string, stats map[string]any) (admin.Project, error)
}

// MergeStatsCommand wraps Service.MergeProjectStats.
type MergeStatsCommand struct {
	service   statsService
	telemetry Telemetry
}

// NewMergeStatsCommand builds the command.
func NewMergeStatsCommand(service statsService, telemetry Telemetry) *MergeStatsCommand {
	return &MergeStatsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[MergeStatsInput] = (*MergeStatsCommand)(nil)

// Execute merges the stats.
func (c *MergeStatsCommand) Execute(ctx context.Context, msg MergeStatsInput) error {
	if c.service == nil {
		return errors.New("merge stats command requires service")
	}
	if msg.ProjectID == "" {
		return errors.New("merge stats command requires project id")
	}
	saved, err := c.service.MergeProjectStats(msg.Actor.apply(ctx), msg.ProjectID, msg.Stats)
	if err != nil {
		return err
	}
	msg.Result.Store(saved)
	c.telemetry.Record(ctx, "admin.command.project.stats", map[string]any{
		"id":    saved.ID,
		"count": len(msg.Stats),
	})
	return nil
}

// SaveCategoryInput creates or replaces a hashtag category.
type SaveCategoryInput struct {
	Category admin.HashtagCategory
	Actor
	Result *Result[admin.HashtagCategory] `json:"-"`
}

type categoryService interface {
	CreateCategory(ctx context.Context, category admin.HashtagCategory) (admin.HashtagCategory, error)
	UpdateCategory(ctx context.Context, category admin.HashtagCategory) (admin.HashtagCategory, error)
}

// SaveCategoryCommand wraps the category create and update operations.
type SaveCategoryCommand struct {
	service   categoryService
	telemetry Telemetry
}

// NewSaveCategoryCommand builds the command.
func NewSaveCategoryCommand(service categoryService, telemetry Telemetry) *SaveCategoryCommand {
	return &SaveCategoryCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveCategoryInput] = (*SaveCategoryCommand)(nil)

// Execute stores the category.
func (c *SaveCategoryCommand) Execute(ctx context.Context, msg SaveCategoryInput) error {
	if c.service == nil {
		return errors.New("save category command requires service")
	}
	ctx = msg.Actor.apply(ctx)
	save, verb := c.service.CreateCategory, "create"
	if msg.Category.ID != "" {
		save, verb = c.service.UpdateCategory, "update"
	}
	saved, err := save(ctx, msg.Category)
	if err != nil {
		return err
	}
	msg.Result.Store(saved)
	c.telemetry.Record(ctx, "admin.command.category."+verb, map[string]any{"id": saved.ID})
	return nil
}

// SaveUserInput creates or updates an admin user.
type SaveUserInput struct {
	User admin.AdminUser
	Actor
	Result *Result[admin.AdminUser] `json:"-"`
}

type userService interface {
	CreateUser(ctx context.Context, user admin.AdminUser) (admin.AdminUser, error)
	UpdateUser(ctx context.Context, user admin.AdminUser) (admin.AdminUser, error)
}

// SaveUserCommand wraps the user create and update operations.
type SaveUserCommand struct {
	service   userService
	telemetry Telemetry
}

// NewSaveUserCommand builds the command.
func NewSaveUserCommand(service userService, telemetry Telemetry) *SaveUserCommand {
	return &SaveUserCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveUserInput] = (*SaveUserCommand)(nil)

// Execute stores the user.
func (c *SaveUserCommand) Execute(ctx context.Context, msg SaveUserInput) error {
	if c.service == nil {
		return errors.New("save user command requires service")
	}
	ctx = msg.Actor.apply(ctx)
	save, verb := c.service.CreateUser, "create"
	if msg.User.ID != "" {
		save, verb = c.service.UpdateUser, "update"
	}
	saved, err := save(ctx, msg.User)
	if err != nil {
		return err
	}
	msg.Result.Store(saved)
	c.telemetry.Record(ctx, "admin.command.user."+verb, map[string]any{
		"id":   saved.ID,
		"role": saved.Role,
	})
	return nil
}
