package queries

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"
	admin "github.com/goliatone/go-messmass/components/admin"
)

// GetInput identifies one record. Variables are keyed by name.
type GetInput struct {
	ID string
}

// GetQuery loads a single record of one entity kind.
type GetQuery[T any] struct {
	kind string
	get  func(ctx context.Context, id string) (T, error)
}

var _ gocommand.Querier[GetInput, admin.StyleTheme] = (*GetQuery[admin.StyleTheme])(nil)

type projectGetter interface {
	GetProject(ctx context.Context, id string) (admin.Project, error)
}

type variableGetter interface {
	GetVariable(ctx context.Context, name string) (admin.VariableDefinition, error)
}

type styleGetter interface {
	GetStyle(ctx context.Context, id string) (admin.StyleTheme, error)
}

// NewGetProjectQuery loads projects.
func NewGetProjectQuery(service projectGetter) *GetQuery[admin.Project] {
	if service == nil {
		return &GetQuery[admin.Project]{kind: "project"}
	}
	return &GetQuery[admin.Project]{kind: "project", get: service.GetProject}
}

// NewGetVariableQuery loads variable definitions.
func NewGetVariableQuery(service variableGetter) *GetQuery[admin.VariableDefinition] {
	if service == nil {
		return &GetQuery[admin.VariableDefinition]{kind: "variable"}
	}
	return &GetQuery[admin.VariableDefinition]{kind: "variable", get: service.GetVariable}
}

// NewGetStyleQuery loads style themes with their chart palette backfilled.
func NewGetStyleQuery(service styleGetter) *GetQuery[admin.StyleTheme] {
	if service == nil {
		return &GetQuery[admin.StyleTheme]{kind: "style"}
	}
	return &GetQuery[admin.StyleTheme]{kind: "style", get: service.GetStyle}
}

// Query loads the record.
func (q *GetQuery[T]) Query(ctx context.Context, input GetInput) (T, error) {
	var zero T
	if q.get == nil {
		return zero, errors.New("get " + q.kind + " query requires service")
	}
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return zero, admin.Invalid("id", "id is required")
	}
	return q.get(ctx, id)
}
