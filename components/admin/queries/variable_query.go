package queries

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"
	admin "github.com/goliatone/go-messmass/components/admin"
)

// RegistryInput optionally narrows the registry to one category's
// reorderable variables.
type RegistryInput struct {
	Category string
}

type registryService interface {
	Registry(ctx context.Context) ([]admin.VariableDefinition, error)
	ReorderList(ctx context.Context, category string) ([]admin.VariableDefinition, error)
}

// RegistryQuery returns the ordered variable registry.
type RegistryQuery struct {
	service registryService
}

// NewRegistryQuery builds the query.
func NewRegistryQuery(service registryService) *RegistryQuery {
	return &RegistryQuery{service: service}
}

var _ gocommand.Querier[RegistryInput, []admin.VariableDefinition] = (*RegistryQuery)(nil)

// Query returns every definition, or the reorder list when a category is
// given.
func (q *RegistryQuery) Query(ctx context.Context, input RegistryInput) ([]admin.VariableDefinition, error) {
	if q.service == nil {
		return nil, errors.New("registry query requires service")
	}
	if category := strings.TrimSpace(input.Category); category != "" {
		return q.service.ReorderList(ctx, category)
	}
	return q.service.Registry(ctx)
}
