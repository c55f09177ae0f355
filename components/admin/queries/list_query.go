package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	admin "github.com/goliatone/go-messmass/components/admin"
)

// ListQuery answers paginated list requests for one entity kind.
type ListQuery[T any] struct {
	kind string
	list func(ctx context.Context, query admin.ListQuery) (admin.ListPage[T], error)
}

var _ gocommand.Querier[admin.ListQuery, admin.ListPage[admin.Project]] = (*ListQuery[admin.Project])(nil)

type projectLister interface {
	ListProjects(ctx context.Context, query admin.ListQuery) (admin.ListPage[admin.Project], error)
}

type categoryLister interface {
	ListCategories(ctx context.Context, query admin.ListQuery) (admin.ListPage[admin.HashtagCategory], error)
}

type userLister interface {
	ListUsers(ctx context.Context, query admin.ListQuery) (admin.ListPage[admin.AdminUser], error)
}

type variableLister interface {
	ListVariables(ctx context.Context, query admin.ListQuery) (admin.ListPage[admin.VariableDefinition], error)
}

type styleLister interface {
	ListStyles(ctx context.Context, query admin.ListQuery) (admin.ListPage[admin.StyleTheme], error)
}

type chartLister interface {
	ListCharts(ctx context.Context, query admin.ListQuery) (admin.ListPage[admin.ChartAlgorithm], error)
}

// NewListProjectsQuery lists projects.
func NewListProjectsQuery(service projectLister) *ListQuery[admin.Project] {
	if service == nil {
		return &ListQuery[admin.Project]{kind: "project"}
	}
	return &ListQuery[admin.Project]{kind: "project", list: service.ListProjects}
}

// NewListCategoriesQuery lists hashtag categories.
func NewListCategoriesQuery(service categoryLister) *ListQuery[admin.HashtagCategory] {
	if service == nil {
		return &ListQuery[admin.HashtagCategory]{kind: "category"}
	}
	return &ListQuery[admin.HashtagCategory]{kind: "category", list: service.ListCategories}
}

// NewListUsersQuery lists admin users.
func NewListUsersQuery(service userLister) *ListQuery[admin.AdminUser] {
	if service == nil {
		return &ListQuery[admin.AdminUser]{kind: "user"}
	}
	return &ListQuery[admin.AdminUser]{kind: "user", list: service.ListUsers}
}

// NewListVariablesQuery lists variable definitions.
func NewListVariablesQuery(service variableLister) *ListQuery[admin.VariableDefinition] {
	if service == nil {
		return &ListQuery[admin.VariableDefinition]{kind: "variable"}
	}
	return &ListQuery[admin.VariableDefinition]{kind: "variable", list: service.ListVariables}
}

// NewListStylesQuery lists style themes.
func NewListStylesQuery(service styleLister) *ListQuery[admin.StyleTheme] {
	if service == nil {
		return &ListQuery[admin.StyleTheme]{kind: "style"}
	}
	return &ListQuery[admin.StyleTheme]{kind: "style", list: service.ListStyles}
}

// NewListChartsQuery lists chart algorithms.
func NewListChartsQuery(service chartLister) *ListQuery[admin.ChartAlgorithm] {
	if service == nil {
		return &ListQuery[admin.ChartAlgorithm]{kind: "chart"}
	}
	return &ListQuery[admin.ChartAlgorithm]{kind: "chart", list: service.ListCharts}
}

// Query returns one page.
func (q *ListQuery[T]) Query(ctx context.Context, query admin.ListQuery) (admin.ListPage[T], error) {
	if q.list == nil {
		return admin.ListPage[T]{}, errors.New("list " + q.kind + " query requires service")
	}
	page, err := q.list(ctx, query)
	if err != nil {
		return admin.ListPage[T]{}, err
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	return page, nil
}
