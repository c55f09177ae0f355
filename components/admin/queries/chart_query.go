package queries

import (
	"context"
	"errors"
	"strings"

	gocommand "github.com/goliatone/go-command"
	admin "github.com/goliatone/go-messmass/components/admin"
)

// ProjectChartsInput selects a project. Render adds ECharts HTML painted
// with the project's resolved chart palette.
type ProjectChartsInput struct {
	ProjectID string
	Render    bool
}

// RenderedChart is a computed chart with optional HTML.
type RenderedChart struct {
	admin.ChartResult
	HTML string `json:"html,omitempty"`
}

type chartsService interface {
	ComputeProjectCharts(ctx context.Context, projectID string) ([]admin.ChartResult, error)
	ResolveStyle(ctx context.Context, projectID string, scope admin.StyleScope) (admin.StyleResolution, error)
}

type chartRenderer interface {
	Render(result admin.ChartResult, palette admin.ChartColors) (string, error)
}

// ProjectChartsQuery evaluates the active chart algorithms for a project.
type ProjectChartsQuery struct {
	service  chartsService
	renderer chartRenderer
}

// NewProjectChartsQuery builds the query.
func NewProjectChartsQuery(service chartsService, renderer chartRenderer) *ProjectChartsQuery {
	return &ProjectChartsQuery{service: service, renderer: renderer}
}

var _ gocommand.Querier[ProjectChartsInput, []RenderedChart] = (*ProjectChartsQuery)(nil)

// Query computes and optionally renders the charts.
func (q *ProjectChartsQuery) Query(ctx context.Context, input ProjectChartsInput) ([]RenderedChart, error) {
	if q.service == nil {
		return nil, errors.New("project charts query requires service")
	}
	projectID := strings.TrimSpace(input.ProjectID)
	if projectID == "" {
		return nil, admin.Invalid("projectId", "project id is required")
	}
	results, err := q.service.ComputeProjectCharts(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]RenderedChart, len(results))
	for i, result := range results {
		out[i] = RenderedChart{ChartResult: result}
	}
	if !input.Render || q.renderer == nil {
		return out, nil
	}
	resolution, err := q.service.ResolveStyle(ctx, projectID, admin.ScopePublic)
	if err != nil {
		return nil, err
	}
	palette := admin.DeriveChartColors(resolution.Theme).ChartColors
	for i := range out {
		html, err := q.renderer.Render(out[i].ChartResult, *palette)
		if err != nil {
			return nil, err
		}
		out[i].HTML = html
	}
	return out, nil
}
