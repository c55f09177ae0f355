package admin

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ChartType is the visual form of a chart algorithm.
type ChartType string

const (
	ChartPie ChartType = "pie"
	ChartBar ChartType = "bar"
	ChartKPI ChartType = "kpi"
)

var chartElementCounts = map[ChartType]int{
	ChartPie: 2,
	ChartBar: 5,
	ChartKPI: 1,
}

// ChartElement is one computed value of a chart.
type ChartElement struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Formula string `json:"formula"`
	Color   string `json:"color,omitempty"`
}

// ChartAlgorithm describes how a chart is computed from project stats.
type ChartAlgorithm struct {
	ID        string         `json:"id"`
	ChartID   string         `json:"chartId"`
	Title     string         `json:"title"`
	Type      ChartType      `json:"type"`
	Order     int            `json:"order"`
	IsActive  bool           `json:"isActive"`
	Emoji     string         `json:"emoji,omitempty"`
	Elements  []ChartElement `json:"elements"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// ChartSortFields lists the explicit sort fields chart algorithms accept.
var ChartSortFields = []string{"title", "type", "order", "createdAt"}

func (c ChartAlgorithm) EntityID() string   { return c.ID }
func (c ChartAlgorithm) SearchText() string { return c.ChartID + " " + c.Title }

func (c ChartAlgorithm) SortKey(field string) (string, bool) {
	switch field {
	case "title":
		return strings.ToLower(c.Title), true
	case "type":
		return string(c.Type), true
	case "order":
		return fmt.Sprintf("%010d", c.Order), true
	case "createdAt":
		return timeKey(c.CreatedAt), true
	}
	return "", false
}

func (c ChartAlgorithm) CursorKey() string { return timeKey(c.CreatedAt) + "|" + c.ID }

// Validate checks the algorithm shape and the element count for its type.
func (c ChartAlgorithm) Validate(registry map[string]VariableDefinition) error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.ChartID, validation.Required, validation.Match(identifierPattern).Error("must be a letter followed by letters, digits or underscores")),
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.Type, validation.Required, validation.In(ChartPie, ChartBar, ChartKPI)),
		validation.Field(&c.Order, validation.Min(0)),
	)
	if err != nil {
		return validationError(err, "invalid chart algorithm")
	}
	if want := chartElementCounts[c.Type]; len(c.Elements) != want {
		return Invalid("elements", fmt.Sprintf("%s charts need exactly %d elements, got %d", c.Type, want, len(c.Elements)))
	}
	for i, el := range c.Elements {
		if strings.TrimSpace(el.Label) == "" {
			return Invalid("elements."+strconv.Itoa(i)+".label", "label is required")
		}
		if err := ValidateFormula(el.Formula, "", registry); err != nil {
			return err
		}
	}
	return nil
}

// ChartValue is one computed element.
type ChartValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// ChartResult is a chart algorithm evaluated against one project.
type ChartResult struct {
	ChartID  string       `json:"chartId"`
	Title    string       `json:"title"`
	Type     ChartType    `json:"type"`
	Emoji    string       `json:"emoji,omitempty"`
	Elements []ChartValue `json:"elements"`
	Total    float64      `json:"total"`
	HasData  bool         `json:"hasData"`
}

// ComputeChart evaluates every element formula against values, which should
// already include derived variables.
func ComputeChart(chart ChartAlgorithm, values map[string]float64) (ChartResult, error) {
	result := ChartResult{
		ChartID:  chart.ChartID,
		Title:    chart.Title,
		Type:     chart.Type,
		Emoji:    chart.Emoji,
		Elements: make([]ChartValue, 0, len(chart.Elements)),
	}
	evaluator := FormulaEvaluator{}
	for _, el := range chart.Elements {
		value, err := evaluator.Evaluate(el.Formula, values)
		if err != nil {
			return ChartResult{}, fmt.Errorf("admin: chart %s element %s: %w", chart.ChartID, el.ID, err)
		}
		result.Elements = append(result.Elements, ChartValue{Label: el.Label, Value: value, Color: el.Color})
		result.Total += value
		if value != 0 {
			result.HasData = true
		}
	}
	return result, nil
}

// ListCharts returns one page of chart algorithms.
func (s *Service) ListCharts(ctx context.Context, query ListQuery) (ListPage[ChartAlgorithm], error) {
	store, err := s.charts()
	if err != nil {
		return ListPage[ChartAlgorithm]{}, err
	}
	query, err = s.prepareList(query, ChartSortFields)
	if err != nil {
		return ListPage[ChartAlgorithm]{}, err
	}
	return store.List(ctx, query)
}

// CreateChart stores a new chart algorithm.
func (s *Service) CreateChart(ctx context.Context, chart ChartAlgorithm) (ChartAlgorithm, error) {
	store, err := s.charts()
	if err != nil {
		return ChartAlgorithm{}, err
	}
	if err := s.validateChart(ctx, store, chart, ""); err != nil {
		return ChartAlgorithm{}, err
	}
	now := s.opts.Now()
	chart.ID = s.opts.NewID()
	chart.CreatedAt = now
	chart.UpdatedAt = now
	for i := range chart.Elements {
		if chart.Elements[i].ID == "" {
			chart.Elements[i].ID = s.opts.NewID()
		}
	}
	saved, err := store.Save(ctx, chart)
	if err != nil {
		return ChartAlgorithm{}, fmt.Errorf("admin: save chart: %w", err)
	}
	return saved, s.changed(ctx, "chart", "create", saved.ID, saved, map[string]any{"chart_id": saved.ChartID})
}

// UpdateChart replaces a chart algorithm.
func (s *Service) UpdateChart(ctx context.Context, chart ChartAlgorithm) (ChartAlgorithm, error) {
	store, err := s.charts()
	if err != nil {
		return ChartAlgorithm{}, err
	}
	existing, err := store.Get(ctx, chart.ID)
	if err != nil {
		return ChartAlgorithm{}, err
	}
	if err := s.validateChart(ctx, store, chart, chart.ID); err != nil {
		return ChartAlgorithm{}, err
	}
	chart.CreatedAt = existing.CreatedAt
	chart.UpdatedAt = s.opts.Now()
	for i := range chart.Elements {
		if chart.Elements[i].ID == "" {
			chart.Elements[i].ID = s.opts.NewID()
		}
	}
	saved, err := store.Save(ctx, chart)
	if err != nil {
		return ChartAlgorithm{}, fmt.Errorf("admin: save chart: %w", err)
	}
	return saved, s.changed(ctx, "chart", "update", saved.ID, saved, map[string]any{"chart_id": saved.ChartID})
}

// DeleteChart removes a chart algorithm.
func (s *Service) DeleteChart(ctx context.Context, id string) error {
	store, err := s.charts()
	if err != nil {
		return err
	}
	if _, err := store.Get(ctx, id); err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return fmt.Errorf("admin: delete chart: %w", err)
	}
	return s.changed(ctx, "chart", "delete", id, nil, nil)
}

func (s *Service) validateChart(ctx context.Context, store Repository[ChartAlgorithm], chart ChartAlgorithm, selfID string) error {
	registry, err := s.registryMap(ctx)
	if err != nil {
		return err
	}
	if err := chart.Validate(registry); err != nil {
		return err
	}
	all, err := store.All(ctx)
	if err != nil {
		return fmt.Errorf("admin: load charts: %w", err)
	}
	for _, other := range all {
		if other.ID != selfID && other.ChartID == chart.ChartID {
			return Conflict(fmt.Sprintf("chart %q already exists", chart.ChartID))
		}
	}
	return nil
}

// ProjectValues returns the project's numeric stats merged with every
// derived variable.
func (s *Service) ProjectValues(ctx context.Context, project Project) (map[string]float64, error) {
	defs, err := s.Registry(ctx)
	if err != nil {
		return nil, err
	}
	values := NumericStats(project.Stats)
	derived, err := ComputeDerived(defs, project.Stats)
	if err != nil {
		return nil, err
	}
	for name, value := range derived {
		values[name] = value
	}
	return values, nil
}

// ComputeProjectCharts evaluates every active chart algorithm, in order,
// against a project's stats.
func (s *Service) ComputeProjectCharts(ctx context.Context, projectID string) ([]ChartResult, error) {
	store, err := s.charts()
	if err != nil {
		return nil, err
	}
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	values, err := s.ProjectValues(ctx, project)
	if err != nil {
		return nil, err
	}
	all, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("admin: load charts: %w", err)
	}
	slices.SortStableFunc(all, func(a, b ChartAlgorithm) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return cmp.Compare(a.ChartID, b.ChartID)
	})
	out := make([]ChartResult, 0, len(all))
	for _, chart := range all {
		if !chart.IsActive {
			continue
		}
		result, err := ComputeChart(chart, values)
		if err != nil {
			return nil, err
		}
		out = append(out, result)
	}
	return out, nil
}
