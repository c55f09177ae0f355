package queries

import (
	"context"
	"errors"
	"io"

	gocommand "github.com/goliatone/go-command"
	admin "github.com/goliatone/go-messmass/components/admin"
)

// ResolveStyleInput selects the page whose style should be resolved.
type ResolveStyleInput struct {
	ProjectID string
	Scope     admin.StyleScope
}

type resolveService interface {
	ResolveStyle(ctx context.Context, projectID string, scope admin.StyleScope) (admin.StyleResolution, error)
}

// ResolveStyleQuery applies the style precedence rules.
type ResolveStyleQuery struct {
	service resolveService
}

// NewResolveStyleQuery builds the query.
func NewResolveStyleQuery(service resolveService) *ResolveStyleQuery {
	return &ResolveStyleQuery{service: service}
}

var _ gocommand.Querier[ResolveStyleInput, admin.StyleResolution] = (*ResolveStyleQuery)(nil)

// Query resolves the style. Scope defaults to public.
func (q *ResolveStyleQuery) Query(ctx context.Context, input ResolveStyleInput) (admin.StyleResolution, error) {
	if q.service == nil {
		return admin.StyleResolution{}, errors.New("resolve style query requires service")
	}
	scope := input.Scope
	if scope != admin.ScopeAdmin {
		scope = admin.ScopePublic
	}
	return q.service.ResolveStyle(ctx, input.ProjectID, scope)
}

// SettingsInput is the empty request for the style settings record.
type SettingsInput struct{}

type settingsService interface {
	StyleSettings(ctx context.Context) (admin.StyleSettings, error)
}

// SettingsQuery returns the singleton style pointers.
type SettingsQuery struct {
	service settingsService
}

// NewSettingsQuery builds the query.
func NewSettingsQuery(service settingsService) *SettingsQuery {
	return &SettingsQuery{service: service}
}

var _ gocommand.Querier[SettingsInput, admin.StyleSettings] = (*SettingsQuery)(nil)

// Query loads the settings.
func (q *SettingsQuery) Query(ctx context.Context, _ SettingsInput) (admin.StyleSettings, error) {
	if q.service == nil {
		return admin.StyleSettings{}, errors.New("settings query requires service")
	}
	return q.service.StyleSettings(ctx)
}

// PreviewInput previews either a stored style or an unsaved draft. Draft
// wins when both are set.
type PreviewInput struct {
	StyleID string
	Draft   *admin.StyleTheme
	Tab     admin.PreviewTab
	// HTML requests the rendered page in addition to the preview model.
	HTML bool
}

// PreviewOutput carries the preview model and, when requested, its HTML.
type PreviewOutput struct {
	Preview admin.Preview `json:"preview"`
	HTML    string        `json:"html,omitempty"`
}

type previewRenderer interface {
	Render(theme admin.StyleTheme, tab admin.PreviewTab, out ...io.Writer) (string, error)
}

// PreviewQuery builds live previews for the style editor.
type PreviewQuery struct {
	styles   styleGetter
	renderer previewRenderer
}

// NewPreviewQuery builds the query. renderer may be nil when only preview
// models are needed.
func NewPreviewQuery(styles styleGetter, renderer previewRenderer) *PreviewQuery {
	return &PreviewQuery{styles: styles, renderer: renderer}
}

var _ gocommand.Querier[PreviewInput, PreviewOutput] = (*PreviewQuery)(nil)

// Query builds the preview.
func (q *PreviewQuery) Query(ctx context.Context, input PreviewInput) (PreviewOutput, error) {
	var theme admin.StyleTheme
	switch {
	case input.Draft != nil:
		theme = *input.Draft
	case input.StyleID != "":
		if q.styles == nil {
			return PreviewOutput{}, errors.New("preview query requires style service")
		}
		loaded, err := q.styles.GetStyle(ctx, input.StyleID)
		if err != nil {
			return PreviewOutput{}, err
		}
		theme = loaded
	default:
		return PreviewOutput{}, admin.Invalid("styleId", "a style id or draft is required")
	}
	out := PreviewOutput{Preview: admin.BuildPreview(theme, input.Tab)}
	if !input.HTML {
		return out, nil
	}
	if q.renderer == nil {
		return PreviewOutput{}, errors.New("preview query requires renderer for html output")
	}
	html, err := q.renderer.Render(theme, out.Preview.Tab)
	if err != nil {
		return PreviewOutput{}, err
	}
	out.HTML = html
	return out, nil
}
