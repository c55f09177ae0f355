package admin

import (
	"embed"
	"fmt"
	"io"
	"strconv"

	template "github.com/goliatone/go-template"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// PreviewTab selects which section of the style editor is being previewed.
type PreviewTab string

const (
	TabGeneral     PreviewTab = "general"
	TabBackgrounds PreviewTab = "backgrounds"
	TabTypography  PreviewTab = "typography"
	TabColors      PreviewTab = "colors"
	TabChartColors PreviewTab = "chartColors"
)

// PreviewTabs lists the editor tabs in display order.
var PreviewTabs = []PreviewTab{TabGeneral, TabBackgrounds, TabTypography, TabColors, TabChartColors}

// Renderer describes the template renderer contract used by the preview.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// NewTemplateRenderer creates a go-template renderer backed by the embedded
// templates.
func NewTemplateRenderer() (Renderer, error) {
	return template.NewRenderer(
		template.WithFS(embeddedTemplates),
		template.WithBaseDir("templates"),
		template.WithExtension(".html"),
	)
}

// Preview is the render model of a theme on one editor tab. Sample charts
// are only present on the chart colors tab.
type Preview struct {
	Tab        PreviewTab    `json:"tab"`
	Theme      StyleTheme    `json:"theme"`
	PageCSS    string        `json:"pageCss"`
	HeroCSS    string        `json:"heroCss"`
	ContentCSS string        `json:"contentCss"`
	Charts     []ChartResult `json:"charts,omitempty"`
}

// BuildPreview derives the preview model for theme without side effects.
// Unknown tabs fall back to general.
func BuildPreview(theme StyleTheme, tab PreviewTab) Preview {
	theme = DeriveChartColors(theme)
	if !validTab(tab) {
		tab = TabGeneral
	}
	preview := Preview{
		Tab:        tab,
		Theme:      theme,
		PageCSS:    theme.PageBackground.CSS(),
		HeroCSS:    theme.HeroBackground.CSS(),
		ContentCSS: contentBoxCSS(theme.ContentBox),
	}
	if tab == TabChartColors {
		preview.Charts = SampleCharts()
	}
	return preview
}

func validTab(tab PreviewTab) bool {
	for _, t := range PreviewTabs {
		if t == tab {
			return true
		}
	}
	return false
}

// SampleCharts returns the fixed pie, bar, and KPI results drawn on the
// chart colors tab.
func SampleCharts() []ChartResult {
	return []ChartResult{
		{
			ChartID: "samplePie", Title: "Gender Distribution", Type: ChartPie, HasData: true, Total: 100,
			Elements: []ChartValue{{Label: "Female", Value: 55}, {Label: "Male", Value: 45}},
		},
		{
			ChartID: "sampleBar", Title: "Merchandise", Type: ChartBar, HasData: true, Total: 150,
			Elements: []ChartValue{
				{Label: "Jersey", Value: 45},
				{Label: "Scarf", Value: 32},
				{Label: "Flags", Value: 28},
				{Label: "Cap", Value: 25},
				{Label: "Other", Value: 20},
			},
		},
		{
			ChartID: "sampleKpi", Title: "Total Fans", Type: ChartKPI, HasData: true, Total: 1250,
			Elements: []ChartValue{{Label: "Total Fans", Value: 1250}},
		},
	}
}

func contentBoxCSS(box ContentBox) string {
	if box.SolidColor == "" {
		return ""
	}
	opacity := box.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	return "background: " + box.SolidColor + "; opacity: " + strconv.FormatFloat(opacity, 'f', -1, 64) + ";"
}

// PreviewRenderer renders previews to HTML.
type PreviewRenderer struct {
	templates Renderer
	charts    *ChartRenderer
}

// NewPreviewRenderer wires a template renderer and chart renderer. A nil
// chart renderer gets the default one.
func NewPreviewRenderer(templates Renderer, charts *ChartRenderer) *PreviewRenderer {
	if charts == nil {
		charts = NewChartRenderer()
	}
	return &PreviewRenderer{templates: templates, charts: charts}
}

// Render builds and renders the preview for theme on tab.
func (r *PreviewRenderer) Render(theme StyleTheme, tab PreviewTab, out ...io.Writer) (string, error) {
	if r == nil || r.templates == nil {
		return "", fmt.Errorf("admin: preview renderer not configured")
	}
	preview := BuildPreview(theme, tab)
	palette := *preview.Theme.ChartColors
	chartViews := make([]map[string]any, 0, len(preview.Charts))
	for _, chart := range preview.Charts {
		html, err := r.charts.Render(chart, palette)
		if err != nil {
			return "", fmt.Errorf("admin: render preview chart %s: %w", chart.ChartID, err)
		}
		chartViews = append(chartViews, map[string]any{
			"chart_id":   chart.ChartID,
			"title":      chart.Title,
			"type":       string(chart.Type),
			"total":      chart.Total,
			"chart_html": html,
		})
	}
	data := map[string]any{
		"tab":         string(preview.Tab),
		"name":        preview.Theme.Name,
		"description": preview.Theme.Description,
		"page_css":    preview.PageCSS,
		"hero_css":    preview.HeroCSS,
		"content_css": preview.ContentCSS,
		"typography":  preview.Theme.Typography,
		"scheme":      preview.Theme.ColorScheme,
		"palette":     palette,
		"charts":      chartViews,
	}
	return r.templates.Render("style_preview.html", data, out...)
}
