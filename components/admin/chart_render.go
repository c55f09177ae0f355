package admin

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const defaultChartHeight = "320px"

// ChartRenderer turns computed chart results into go-echarts HTML painted
// with a theme's chart palette.
type ChartRenderer struct {
	cache      RenderCache
	assetsHost string
}

// ChartRendererOption customizes a ChartRenderer.
type ChartRendererOption func(*ChartRenderer)

// WithChartCache injects a render cache. Passing nil disables caching.
func WithChartCache(cache RenderCache) ChartRendererOption {
	return func(r *ChartRenderer) {
		r.cache = cache
	}
}

// WithChartAssetsHost rewrites the assets host the ECharts runtime loads from.
func WithChartAssetsHost(host string) ChartRendererOption {
	return func(r *ChartRenderer) {
		r.assetsHost = host
	}
}

// NewChartRenderer builds a renderer with a five minute cache.
func NewChartRenderer(options ...ChartRendererOption) *ChartRenderer {
	r := &ChartRenderer{cache: NewChartCache(5 * time.Minute)}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Render draws result with palette. KPI charts have no ECharts form and
// render as an empty string.
func (r *ChartRenderer) Render(result ChartResult, palette ChartColors) (string, error) {
	if result.Type == ChartKPI {
		return "", nil
	}
	render := func() (string, error) {
		switch result.Type {
		case ChartPie:
			return r.renderPie(result, palette)
		case ChartBar:
			return r.renderBar(result, palette)
		default:
			return "", fmt.Errorf("admin: unsupported chart type %q", result.Type)
		}
	}
	if r.cache == nil {
		return render()
	}
	return r.cache.GetOrRender(renderKey(result, palette, r.assetsHost), render)
}

func (r *ChartRenderer) renderPie(result ChartResult, palette ChartColors) (string, error) {
	pie := charts.NewPie()
	pie.SetGlobalOptions(r.globalOptions(result, palette, palette.PiePalette())...)
	data := make([]opts.PieData, len(result.Elements))
	colors := palette.PiePalette()
	for i, el := range result.Elements {
		data[i] = opts.PieData{
			Name:      el.Label,
			Value:     el.Value,
			ItemStyle: &opts.ItemStyle{Color: elementColor(el, colors, i), BorderColor: palette.PieBorderColor},
		}
	}
	pie.AddSeries(result.Title, data)
	return renderChart(pie)
}

func (r *ChartRenderer) renderBar(result ChartResult, palette ChartColors) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(r.globalOptions(result, palette, palette.BarPalette())...)
	labels := make([]string, len(result.Elements))
	data := make([]opts.BarData, len(result.Elements))
	colors := palette.BarPalette()
	for i, el := range result.Elements {
		labels[i] = el.Label
		data[i] = opts.BarData{
			Name:      el.Label,
			Value:     el.Value,
			ItemStyle: &opts.ItemStyle{Color: elementColor(el, colors, i)},
		}
	}
	bar.SetXAxis(labels)
	bar.AddSeries(result.Title, data)
	return renderChart(bar)
}

func (r *ChartRenderer) globalOptions(result ChartResult, palette ChartColors, series []string) []charts.GlobalOpts {
	init := opts.Initialization{
		Width:           "100%",
		Height:          defaultChartHeight,
		BackgroundColor: palette.ChartBackground,
		ChartID:         "chart_" + result.ChartID,
	}
	if r.assetsHost != "" {
		init.AssetsHost = r.assetsHost
	}
	title := result.Title
	if result.Emoji != "" {
		title = result.Emoji + " " + title
	}
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(init),
		charts.WithTitleOpts(opts.Title{
			Title:      title,
			TitleStyle: &opts.TextStyle{Color: palette.ChartTitleColor},
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:      opts.Bool(true),
			TextStyle: &opts.TextStyle{Color: palette.ChartLabelColor},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithColorsOpts(opts.Colors(series)),
	}
}

func elementColor(el ChartValue, palette []string, index int) string {
	if strings.TrimSpace(el.Color) != "" {
		return el.Color
	}
	if index < len(palette) {
		return palette[index]
	}
	return ""
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
