package admin

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureRenderer struct {
	name string
	data any
}

func (c *captureRenderer) Render(name string, data any, _ ...io.Writer) (string, error) {
	c.name = name
	c.data = data
	return "<section>" + name + "</section>", nil
}

func TestBuildPreviewOnlyDrawsChartsOnChartTab(t *testing.T) {
	theme := BuiltinStyle()

	for _, tab := range []PreviewTab{TabGeneral, TabBackgrounds, TabTypography, TabColors} {
		preview := BuildPreview(theme, tab)
		assert.Equal(t, tab, preview.Tab)
		assert.Empty(t, preview.Charts, tab)
	}

	preview := BuildPreview(theme, TabChartColors)
	require.Len(t, preview.Charts, 3)
	types := []ChartType{preview.Charts[0].Type, preview.Charts[1].Type, preview.Charts[2].Type}
	assert.Equal(t, []ChartType{ChartPie, ChartBar, ChartKPI}, types)
}

func TestBuildPreviewIsPure(t *testing.T) {
	theme := StyleTheme{Name: "Legacy", ColorScheme: ColorScheme{Primary: "#010101"}}
	preview := BuildPreview(theme, "bogus")
	assert.Equal(t, TabGeneral, preview.Tab)
	require.NotNil(t, preview.Theme.ChartColors)
	assert.Nil(t, theme.ChartColors)
}

func TestBuildPreviewCSS(t *testing.T) {
	theme := BuiltinStyle()
	theme.ContentBox = ContentBox{SolidColor: "#ffffff", Opacity: 0.5}
	preview := BuildPreview(theme, TabBackgrounds)
	assert.Equal(t, "linear-gradient(135deg, #667eea 0%, #764ba2 100%)", preview.PageCSS)
	assert.Equal(t, "background: #ffffff; opacity: 0.5;", preview.ContentCSS)
}

func TestPreviewRendererPassesChartMarkup(t *testing.T) {
	templates := &captureRenderer{}
	renderer := NewPreviewRenderer(templates, NewChartRenderer(WithChartCache(nil)))

	out, err := renderer.Render(BuiltinStyle(), TabChartColors)
	require.NoError(t, err)
	assert.Equal(t, "<section>style_preview.html</section>", out)
	assert.Equal(t, "style_preview.html", templates.name)

	data, ok := templates.data.(map[string]any)
	require.True(t, ok)
	charts, ok := data["charts"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, charts, 3)
	assert.NotEmpty(t, charts[0]["chart_html"])
	assert.Empty(t, charts[2]["chart_html"])
	assert.Equal(t, "chartColors", data["tab"])
}

func TestPreviewRendererRequiresTemplates(t *testing.T) {
	_, err := NewPreviewRenderer(nil, nil).Render(BuiltinStyle(), TabGeneral)
	assert.Error(t, err)
}
