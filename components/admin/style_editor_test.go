package admin

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateFieldKeepsSiblings(t *testing.T) {
	theme := BuiltinStyle()
	theme.ID = "s1"

	updated, err := UpdateField(theme, "typography.headingColor", "#ff0000")
	require.NoError(t, err)

	assert.Equal(t, "#ff0000", updated.Typography.HeadingColor)
	assert.Equal(t, "#111827", theme.Typography.HeadingColor, "input must not be modified")

	want := theme
	want.Typography.HeadingColor = "#ff0000"
	if diff := cmp.Diff(want, updated); diff != "" {
		t.Fatalf("unexpected changes (-want +got):\n%s", diff)
	}
}

func TestUpdateFieldAddressesSliceElements(t *testing.T) {
	theme := BuiltinStyle()

	updated, err := UpdateField(theme, "pageBackground.gradientStops.1.color", "#123456")
	require.NoError(t, err)
	assert.Equal(t, "#123456", updated.PageBackground.GradientStops[1].Color)
	assert.Equal(t, "#764ba2", theme.PageBackground.GradientStops[1].Color)
	assert.Equal(t, "#667eea", updated.PageBackground.GradientStops[0].Color)
}

func TestUpdateFieldCreatesChartColorsWhenAbsent(t *testing.T) {
	theme := StyleTheme{Name: "Bare"}

	updated, err := UpdateField(theme, "chartColors.barColor1", "#abcdef")
	require.NoError(t, err)
	require.NotNil(t, updated.ChartColors)
	assert.Equal(t, "#abcdef", updated.ChartColors.BarColor1)
	assert.Nil(t, theme.ChartColors)
}

func TestUpdateFieldRejectsBadPaths(t *testing.T) {
	theme := BuiltinStyle()
	for _, path := range []string{"", "typography..x", "id", "typography.nope", "pageBackground.gradientStops.9.color", "name.inner"} {
		_, err := UpdateField(theme, path, "x")
		require.Error(t, err, path)
		assert.True(t, goerrors.IsValidation(err), path)
	}
}

func TestUpdateFieldRejectsWrongValueType(t *testing.T) {
	_, err := UpdateField(BuiltinStyle(), "contentBoxBackground.opacity", "opaque")
	assert.Error(t, err)
}

func TestToggleSolidToGradient(t *testing.T) {
	theme := StyleTheme{
		Name:           "Flat",
		PageBackground: Background{Type: BackgroundSolid, SolidColor: "#112233"},
	}

	toggled, err := ToggleBackgroundType(theme, PageBackgroundKey)
	require.NoError(t, err)
	bg := toggled.PageBackground
	assert.Equal(t, BackgroundGradient, bg.Type)
	assert.Equal(t, 135, bg.GradientAngle)
	assert.Equal(t, []GradientStop{{Color: "#112233", Position: 0}, {Color: "#000000", Position: 100}}, bg.GradientStops)
	assert.Equal(t, BackgroundSolid, theme.PageBackground.Type)

	back, err := ToggleBackgroundType(toggled, PageBackgroundKey)
	require.NoError(t, err)
	assert.Equal(t, BackgroundSolid, back.PageBackground.Type)
	assert.Equal(t, "#112233", back.PageBackground.SolidColor)
}

func TestToggleGradientKeepsExistingAngle(t *testing.T) {
	theme := StyleTheme{HeroBackground: Background{Type: BackgroundSolid, SolidColor: "#fff", GradientAngle: 45}}
	toggled, err := ToggleBackgroundType(theme, HeroBackgroundKey)
	require.NoError(t, err)
	assert.Equal(t, 45, toggled.HeroBackground.GradientAngle)

	_, err = ToggleBackgroundType(theme, "footerBackground")
	assert.Error(t, err)
}

func TestDeriveChartColorsBackfillsLegacyThemes(t *testing.T) {
	legacy := []byte(`{"id":"old","name":"Legacy","colorScheme":{"primary":"#111111","secondary":"#222222","success":"#333333","warning":"#444444","error":"#555555"}}`)
	var theme StyleTheme
	require.NoError(t, json.Unmarshal(legacy, &theme))
	require.Nil(t, theme.ChartColors)

	derived := DeriveChartColors(theme)
	require.NotNil(t, derived.ChartColors)
	assert.Equal(t, []string{"#111111", "#222222", "#333333", "#444444", "#555555"}, derived.ChartColors.BarPalette())
	assert.Equal(t, []string{"#111111", "#222222"}, derived.ChartColors.PiePalette())

	partial := theme
	partial.ChartColors = &ChartColors{BarColor1: "#abcdef"}
	merged := DeriveChartColors(partial)
	assert.Equal(t, "#abcdef", merged.ChartColors.BarColor1)
	assert.Equal(t, "#222222", merged.ChartColors.BarColor2)
	assert.Equal(t, "#abcdef", partial.ChartColors.BarColor1)
	assert.Empty(t, partial.ChartColors.BarColor2, "input palette must not be modified")
}

func TestBackgroundCSS(t *testing.T) {
	assert.Equal(t, "#fff", Background{Type: BackgroundSolid, SolidColor: "#fff"}.CSS())
	gradient := Background{Type: BackgroundGradient, GradientAngle: 90, GradientStops: []GradientStop{{Color: "#000", Position: 0}, {Color: "#fff", Position: 100}}}
	assert.Equal(t, "linear-gradient(90deg, #000 0%, #fff 100%)", gradient.CSS())
}
