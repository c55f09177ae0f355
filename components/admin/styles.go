package admin

import (
	"strconv"
	"strings"
	"time"
)

// BackgroundType selects between a flat color and a linear gradient.
type BackgroundType string

const (
	BackgroundSolid    BackgroundType = "solid"
	BackgroundGradient BackgroundType = "gradient"
)

// GradientStop is one color stop; Position is a percentage in [0,100].
type GradientStop struct {
	Color    string `json:"color"`
	Position int    `json:"position"`
}

// Background is a page or hero background.
type Background struct {
	Type          BackgroundType `json:"type"`
	SolidColor    string         `json:"solidColor,omitempty"`
	GradientAngle int            `json:"gradientAngle,omitempty"`
	GradientStops []GradientStop `json:"gradientStops,omitempty"`
}

// CSS renders the background as a CSS value.
func (b Background) CSS() string {
	if b.Type != BackgroundGradient || len(b.GradientStops) == 0 {
		return b.SolidColor
	}
	parts := make([]string, 0, len(b.GradientStops))
	for _, stop := range b.GradientStops {
		parts = append(parts, stop.Color+" "+strconv.Itoa(stop.Position)+"%")
	}
	return "linear-gradient(" + strconv.Itoa(b.GradientAngle) + "deg, " + strings.Join(parts, ", ") + ")"
}

// ContentBox is the card background drawn over the page background.
type ContentBox struct {
	SolidColor string  `json:"solidColor"`
	Opacity    float64 `json:"opacity"`
}

// Typography holds font and text colors.
type Typography struct {
	FontFamily         string `json:"fontFamily"`
	PrimaryTextColor   string `json:"primaryTextColor"`
	SecondaryTextColor string `json:"secondaryTextColor"`
	HeadingColor       string `json:"headingColor"`
}

// ColorScheme is the semantic palette.
type ColorScheme struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Success   string `json:"success"`
	Warning   string `json:"warning"`
	Error     string `json:"error"`
}

// ChartColors is the palette applied to chart chrome and series.
type ChartColors struct {
	ChartBackground   string `json:"chartBackground"`
	ChartBorder       string `json:"chartBorder"`
	ChartTitleColor   string `json:"chartTitleColor"`
	ChartLabelColor   string `json:"chartLabelColor"`
	ChartValueColor   string `json:"chartValueColor"`
	KPIIconColor      string `json:"kpiIconColor"`
	BarColor1         string `json:"barColor1"`
	BarColor2         string `json:"barColor2"`
	BarColor3         string `json:"barColor3"`
	BarColor4         string `json:"barColor4"`
	BarColor5         string `json:"barColor5"`
	PieColor1         string `json:"pieColor1"`
	PieColor2         string `json:"pieColor2"`
	PieBorderColor    string `json:"pieBorderColor"`
	TooltipBackground string `json:"tooltipBackground"`
	TooltipText       string `json:"tooltipText"`
	ExportButtonColor string `json:"exportButtonColor"`
	ExportButtonHover string `json:"exportButtonHover"`
}

// BarPalette returns the five bar series colors.
func (c ChartColors) BarPalette() []string {
	return []string{c.BarColor1, c.BarColor2, c.BarColor3, c.BarColor4, c.BarColor5}
}

// PiePalette returns the two pie slice colors.
func (c ChartColors) PiePalette() []string {
	return []string{c.PieColor1, c.PieColor2}
}

// StyleTheme is a complete page styling configuration.
type StyleTheme struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	PageBackground Background   `json:"pageBackground"`
	HeroBackground Background   `json:"heroBackground"`
	ContentBox     ContentBox   `json:"contentBoxBackground"`
	Typography     Typography   `json:"typography"`
	ColorScheme    ColorScheme  `json:"colorScheme"`
	ChartColors    *ChartColors `json:"chartColors,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// StyleSortFields lists the explicit sort fields styles accept.
var StyleSortFields = []string{"name", "createdAt", "updatedAt"}

func (s StyleTheme) EntityID() string   { return s.ID }
func (s StyleTheme) SearchText() string { return s.Name + " " + s.Description }

func (s StyleTheme) SortKey(field string) (string, bool) {
	switch field {
	case "name":
		return strings.ToLower(s.Name), true
	case "createdAt":
		return timeKey(s.CreatedAt), true
	case "updatedAt":
		return timeKey(s.UpdatedAt), true
	}
	return "", false
}

func (s StyleTheme) CursorKey() string { return timeKey(s.CreatedAt) + "|" + s.ID }

// DeriveChartColors backfills ChartColors from ColorScheme when absent and
// fills any empty palette entry from the scheme. The returned theme always
// carries a non-nil ChartColors.
func DeriveChartColors(theme StyleTheme) StyleTheme {
	scheme := theme.ColorScheme
	derived := ChartColors{
		ChartBackground:   "#ffffff",
		ChartBorder:       "#f3f4f6",
		ChartTitleColor:   firstNonEmpty(theme.Typography.HeadingColor, scheme.Primary),
		ChartLabelColor:   firstNonEmpty(theme.Typography.SecondaryTextColor, "#6b7280"),
		ChartValueColor:   firstNonEmpty(theme.Typography.PrimaryTextColor, "#1f2937"),
		KPIIconColor:      scheme.Primary,
		BarColor1:         scheme.Primary,
		BarColor2:         scheme.Secondary,
		BarColor3:         scheme.Success,
		BarColor4:         scheme.Warning,
		BarColor5:         scheme.Error,
		PieColor1:         scheme.Primary,
		PieColor2:         scheme.Secondary,
		PieBorderColor:    "rgba(255, 255, 255, 0.5)",
		TooltipBackground: "rgba(0, 0, 0, 0.8)",
		TooltipText:       "#ffffff",
		ExportButtonColor: scheme.Primary,
		ExportButtonHover: scheme.Secondary,
	}
	if theme.ChartColors == nil {
		theme.ChartColors = &derived
		return theme
	}
	merged := *theme.ChartColors
	fillEmpty(&merged.ChartBackground, derived.ChartBackground)
	fillEmpty(&merged.ChartBorder, derived.ChartBorder)
	fillEmpty(&merged.ChartTitleColor, derived.ChartTitleColor)
	fillEmpty(&merged.ChartLabelColor, derived.ChartLabelColor)
	fillEmpty(&merged.ChartValueColor, derived.ChartValueColor)
	fillEmpty(&merged.KPIIconColor, derived.KPIIconColor)
	fillEmpty(&merged.BarColor1, derived.BarColor1)
	fillEmpty(&merged.BarColor2, derived.BarColor2)
	fillEmpty(&merged.BarColor3, derived.BarColor3)
	fillEmpty(&merged.BarColor4, derived.BarColor4)
	fillEmpty(&merged.BarColor5, derived.BarColor5)
	fillEmpty(&merged.PieColor1, derived.PieColor1)
	fillEmpty(&merged.PieColor2, derived.PieColor2)
	fillEmpty(&merged.PieBorderColor, derived.PieBorderColor)
	fillEmpty(&merged.TooltipBackground, derived.TooltipBackground)
	fillEmpty(&merged.TooltipText, derived.TooltipText)
	fillEmpty(&merged.ExportButtonColor, derived.ExportButtonColor)
	fillEmpty(&merged.ExportButtonHover, derived.ExportButtonHover)
	theme.ChartColors = &merged
	return theme
}

// BuiltinStyle is the fallback theme used when nothing else resolves.
func BuiltinStyle() StyleTheme {
	return DeriveChartColors(StyleTheme{
		ID:          BuiltinStyleID,
		Name:        "MessMass Default",
		Description: "Built-in fallback theme",
		PageBackground: Background{
			Type:          BackgroundGradient,
			GradientAngle: 135,
			GradientStops: []GradientStop{{Color: "#667eea", Position: 0}, {Color: "#764ba2", Position: 100}},
		},
		HeroBackground: Background{
			Type:          BackgroundGradient,
			GradientAngle: 135,
			GradientStops: []GradientStop{{Color: "#667eea", Position: 0}, {Color: "#764ba2", Position: 100}},
		},
		ContentBox: ContentBox{SolidColor: "#ffffff", Opacity: 0.95},
		Typography: Typography{
			FontFamily:         "Inter, system-ui, sans-serif",
			PrimaryTextColor:   "#1f2937",
			SecondaryTextColor: "#6b7280",
			HeadingColor:       "#111827",
		},
		ColorScheme: ColorScheme{
			Primary:   "#3b82f6",
			Secondary: "#10b981",
			Success:   "#22c55e",
			Warning:   "#f59e0b",
			Error:     "#ef4444",
		},
	})
}

// BuiltinStyleID identifies the built-in fallback theme.
const BuiltinStyleID = "builtin"

func fillEmpty(dst *string, fallback string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = fallback
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
