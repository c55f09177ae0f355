package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Background keys accepted by ToggleBackgroundType.
const (
	PageBackgroundKey = "pageBackground"
	HeroBackgroundKey = "heroBackground"
)

const (
	defaultGradientAngle = 135
	gradientEndColor     = "#000000"
)

// UpdateField returns a copy of theme with the value at the dot separated
// path replaced. Every level along the path is copied and siblings are kept;
// the input theme is never modified. Slice elements are addressed by index,
// for example "pageBackground.gradientStops.1.color".
func UpdateField(theme StyleTheme, path string, value any) (StyleTheme, error) {
	segments := strings.Split(strings.TrimSpace(path), ".")
	if len(segments) == 0 || segments[0] == "" {
		return theme, Invalid("path", "path is required")
	}
	for _, seg := range segments {
		if seg == "" {
			return theme, Invalid("path", fmt.Sprintf("path %q has an empty segment", path))
		}
	}
	if segments[0] == "id" || segments[0] == "createdAt" || segments[0] == "updatedAt" {
		return theme, Invalid("path", fmt.Sprintf("%s is read-only", segments[0]))
	}

	var tree map[string]any
	raw, err := json.Marshal(theme)
	if err != nil {
		return theme, fmt.Errorf("admin: encode theme: %w", err)
	}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return theme, fmt.Errorf("admin: decode theme: %w", err)
	}

	updated, err := setPath(tree, segments, value)
	if err != nil {
		return theme, Invalid("path", fmt.Sprintf("%s: %v", path, err))
	}

	raw, err = json.Marshal(updated)
	if err != nil {
		return theme, Invalid("value", fmt.Sprintf("%s: %v", path, err))
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	var out StyleTheme
	if err := decoder.Decode(&out); err != nil {
		return theme, Invalid("path", fmt.Sprintf("%s: %v", path, err))
	}
	return out, nil
}

func setPath(node any, segments []string, value any) (any, error) {
	if len(segments) == 0 {
		return value, nil
	}
	head, rest := segments[0], segments[1:]
	switch current := node.(type) {
	case map[string]any:
		next := maps.Clone(current)
		child, ok := current[head]
		if !ok && len(rest) > 0 {
			child = map[string]any{}
		}
		replaced, err := setPath(child, rest, value)
		if err != nil {
			return nil, err
		}
		next[head] = replaced
		return next, nil
	case []any:
		idx, err := strconv.Atoi(head)
		if err != nil || idx < 0 || idx >= len(current) {
			return nil, fmt.Errorf("index %q out of range", head)
		}
		next := append([]any(nil), current...)
		replaced, err := setPath(current[idx], rest, value)
		if err != nil {
			return nil, err
		}
		next[idx] = replaced
		return next, nil
	case nil:
		if len(rest) == 0 {
			return map[string]any{head: value}, nil
		}
		replaced, err := setPath(map[string]any{}, rest, value)
		if err != nil {
			return nil, err
		}
		return map[string]any{head: replaced}, nil
	default:
		return nil, fmt.Errorf("cannot descend into %T at %q", node, head)
	}
}

// ToggleBackgroundType flips the named background between solid and
// gradient. solid to gradient seeds two stops: the current solid color at 0
// and black at 100. gradient to solid keeps the first stop's color.
func ToggleBackgroundType(theme StyleTheme, key string) (StyleTheme, error) {
	var current Background
	switch key {
	case PageBackgroundKey:
		current = theme.PageBackground
	case HeroBackgroundKey:
		current = theme.HeroBackground
	default:
		return theme, Invalid("key", fmt.Sprintf("unknown background %q", key))
	}

	var next Background
	if current.Type == BackgroundGradient {
		next = Background{Type: BackgroundSolid, SolidColor: current.SolidColor}
		if len(current.GradientStops) > 0 {
			next.SolidColor = current.GradientStops[0].Color
		}
	} else {
		angle := current.GradientAngle
		if angle == 0 {
			angle = defaultGradientAngle
		}
		next = Background{
			Type:          BackgroundGradient,
			SolidColor:    current.SolidColor,
			GradientAngle: angle,
			GradientStops: []GradientStop{
				{Color: current.SolidColor, Position: 0},
				{Color: gradientEndColor, Position: 100},
			},
		}
	}

	out := theme
	if key == PageBackgroundKey {
		out.PageBackground = next
	} else {
		out.HeroBackground = next
	}
	return out, nil
}

// Validate checks that the theme can be saved. Only the name is required;
// color fields accept free text such as rgba() values.
func (s StyleTheme) Validate() error {
	name := strings.TrimSpace(s.Name)
	err := validation.Errors{
		"name": validation.Validate(name, validation.Required.Error("style name is required")),
	}.Filter()
	return validationError(err, "invalid style")
}
