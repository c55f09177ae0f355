package admin

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// VariableType classifies how a metric is entered and displayed.
type VariableType string

const (
	TypeNumeric    VariableType = "numeric"
	TypePercentage VariableType = "percentage"
	TypeCurrency   VariableType = "currency"
	TypeCount      VariableType = "count"
	TypeText       VariableType = "text"
)

// Flag names accepted by SetVariableFlag.
const (
	FlagVisibleInClicker = "visibleInClicker"
	FlagEditableInManual = "editableInManual"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// VariableFlags controls where a variable appears for data entry.
type VariableFlags struct {
	VisibleInClicker bool `json:"visibleInClicker" yaml:"visibleInClicker"`
	EditableInManual bool `json:"editableInManual" yaml:"editableInManual"`
}

// VariableDefinition is a registry entry describing one trackable metric.
type VariableDefinition struct {
	Name         string        `json:"name" yaml:"name"`
	Label        string        `json:"label" yaml:"label"`
	Type         VariableType  `json:"type" yaml:"type"`
	Category     string        `json:"category" yaml:"category"`
	Derived      bool          `json:"derived" yaml:"derived,omitempty"`
	Formula      string        `json:"formula,omitempty" yaml:"formula,omitempty"`
	Description  string        `json:"description,omitempty" yaml:"description,omitempty"`
	Flags        VariableFlags `json:"flags" yaml:"flags"`
	ClickerOrder *int          `json:"clickerOrder,omitempty" yaml:"clickerOrder,omitempty"`
	IsCustom     bool          `json:"isCustom" yaml:"isCustom,omitempty"`
	CreatedAt    time.Time     `json:"createdAt" yaml:"-"`
	UpdatedAt    time.Time     `json:"updatedAt" yaml:"-"`
}

// VariableSortFields lists the explicit sort fields variables accept.
var VariableSortFields = []string{"name", "label", "category", "type", "clickerOrder"}

func (v VariableDefinition) EntityID() string { return v.Name }

func (v VariableDefinition) SearchText() string {
	return v.Name + " " + v.Label + " " + v.Category
}

func (v VariableDefinition) SortKey(field string) (string, bool) {
	switch field {
	case "name":
		return strings.ToLower(v.Name), true
	case "label":
		return strings.ToLower(v.Label), true
	case "category":
		return strings.ToLower(v.Category), true
	case "type":
		return string(v.Type), true
	case "clickerOrder":
		if v.ClickerOrder == nil {
			return "~", true
		}
		return fmt.Sprintf("%010d", *v.ClickerOrder), true
	}
	return "", false
}

func (v VariableDefinition) CursorKey() string {
	return timeKey(v.CreatedAt) + "|" + v.Name
}

// FlagsLocked reports whether visibility flags are fixed. Derived and text
// variables never take clicker or manual input.
func (v VariableDefinition) FlagsLocked() bool {
	return v.Derived || v.Type == TypeText
}

// Reorderable reports whether the variable takes part in its category's
// clicker ordering.
func (v VariableDefinition) Reorderable() bool {
	return v.Flags.VisibleInClicker && !v.Derived && v.Type != TypeText
}

// Normalized enforces the derived-variable invariants: derived variables are
// never visible in the clicker nor editable manually, and only derived
// variables carry a formula.
func (v VariableDefinition) Normalized() VariableDefinition {
	v.Name = strings.TrimSpace(v.Name)
	v.Label = strings.TrimSpace(v.Label)
	v.Category = strings.TrimSpace(v.Category)
	v.Formula = strings.TrimSpace(v.Formula)
	if v.Label == "" {
		v.Label = v.Name
	}
	if v.Type == "" {
		v.Type = TypeCount
	}
	if v.Derived {
		v.Flags = VariableFlags{}
	} else {
		v.Formula = ""
	}
	if v.Type == TypeText {
		v.Flags = VariableFlags{}
	}
	return v
}

// Validate checks the definition shape.
func (v VariableDefinition) Validate() error {
	err := validation.ValidateStruct(&v,
		validation.Field(&v.Name, validation.Required, validation.Match(identifierPattern).Error("must be a letter followed by letters, digits or underscores")),
		validation.Field(&v.Label, validation.Required),
		validation.Field(&v.Type, validation.Required, validation.In(TypeNumeric, TypePercentage, TypeCurrency, TypeCount, TypeText)),
		validation.Field(&v.Category, validation.Required),
		validation.Field(&v.Formula, validation.When(v.Derived, validation.Required)),
	)
	return validationError(err, "invalid variable definition")
}

// VariablePatch is a partial update keyed by variable name. Nil fields are
// left untouched.
type VariablePatch struct {
	Name         string         `json:"name"`
	Label        *string        `json:"label,omitempty"`
	Category     *string        `json:"category,omitempty"`
	Description  *string        `json:"description,omitempty"`
	Formula      *string        `json:"formula,omitempty"`
	Flags        *VariableFlags `json:"flags,omitempty"`
	ClickerOrder *int           `json:"clickerOrder,omitempty"`
}
