package admin

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

const formulaMaxSteps = 10_000

var referencePattern = regexp.MustCompile(`\[([A-Za-z][A-Za-z0-9_]*)\]`)

// FormulaReferences returns the distinct variable names a formula refers to,
// in order of first appearance. References are written as [name].
func FormulaReferences(formula string) []string {
	matches := referencePattern.FindAllStringSubmatch(formula, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

// FormulaEvaluator evaluates arithmetic formulas with Starlark.
type FormulaEvaluator struct {
	MaxSteps uint64
}

// Evaluate computes formula against values. Missing references read as zero
// and division by zero yields zero.
func (e FormulaEvaluator) Evaluate(formula string, values map[string]float64) (float64, error) {
	formula = strings.TrimSpace(formula)
	if formula == "" {
		return 0, Invalid("formula", "formula is empty")
	}
	env := starlark.StringDict{}
	for _, name := range FormulaReferences(formula) {
		env[formulaIdent(name)] = starlark.Float(values[name])
	}
	expr := referencePattern.ReplaceAllStringFunc(formula, func(ref string) string {
		return formulaIdent(ref[1 : len(ref)-1])
	})

	steps := e.MaxSteps
	if steps == 0 {
		steps = formulaMaxSteps
	}
	thread := &starlark.Thread{Name: "formula"}
	thread.SetMaxExecutionSteps(steps)

	value, err := starlark.EvalOptions(&syntax.FileOptions{}, thread, "formula", expr, env)
	if err != nil {
		if strings.Contains(err.Error(), "division by zero") {
			return 0, nil
		}
		return 0, Invalid("formula", fmt.Sprintf("cannot evaluate %q: %v", formula, err))
	}
	result, ok := starlark.AsFloat(value)
	if !ok {
		return 0, Invalid("formula", fmt.Sprintf("formula %q does not produce a number", formula))
	}
	return result, nil
}

// ValidateFormula checks that every reference in formula names a known,
// non-text variable other than self, and that the expression parses.
func ValidateFormula(formula, self string, registry map[string]VariableDefinition) error {
	refs := FormulaReferences(formula)
	if len(refs) == 0 {
		return Invalid("formula", "formula must reference at least one variable")
	}
	for _, ref := range refs {
		if ref == self {
			return Invalid("formula", fmt.Sprintf("formula cannot reference %s itself", self))
		}
		def, ok := registry[ref]
		if !ok {
			return Invalid("formula", fmt.Sprintf("unknown variable [%s]", ref))
		}
		if def.Type == TypeText {
			return Invalid("formula", fmt.Sprintf("text variable [%s] cannot be used in a formula", ref))
		}
	}
	_, err := FormulaEvaluator{}.Evaluate(formula, map[string]float64{})
	return err
}

// ComputeDerived evaluates every derived variable against stats, resolving
// derived-on-derived references. Cycles are reported as errors.
func ComputeDerived(defs []VariableDefinition, stats map[string]any) (map[string]float64, error) {
	base := NumericStats(stats)
	byName := make(map[string]VariableDefinition, len(defs))
	for _, def := range defs {
		byName[def.Name] = def
	}
	out := make(map[string]float64)
	visiting := make(map[string]bool)
	evaluator := FormulaEvaluator{}

	var resolve func(name string) (float64, error)
	resolve = func(name string) (float64, error) {
		def, ok := byName[name]
		if !ok || !def.Derived {
			return base[name], nil
		}
		if value, ok := out[name]; ok {
			return value, nil
		}
		if visiting[name] {
			return 0, Invalid("formula", fmt.Sprintf("circular reference through [%s]", name))
		}
		visiting[name] = true
		defer delete(visiting, name)

		values := make(map[string]float64)
		for _, ref := range FormulaReferences(def.Formula) {
			value, err := resolve(ref)
			if err != nil {
				return 0, err
			}
			values[ref] = value
		}
		value, err := evaluator.Evaluate(def.Formula, values)
		if err != nil {
			return 0, err
		}
		out[name] = value
		return value, nil
	}

	for _, def := range defs {
		if !def.Derived {
			continue
		}
		if _, err := resolve(def.Name); err != nil {
			return nil, fmt.Errorf("admin: compute %s: %w", def.Name, err)
		}
	}
	return out, nil
}

// NumericStats extracts the numeric values of a stats map. Numeric strings
// are parsed; everything else is skipped.
func NumericStats(stats map[string]any) map[string]float64 {
	out := make(map[string]float64, len(stats))
	for key, raw := range stats {
		if v, ok := statNumber(raw); ok {
			out[key] = v
			continue
		}
		if v, ok := raw.(string); ok {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				out[key] = f
			}
		}
	}
	return out
}

func statNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func formulaIdent(name string) string {
	return "_v_" + name
}
