package admin

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormulaReferencesDeduplicates(t *testing.T) {
	refs := FormulaReferences("[a] + [b] * [a] - [c_1]")
	assert.Equal(t, []string{"a", "b", "c_1"}, refs)
}

func TestFormulaEvaluatorArithmetic(t *testing.T) {
	value, err := FormulaEvaluator{}.Evaluate("([female] + [male]) / 2", map[string]float64{"female": 30, "male": 10})
	require.NoError(t, err)
	assert.InDelta(t, 20.0, value, 1e-9)
}

func TestFormulaEvaluatorMissingReferenceIsZero(t *testing.T) {
	value, err := FormulaEvaluator{}.Evaluate("[a] + [missing]", map[string]float64{"a": 4})
	require.NoError(t, err)
	assert.InDelta(t, 4.0, value, 1e-9)
}

func TestFormulaEvaluatorDivisionByZeroIsZero(t *testing.T) {
	value, err := FormulaEvaluator{}.Evaluate("[a] / [b]", map[string]float64{"a": 4})
	require.NoError(t, err)
	assert.Zero(t, value)
}

func TestFormulaEvaluatorRejectsNonArithmetic(t *testing.T) {
	_, err := FormulaEvaluator{}.Evaluate("[a] +", map[string]float64{"a": 1})
	require.Error(t, err)
	assert.True(t, goerrors.IsValidation(err))
}

func TestValidateFormula(t *testing.T) {
	registry := map[string]VariableDefinition{
		"a":    {Name: "a", Type: TypeCount},
		"b":    {Name: "b", Type: TypeCount},
		"name": {Name: "name", Type: TypeText},
	}
	assert.NoError(t, ValidateFormula("[a] + [b]", "sum", registry))
	assert.Error(t, ValidateFormula("[a] + [zzz]", "sum", registry))
	assert.Error(t, ValidateFormula("[a] + [name]", "sum", registry))
	assert.Error(t, ValidateFormula("[sum] + [a]", "sum", registry))
	assert.Error(t, ValidateFormula("42", "sum", registry))
}

func TestComputeDerivedResolvesChains(t *testing.T) {
	defs := []VariableDefinition{
		{Name: "indoor", Type: TypeCount},
		{Name: "outdoor", Type: TypeCount},
		{Name: "totalFans", Type: TypeCount, Derived: true, Formula: "[indoor] + [outdoor]"},
		{Name: "doubleFans", Type: TypeCount, Derived: true, Formula: "[totalFans] * 2"},
	}
	values, err := ComputeDerived(defs, map[string]any{"indoor": 3, "outdoor": "7"})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, values["totalFans"], 1e-9)
	assert.InDelta(t, 20.0, values["doubleFans"], 1e-9)
}

func TestComputeDerivedDetectsCycles(t *testing.T) {
	defs := []VariableDefinition{
		{Name: "a", Type: TypeCount, Derived: true, Formula: "[b] + 1"},
		{Name: "b", Type: TypeCount, Derived: true, Formula: "[a] + 1"},
	}
	_, err := ComputeDerived(defs, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular")
}
