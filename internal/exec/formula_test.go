package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftengine/rules/internal/types"
)

func readFrom(fields map[string]types.FactValue) func(string) (types.FactValue, bool) {
	return func(field string) (types.FactValue, bool) {
		v, ok := fields[field]
		return v, ok
	}
}

func TestEvalFormulaArithmeticPrecedence(t *testing.T) {
	v, err := EvalFormula("2 + 3 * 4", readFrom(nil))
	require.NoError(t, err)
	f, _ := v.AsFloat()
	assert.Equal(t, 14.0, f)
}

func TestEvalFormulaParenthesesAndFieldRefs(t *testing.T) {
	fields := map[string]types.FactValue{"base": types.Float(10), "rate": types.Float(0.5)}
	v, err := EvalFormula("(base + 2) * rate", readFrom(fields))
	require.NoError(t, err)
	f, _ := v.AsFloat()
	assert.Equal(t, 6.0, f)
}

func TestEvalFormulaStringConcat(t *testing.T) {
	v, err := EvalFormula("'hello' + ' world'", readFrom(nil))
	require.NoError(t, err)
	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "hello world", s)
}

func TestEvalFormulaUnboundField(t *testing.T) {
	_, err := EvalFormula("missing + 1", readFrom(nil))
	require.Error(t, err)
}

func TestEvalFormulaDivisionByZero(t *testing.T) {
	_, err := EvalFormula("1 / 0", readFrom(nil))
	require.Error(t, err)
}

func TestEvalFormulaUnaryMinus(t *testing.T) {
	v, err := EvalFormula("-(2 + 3)", readFrom(nil))
	require.NoError(t, err)
	f, _ := v.AsFloat()
	assert.Equal(t, -5.0, f)
}

func TestEvalFormulaMultiplyOverflowYieldsCalculatorError(t *testing.T) {
	fields := map[string]types.FactValue{"a": types.Float(1e308), "b": types.Float(1e308)}
	_, err := EvalFormula("a * b", readFrom(fields))
	require.Error(t, err)
	var ce *types.CalculatorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.ErrCodeOverflow, ce.Code)
}

func TestEvalFormulaAddOverflowYieldsCalculatorError(t *testing.T) {
	fields := map[string]types.FactValue{"a": types.Float(1.7e308), "b": types.Float(1.7e308)}
	_, err := EvalFormula("a + b", readFrom(fields))
	require.Error(t, err)
	var ce *types.CalculatorError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, types.ErrCodeOverflow, ce.Code)
}
