package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftengine/rules/internal/calc"
	"github.com/weftengine/rules/internal/store"
	"github.com/weftengine/rules/internal/types"
)

func newTestExecutor(t *testing.T) (*Executor, *store.Store) {
	t.Helper()
	st := store.New(types.CrossKind, nil)
	reg := calc.NewRegistry()
	cache, err := calc.NewCache(reg, 64)
	require.NoError(t, err)
	return New(st, nil, cache, types.CrossKind), st
}

func TestFireSetFieldCommitsToStore(t *testing.T) {
	ex, st := newTestExecutor(t)
	id, err := st.Insert(map[string]types.FactValue{"status": types.String("open")}, "")
	require.NoError(t, err)

	rule := &types.Rule{ID: "r1", Actions: []types.Action{
		{Type: types.ActionSetField, Field: "status", Value: types.String("closed")},
	}}

	result := ex.Fire(rule, &types.Token{FactID: id})
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, types.String("closed"), result.Outcomes[0].FieldWrites["status"])

	// the original fact id is retracted and replaced (retract-then-reassert)
	_, ok := st.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 1, st.Len())
}

func TestFireCallCalculatorWritesOutputField(t *testing.T) {
	ex, st := newTestExecutor(t)
	id, err := st.Insert(map[string]types.FactValue{"a": types.Float(2), "b": types.Float(3)}, "")
	require.NoError(t, err)

	rule := &types.Rule{ID: "r1", Actions: []types.Action{
		{
			Type:             types.ActionCallCalc,
			CalculatorName:   "add",
			CalculatorInputs: map[string]string{"a": "a", "b": "b"},
			CalculatorOutput: "sum",
		},
	}}

	result := ex.Fire(rule, &types.Token{FactID: id})
	require.Len(t, result.Outcomes, 1)
	require.NotNil(t, result.Outcomes[0].Calculator)
	f, _ := result.Outcomes[0].Calculator.Value.AsFloat()
	assert.Equal(t, 5.0, f)
}

func TestFireCallCalculatorErrorIsRecorded(t *testing.T) {
	ex, st := newTestExecutor(t)
	id, err := st.Insert(map[string]types.FactValue{}, "")
	require.NoError(t, err)

	rule := &types.Rule{ID: "r1", Actions: []types.Action{
		{Type: types.ActionCallCalc, CalculatorName: "add", CalculatorInputs: map[string]string{}, CalculatorOutput: "sum"},
	}}

	result := ex.Fire(rule, &types.Token{FactID: id})
	require.NotNil(t, result.Outcomes[0].Err)
	assert.Equal(t, types.ErrCodeMissingRequiredField, result.Outcomes[0].Err.Code)
}

func TestFireCreateFactInsertsNewFact(t *testing.T) {
	ex, st := newTestExecutor(t)
	id, err := st.Insert(map[string]types.FactValue{"amount": types.Float(100)}, "")
	require.NoError(t, err)

	rule := &types.Rule{ID: "r1", Actions: []types.Action{
		{
			Type: types.ActionCreateFact,
			NewFactFields: map[string]types.ActionFieldValue{
				"kind":   {Literal: types.String("derived")},
				"amount": {Ref: "amount"},
			},
		},
	}}

	result := ex.Fire(rule, &types.Token{FactID: id})
	created := result.Outcomes[0].CreatedFactID
	require.NotZero(t, created)

	f, ok := st.Get(created)
	require.True(t, ok)
	kind, _ := f.Get("kind")
	assert.Equal(t, types.String("derived"), kind)
}

func TestFireSequentialActionsSeeEachOthersWrites(t *testing.T) {
	ex, st := newTestExecutor(t)
	id, err := st.Insert(map[string]types.FactValue{}, "")
	require.NoError(t, err)

	rule := &types.Rule{ID: "r1", Actions: []types.Action{
		{Type: types.ActionSetField, Field: "x", Value: types.Float(10)},
		{Type: types.ActionSetField, Field: "y", Ref: "x"},
	}}

	result := ex.Fire(rule, &types.Token{FactID: id})
	assert.Equal(t, types.Float(10), result.Outcomes[1].FieldWrites["y"])
}
