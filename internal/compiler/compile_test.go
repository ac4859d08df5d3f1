package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftengine/rules/internal/agenda"
	"github.com/weftengine/rules/internal/network"
	"github.com/weftengine/rules/internal/store"
	"github.com/weftengine/rules/internal/types"
)

func newTestRuntime() (*store.Store, *network.Runtime) {
	st := store.New(types.CrossKind, nil)
	ag := agenda.New()
	rt := network.NewRuntime(st, types.CrossKind, network.OrderInsertion, ag)
	return st, rt
}

func TestCompileSharesIdenticalAlphaNodes(t *testing.T) {
	st, rt := newTestRuntime()

	cond := types.Condition{Type: types.ConditionSimple, Field: "status", Operator: types.OpEqual, Value: types.String("open")}
	rules := []*types.Rule{
		{ID: "r1", Enabled: true, Conditions: []types.Condition{cond}, Actions: []types.Action{{Type: types.ActionLog, Message: "a"}}},
		{ID: "r2", Enabled: true, Conditions: []types.Condition{cond}, Actions: []types.Action{{Type: types.ActionLog, Message: "b"}}},
	}

	_, report, err := Compile(rules, st, rt, CompileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, report.AlphaNodeCount)
	assert.Equal(t, 1, report.SharedAlphaNodeCount)
	assert.Equal(t, 2, report.TerminalNodeCount)
}

func TestCompileSkipsDisabledRules(t *testing.T) {
	st, rt := newTestRuntime()
	rules := []*types.Rule{
		{ID: "r1", Enabled: false, Conditions: []types.Condition{{Type: types.ConditionSimple, Field: "a", Operator: types.OpEqual, Value: types.Int(1)}}},
	}
	_, report, err := Compile(rules, st, rt, CompileOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.TerminalNodeCount)
}

func TestCompileRejectsUnknownOperator(t *testing.T) {
	st, rt := newTestRuntime()
	rules := []*types.Rule{
		{ID: "r1", Enabled: true, Conditions: []types.Condition{{Type: types.ConditionSimple, Field: "a", Operator: "~~", Value: types.Int(1)}}},
	}
	_, _, err := Compile(rules, st, rt, CompileOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidRule)
}

func TestCompileRejectsNotWithoutExactlyOneSub(t *testing.T) {
	st, rt := newTestRuntime()
	rules := []*types.Rule{
		{ID: "r1", Enabled: true, Conditions: []types.Condition{
			{Type: types.ConditionComplex, Logical: types.LogicalNot, Sub: nil},
		}},
	}
	_, _, err := Compile(rules, st, rt, CompileOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidRule)
}

func TestCompileRejectsZeroConditionRule(t *testing.T) {
	st, rt := newTestRuntime()
	rules := []*types.Rule{
		{ID: "r1", Enabled: true, Actions: []types.Action{{Type: types.ActionLog, Message: "a"}}},
	}
	_, _, err := Compile(rules, st, rt, CompileOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidRule)
}

func TestCompileUncorrelatedNotBuildsNotNode(t *testing.T) {
	st, rt := newTestRuntime()
	rule := &types.Rule{
		ID:      "r1",
		Enabled: true,
		Conditions: []types.Condition{
			{Type: types.ConditionSimple, Field: "kind", Operator: types.OpEqual, Value: types.String("order")},
			{
				Type:    types.ConditionComplex,
				Logical: types.LogicalNot,
				Sub: []types.Condition{
					{Type: types.ConditionSimple, Field: "kind", Operator: types.OpEqual, Value: types.String("cancellation")},
				},
			},
		},
		Actions: []types.Action{{Type: types.ActionLog, Message: "no cancellation seen"}},
	}

	_, report, err := Compile([]*types.Rule{rule}, st, rt, CompileOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.NotNodeCount)
	assert.Equal(t, 1, report.TerminalNodeCount)
}
