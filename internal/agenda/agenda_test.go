package agenda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftengine/rules/internal/types"
)

func tok(id types.TokenID, factID types.FactID) *types.Token {
	return &types.Token{ID: id, Parent: &types.Token{}, FactID: factID}
}

func TestPopNextOrdersByPriority(t *testing.T) {
	a := New()

	low := &types.Rule{ID: "low", Priority: 1, Conditions: []types.Condition{{}}}
	high := &types.Rule{ID: "high", Priority: 5, Conditions: []types.Condition{{}}}

	a.Add(low, tok(1, 1))
	a.Add(high, tok(2, 1))

	f := a.PopNext()
	require.NotNil(t, f)
	assert.Equal(t, high.ID, f.Rule.ID)

	f = a.PopNext()
	require.NotNil(t, f)
	assert.Equal(t, low.ID, f.Rule.ID)

	assert.Nil(t, a.PopNext())
}

func TestAddIsIdempotentOnTokenID(t *testing.T) {
	a := New()
	rule := &types.Rule{ID: "r1"}
	token := tok(1, 1)

	a.Add(rule, token)
	a.Add(rule, token)
	assert.Equal(t, 1, a.Len())
}

func TestRemoveCancelsPendingFiring(t *testing.T) {
	a := New()
	rule := &types.Rule{ID: "r1"}
	token := tok(1, 1)

	a.Add(rule, token)
	a.Remove(token)
	assert.Equal(t, 0, a.Len())
	assert.Nil(t, a.PopNext())
}

func TestRanksBreaksTiesByRuleID(t *testing.T) {
	a := New()
	ruleB := &types.Rule{ID: "b", Conditions: []types.Condition{{}}}
	ruleA := &types.Rule{ID: "a", Conditions: []types.Condition{{}}}

	a.Add(ruleB, tok(1, 1))
	a.Add(ruleA, tok(2, 1))

	f := a.PopNext()
	require.NotNil(t, f)
	assert.Equal(t, ruleA.ID, f.Rule.ID)
}

func TestDrainReturnsAllInOrder(t *testing.T) {
	a := New()
	r1 := &types.Rule{ID: "r1", Priority: 1}
	r2 := &types.Rule{ID: "r2", Priority: 2}
	a.Add(r1, tok(1, 1))
	a.Add(r2, tok(2, 1))

	all := a.Drain()
	require.Len(t, all, 2)
	assert.Equal(t, r2.ID, all[0].Rule.ID)
	assert.Equal(t, 0, a.Len())
}
