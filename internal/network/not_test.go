package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftengine/rules/internal/types"
)

func TestNotNodePropagatesWhenNoMatchingRightFact(t *testing.T) {
	st, rt, ag := newTestRuntime()
	nw := New(rt)

	primaryAlpha := NewAlphaNode(1, "kind=order", func(f *types.Fact, p types.NumericEqualityPolicy) bool {
		v, ok := f.Get("kind")
		return ok && v.Equal(types.String("order"), p)
	})
	nw.AddAlpha(primaryAlpha, []string{"kind"})

	entry := NewJoinNode(2, JoinKey{}, nil)
	entry.SeedRoot(rt)
	primaryAlpha.AddSuccessor(entry)

	negatedAlpha := NewAlphaNode(3, "kind=cancellation", func(f *types.Fact, p types.NumericEqualityPolicy) bool {
		v, ok := f.Get("kind")
		return ok && v.Equal(types.String("cancellation"), p)
	})
	nw.AddAlpha(negatedAlpha, []string{"kind"})

	notNode := NewNotNode(4, JoinKey{}, nil)
	entry.AddSuccessor(notNode)
	negatedAlpha.AddSuccessor(notNode)

	rule := &types.Rule{ID: "r1"}
	term := NewTerminalNode(5, rule, ag)
	notNode.AddSuccessor(term)
	nw.AddTerminal(term)

	orderID, _ := st.Insert(map[string]types.FactValue{"kind": types.String("order")}, "")
	nw.AssertFact(orderID)
	assert.Equal(t, 1, ag.Len(), "no cancellation present, not-node should propagate")

	cancelID, _ := st.Insert(map[string]types.FactValue{"kind": types.String("cancellation")}, "")
	nw.AssertFact(cancelID)
	assert.Equal(t, 0, ag.Len(), "cancellation now present, not-node should retract")

	st.Retract(cancelID)
	nw.RetractFact(cancelID)
	assert.Equal(t, 1, ag.Len(), "cancellation retracted, not-node should re-propagate")
}

func TestNotNodeRetractingLeftRemovesPropagatedToken(t *testing.T) {
	st, rt, ag := newTestRuntime()
	nw := New(rt)

	primaryAlpha := NewAlphaNode(1, "always", func(*types.Fact, types.NumericEqualityPolicy) bool { return true })
	nw.AddAlpha(primaryAlpha, nil)
	entry := NewJoinNode(2, JoinKey{}, nil)
	entry.SeedRoot(rt)
	primaryAlpha.AddSuccessor(entry)

	notNode := NewNotNode(3, JoinKey{}, nil)
	entry.AddSuccessor(notNode)

	rule := &types.Rule{ID: "r1"}
	term := NewTerminalNode(4, rule, ag)
	notNode.AddSuccessor(term)
	nw.AddTerminal(term)

	id, _ := st.Insert(map[string]types.FactValue{"a": types.Int(1)}, "")
	nw.AssertFact(id)
	require.Equal(t, 1, ag.Len())

	st.Retract(id)
	nw.RetractFact(id)
	assert.Equal(t, 0, ag.Len())
}
