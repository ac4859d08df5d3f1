package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftengine/rules/internal/types"
)

func TestAggregationNodeEmitsWhenHavingSatisfied(t *testing.T) {
	st, rt, ag := newTestRuntime()
	nw := New(rt)

	alpha := NewAlphaNode(1, "kind=order", func(f *types.Fact, p types.NumericEqualityPolicy) bool {
		v, ok := f.Get("kind")
		return ok && v.Equal(types.String("order"), p)
	})
	nw.AddAlpha(alpha, []string{"kind"})

	having := func(v types.FactValue) bool {
		f, _, ok := v.Numeric()
		return ok && f > 100
	}
	aggNode := NewAggregationNode(2, types.AggSum, 0, "amount", []string{"customer_id"}, having, "total")
	alpha.AddSuccessor(aggNode)

	rule := &types.Rule{ID: "r1"}
	term := NewTerminalNode(3, rule, ag)
	aggNode.AddSuccessor(term)
	nw.AddTerminal(term)

	id1, _ := st.Insert(map[string]types.FactValue{
		"kind": types.String("order"), "customer_id": types.String("c1"), "amount": types.Float(60),
	}, "")
	nw.AssertFact(id1)
	assert.Equal(t, 0, ag.Len(), "sum below threshold shouldn't fire")

	id2, _ := st.Insert(map[string]types.FactValue{
		"kind": types.String("order"), "customer_id": types.String("c1"), "amount": types.Float(60),
	}, "")
	nw.AssertFact(id2)
	require.Equal(t, 1, ag.Len(), "sum 120 over threshold should fire")

	st.Retract(id2)
	nw.RetractFact(id2)
	assert.Equal(t, 0, ag.Len(), "sum back below threshold should retract the emitted token")
}

func TestAggregationNodeGroupsIndependently(t *testing.T) {
	st, rt, ag := newTestRuntime()
	nw := New(rt)

	alpha := NewAlphaNode(1, "always", func(*types.Fact, types.NumericEqualityPolicy) bool { return true })
	nw.AddAlpha(alpha, nil)

	having := func(v types.FactValue) bool {
		f, _, ok := v.Numeric()
		return ok && f >= 1
	}
	aggNode := NewAggregationNode(2, types.AggCount, 0, "amount", []string{"customer_id"}, having, "n")
	alpha.AddSuccessor(aggNode)

	rule := &types.Rule{ID: "r1"}
	term := NewTerminalNode(3, rule, ag)
	aggNode.AddSuccessor(term)
	nw.AddTerminal(term)

	id1, _ := st.Insert(map[string]types.FactValue{"customer_id": types.String("c1"), "amount": types.Float(1)}, "")
	nw.AssertFact(id1)
	assert.Equal(t, 1, ag.Len())

	id2, _ := st.Insert(map[string]types.FactValue{"customer_id": types.String("c2"), "amount": types.Float(1)}, "")
	nw.AssertFact(id2)
	assert.Equal(t, 2, ag.Len(), "distinct group-by key should fire its own token")
}
