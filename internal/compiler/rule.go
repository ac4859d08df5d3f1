package compiler

import (
	"fmt"

	"github.com/weftengine/rules/internal/network"
	"github.com/weftengine/rules/internal/types"
)

// chainer is satisfied by any beta node that can hand tokens on to a
// further LeftInput — JoinNode and NotNode both qualify, letting
// compileRule build a chain of arbitrary length without caring which kind
// of node sits where.
type chainer interface {
	AddSuccessor(s network.LeftInput)
}

// compileRule wires one rule's ordered conditions into cs's shared network,
// attaching a TerminalNode at the end of the chain.
func compileRule(cs *compileState, rule *types.Rule, ordered []types.Condition) error {
	// A rule with no conditions at all is rejected at compile time rather
	// than wired to admit every asserted fact (spec.md §8 boundary): with no
	// field it depends on, "fires once per batch-end marker" has no event to
	// key off of in this network, which drives entirely off per-fact and
	// per-token assert/retract propagation rather than an explicit
	// batch-boundary signal (see DESIGN.md).
	if len(ordered) == 0 {
		return fmt.Errorf("rule %s: has no conditions: %w", rule.ID, types.ErrInvalidRule)
	}

	var pureConds, notConds, aggConds []types.Condition
	for _, c := range ordered {
		switch {
		case c.Type == types.ConditionAggregation || c.Type == types.ConditionStream:
			aggConds = append(aggConds, c)
		case c.Type == types.ConditionComplex && c.Logical == types.LogicalNot:
			notConds = append(notConds, c)
		default:
			pureConds = append(pureConds, c)
		}
	}

	if len(aggConds) > 0 {
		if len(aggConds) != 1 || len(pureConds) != 0 || len(notConds) != 0 {
			return fmt.Errorf("rule %s: an aggregation or stream condition must be the rule's only condition: %w", rule.ID, types.ErrInvalidRule)
		}
		return compileAggregationRule(cs, rule, aggConds[0])
	}

	// Single bare condition, no negation: attach the terminal straight to
	// the alpha node and skip the entry join entirely (spec.md §4.2 step 5
	// — single-condition rules never need a token). pureConds is never empty
	// here: ordered is non-empty (checked above) and aggConds already
	// returned, so notConds >= 1 whenever pureConds == 0 — which takes the
	// admitAllAlpha entry-join path below instead.
	if len(pureConds) == 1 && len(notConds) == 0 {
		alpha := buildPureAlpha(cs, pureConds[0])
		term := network.NewTerminalNode(cs.id(), rule, cs.rt.Agenda)
		alpha.AddSuccessor(term)
		cs.nw.AddTerminal(term)
		return nil
	}

	var primary *network.AlphaNode
	if len(pureConds) == 0 {
		primary = cs.admitAllAlpha()
	} else {
		primary = buildPureAlpha(cs, mergeConds(pureConds))
	}

	entry := cs.internJoin(primary)

	var cur chainer = entry
	for _, nc := range notConds {
		nn := buildNotNode(cs, nc)
		cur.AddSuccessor(nn)
		cur = nn
	}

	term := network.NewTerminalNode(cs.id(), rule, cs.rt.Agenda)
	cur.AddSuccessor(term)
	cs.nw.AddTerminal(term)
	return nil
}

// buildPureAlpha builds or reuses the alpha node testing a ValueRef-free
// condition against a single fact.
func buildPureAlpha(cs *compileState, cond types.Condition) *network.AlphaNode {
	key := canonicalKey(cond)
	fields := collectFields(cond)
	test := func(fact *types.Fact, policy types.NumericEqualityPolicy) bool {
		if cond.Type == types.ConditionSimple {
			return evalSimple(cond, fact, policy)
		}
		return evalPureLogical(cond, fact, policy)
	}
	return cs.internAlpha(key, fields, test)
}

// mergeConds folds the primary (same-fact) conditions of a rule into a
// single And condition, so they collapse to one alpha node instead of a
// chain of identity-joined ones: every Simple condition in a rule's flat
// Conditions list filters the same matched fact, so there is nothing for a
// beta join to correlate here. Rules sharing their FULL set of primary
// conditions still share the merged node; rules sharing only a subset do
// not get node sharing at that finer grain (see DESIGN.md).
func mergeConds(conds []types.Condition) types.Condition {
	if len(conds) == 1 {
		return conds[0]
	}
	return types.Condition{Type: types.ConditionComplex, Logical: types.LogicalAnd, Sub: conds}
}

func collectFields(cond types.Condition) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(c types.Condition)
	walk = func(c types.Condition) {
		switch c.Type {
		case types.ConditionSimple:
			if c.Field != "" && !seen[c.Field] {
				seen[c.Field] = true
				out = append(out, c.Field)
			}
		case types.ConditionComplex:
			for _, s := range c.Sub {
				walk(s)
			}
		}
	}
	walk(cond)
	return out
}

// buildNotNode wires a `not` sub-condition into a NotNode. An uncorrelated
// negation (no ValueRef anywhere in the sub-tree) gets its own dedicated,
// shareable source alpha node; a correlated one (references the rule's
// primary fact) is fed from the admit-all alpha node and does its actual
// filtering in the predicate, since admissibility there depends on two
// facts at once and cannot be attributed to the right fact alone.
func buildNotNode(cs *compileState, notCond types.Condition) *network.NotNode {
	sub := notCond.Sub[0]
	var source *network.AlphaNode
	var pred network.Predicate
	if hasValueRef(sub) {
		source = cs.admitAllAlpha()
		pred = notPredicate(sub, cs.rt.Policy)
	} else {
		source = buildPureAlpha(cs, sub)
	}
	nn := network.NewNotNode(cs.id(), network.JoinKey{}, pred)
	source.AddSuccessor(nn)
	cs.notNodeCount++
	return nn
}

// notPredicate closes over a cross-fact sub-condition, evaluating it
// against the primary fact bound into the left token and the candidate
// right fact.
func notPredicate(sub types.Condition, policy types.NumericEqualityPolicy) network.Predicate {
	return func(st network.FactLookup, tok *types.Token, rightFact types.FactID) bool {
		primary, ok := st.Get(tok.FactID)
		if !ok {
			return false
		}
		right, ok := st.Get(rightFact)
		if !ok {
			return false
		}
		return evalCrossFact(sub, primary, right, policy)
	}
}

// internJoin returns the shared entry join for alpha — the node that turns
// its admitted facts into left tokens bound to the synthetic root. Entry
// joins always have an empty key and no predicate, so they are keyed
// purely by their source alpha node and freely shared.
func (cs *compileState) internJoin(alpha *network.AlphaNode) *network.JoinNode {
	key := fmt.Sprintf("entry:%d", alpha.ID())
	if j, ok := cs.joins[key]; ok {
		return j
	}
	j := network.NewJoinNode(cs.id(), network.JoinKey{}, nil)
	j.SeedRoot(cs.rt)
	alpha.AddSuccessor(j)
	cs.joins[key] = j
	return j
}

// compileAggregationRule wires a rule whose sole condition is an
// Aggregation or Stream reduction (spec.md §4.4, §8 scenario 3).
func compileAggregationRule(cs *compileState, rule *types.Rule, cond types.Condition) error {
	fields := append([]string(nil), cond.GroupBy...)
	if cond.AggKind != types.AggCount {
		fields = append(fields, cond.SourceField)
	}
	test := func(fact *types.Fact, policy types.NumericEqualityPolicy) bool {
		for _, f := range cond.GroupBy {
			if _, ok := fact.Get(f); !ok {
				return false
			}
		}
		if cond.AggKind != types.AggCount {
			if _, ok := fact.Get(cond.SourceField); !ok {
				return false
			}
		}
		return true
	}

	var alpha *network.AlphaNode
	if len(fields) == 0 {
		alpha = cs.admitAllAlpha()
	} else {
		alpha = cs.internAlpha("AGG:"+canonicalKey(cond), fields, test)
	}

	var having network.HavingTest
	if cond.Having != nil {
		h := *cond.Having
		policy := cs.rt.Policy
		having = func(v types.FactValue) bool {
			return compareSimple(h.Operator, v, h, policy)
		}
	}

	// cond.Window is not passed to the node and there is no watermark
	// input: a Stream condition behaves as an unbounded aggregation over
	// every admitted fact, with no window eviction.
	aggNode := network.NewAggregationNode(cs.id(), cond.AggKind, cond.Percentile, cond.SourceField, cond.GroupBy, having, cond.Alias)
	alpha.AddSuccessor(aggNode)
	cs.aggNodeCount++

	term := network.NewTerminalNode(cs.id(), rule, cs.rt.Agenda)
	aggNode.AddSuccessor(term)
	cs.nw.AddTerminal(term)
	return nil
}
