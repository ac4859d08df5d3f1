// Package compiler turns validated types.Rule values into a wired
// network.Network (spec.md §4.2): normalizing and ordering each rule's
// conditions, sharing alpha/join/not/aggregation nodes across rules by
// structural key, and attaching one terminal node per rule.
package compiler

import (
	"fmt"

	"github.com/weftengine/rules/internal/network"
	"github.com/weftengine/rules/internal/store"
	"github.com/weftengine/rules/internal/types"
)

// CompileOptions configures one compilation pass.
type CompileOptions struct {
	// CardinalityHints seeds the selectivity estimator with known
	// approximate distinct-value counts per field (spec.md §4.2 step 1).
	CardinalityHints map[string]int
}

// RuleReport is the per-rule section of a CompileReport.
type RuleReport struct {
	RuleID         types.RuleID
	ConditionOrder []string // one summary string per condition, in evaluation order
}

// CompileReport summarizes one compilation's structural decisions: the
// condition ordering chosen per rule, how much node sharing happened, and
// a best-effort diagnostic ordering of inter-rule dependencies through
// derived facts (spec.md's supplemental compiler diagnostics).
type CompileReport struct {
	Rules []RuleReport

	AlphaNodeCount       int
	SharedAlphaNodeCount int
	JoinNodeCount        int
	NotNodeCount         int
	AggregationNodeCount int
	TerminalNodeCount    int

	// RuleDependencyOrder is a diagnostic topological ordering of rule ids
	// by create_fact/aggregation-alias producer-consumer edges. It does not
	// affect evaluation, which is driven entirely by the agenda's total
	// order (spec.md §4.6); it exists to help a rule author see which
	// rules feed which.
	RuleDependencyOrder []types.RuleID
}

type alphaUse struct {
	node  *network.AlphaNode
	users int
}

// compileState carries the node-sharing maps across the whole compilation
// pass so identical conditions (and identical join/not shapes) collapse to
// one node regardless of which rule discovers them first.
type compileState struct {
	rt  *network.Runtime
	nw  *network.Network
	nextID int

	alphas map[string]*alphaUse
	joins  map[string]*network.JoinNode
	allAlpha *network.AlphaNode // admits every fact; shared by correlated not-nodes

	notNodeCount int
	aggNodeCount int
}

func (cs *compileState) id() int {
	id := cs.nextID
	cs.nextID++
	return id
}

// admitAllAlpha returns the shared "admits every fact" alpha node used as
// the right-hand source for correlated not-conditions (spec.md §8 scenario
// 4), where the negated-side fact's admissibility cannot be attributed to
// a single field because the comparison reaches into the primary fact.
func (cs *compileState) admitAllAlpha() *network.AlphaNode {
	if cs.allAlpha == nil {
		cs.allAlpha = network.NewAlphaNode(cs.id(), "ALL", func(*types.Fact, types.NumericEqualityPolicy) bool { return true })
		cs.nw.AddAlpha(cs.allAlpha, nil)
	}
	return cs.allAlpha
}

// internAlpha returns the existing alpha node for key if one was already
// built, or builds and registers a new one (spec.md §4.2 step 2 — node
// sharing by structural key).
func (cs *compileState) internAlpha(key string, fields []string, test network.Test) *network.AlphaNode {
	if use, ok := cs.alphas[key]; ok {
		use.users++
		return use.node
	}
	node := network.NewAlphaNode(cs.id(), key, test)
	cs.nw.AddAlpha(node, fields)
	cs.alphas[key] = &alphaUse{node: node, users: 1}
	return node
}

// Compile builds a Network for rules against st, using rt as the shared
// evaluation runtime. Rules are processed in the order given; node ids are
// assigned densely in that same order, so compiling the same rule set
// twice (in the same order) yields an identical graph (spec.md §4.2 —
// "node identities are assigned densely and deterministically").
func Compile(rules []*types.Rule, st *store.Store, rt *network.Runtime, opts CompileOptions) (*network.Network, *CompileReport, error) {
	nw := network.New(rt)
	cs := &compileState{
		rt:     rt,
		nw:     nw,
		alphas: make(map[string]*alphaUse),
		joins:  make(map[string]*network.JoinNode),
	}
	report := &CompileReport{}

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		ordered, err := NormalizeRule(rule, st, opts.CardinalityHints)
		if err != nil {
			return nil, nil, err
		}
		registerFieldIndexes(st, ordered)

		rr := RuleReport{RuleID: rule.ID}
		for _, c := range ordered {
			rr.ConditionOrder = append(rr.ConditionOrder, summarizeCondition(c))
		}
		report.Rules = append(report.Rules, rr)

		if err := compileRule(cs, rule, ordered); err != nil {
			return nil, nil, err
		}
	}

	report.RuleDependencyOrder = topoSortRules(rules)

	for _, use := range cs.alphas {
		report.AlphaNodeCount++
		if use.users > 1 {
			report.SharedAlphaNodeCount++
		}
	}
	if cs.allAlpha != nil {
		report.AlphaNodeCount++
	}
	report.JoinNodeCount = len(cs.joins)
	report.NotNodeCount = cs.notNodeCount
	report.AggregationNodeCount = cs.aggNodeCount
	report.TerminalNodeCount = len(nw.Terminals)

	return nw, report, nil
}

func registerFieldIndexes(st *store.Store, conds []types.Condition) {
	for _, c := range conds {
		switch c.Type {
		case types.ConditionSimple:
			if c.ValueRef == "" && (c.Operator == types.OpEqual || c.Operator == types.OpIn) {
				st.RegisterFieldIndex(c.Field)
			}
		case types.ConditionComplex:
			registerFieldIndexes(st, c.Sub)
		}
	}
}

func summarizeCondition(c types.Condition) string {
	switch c.Type {
	case types.ConditionSimple:
		return fmt.Sprintf("%s %s %v", c.Field, c.Operator, c.Value)
	case types.ConditionComplex:
		return fmt.Sprintf("%s(%d)", c.Logical, len(c.Sub))
	case types.ConditionAggregation:
		return fmt.Sprintf("%s(%s)->%s", c.AggKind, c.SourceField, c.Alias)
	case types.ConditionStream:
		return fmt.Sprintf("stream:%s(%s)->%s", c.AggKind, c.SourceField, c.Alias)
	}
	return string(c.Type)
}
