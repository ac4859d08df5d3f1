package network

import "github.com/weftengine/rules/internal/types"

// FieldRef pairs an alpha node with the fact fields its test reads.
// Nothing in this repository constructs or reads a FieldRef.
type FieldRef struct {
	Node   *AlphaNode
	Fields []string // empty means "dispatch on every assert" (complex/derived tests)
}

// Network is the compiled RETE graph for one rule set (spec.md §4.2's
// NetworkHandle). It owns every alpha node and knows how to fan an assert
// or retract out to the ones that could possibly match.
type Network struct {
	Runtime *Runtime

	alphaNodes []*AlphaNode
	byField    map[string][]*AlphaNode
	catchAll   []*AlphaNode // nodes whose test cannot be attributed to specific fields

	Terminals []*TerminalNode
}

func New(rt *Runtime) *Network {
	return &Network{Runtime: rt, byField: make(map[string][]*AlphaNode)}
}

// AddAlpha registers an alpha node under the fields its test reads (or as
// catch-all if fields is empty).
func (nw *Network) AddAlpha(node *AlphaNode, fields []string) {
	nw.alphaNodes = append(nw.alphaNodes, node)
	if len(fields) == 0 {
		nw.catchAll = append(nw.catchAll, node)
		return
	}
	for _, f := range fields {
		nw.byField[f] = append(nw.byField[f], node)
	}
}

func (nw *Network) AddTerminal(t *TerminalNode) { nw.Terminals = append(nw.Terminals, t) }

// candidateNodes returns the deduplicated set of alpha nodes that could
// possibly admit fact, given the fields it carries.
func (nw *Network) candidateNodes(fact *types.Fact) []*AlphaNode {
	seen := make(map[int]bool)
	var out []*AlphaNode
	add := func(n *AlphaNode) {
		if !seen[n.id] {
			seen[n.id] = true
			out = append(out, n)
		}
	}
	for field := range fact.Fields {
		for _, n := range nw.byField[field] {
			add(n)
		}
	}
	for _, n := range nw.catchAll {
		add(n)
	}
	return out
}

// AssertFact fans a newly inserted fact out to every alpha node that could
// match it (spec.md §4.5).
func (nw *Network) AssertFact(factID types.FactID) {
	fact, ok := nw.Runtime.Store.Get(factID)
	if !ok {
		return
	}
	for _, n := range nw.candidateNodes(fact) {
		n.OnAssert(nw.Runtime, factID)
	}
}

// AssertFactForCommit re-asserts a fact produced by a firing's own
// retract-then-reassert field-write commit (spec.md §4.7), suppressing
// re-activation of firingRule's own terminal(s) so a field write the
// rule's own condition doesn't depend on can't retrigger it forever
// (spec.md §8 scenarios 1-2). Every other rule sharing the same
// alpha/beta nodes still observes the update and may fire normally.
func (nw *Network) AssertFactForCommit(factID types.FactID, firingRule *types.Rule) {
	nw.Runtime.SuppressRule = firingRule
	defer func() { nw.Runtime.SuppressRule = nil }()
	nw.AssertFact(factID)
}

// RetractFact fans a retraction out to every alpha node that currently
// admits factID. Unlike AssertFact, the fact may already be tombstoned in
// the store by the time this runs, so we cannot re-derive candidates from
// its fields — every alpha node must be asked, and each is a no-op unless
// it actually holds factID.
func (nw *Network) RetractFact(factID types.FactID) {
	for _, n := range nw.alphaNodes {
		n.OnRetract(nw.Runtime, factID)
	}
}
