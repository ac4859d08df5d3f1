package network

import "github.com/weftengine/rules/internal/types"

// TerminalNode is the sink of a rule's beta chain (spec.md §3, §4.2 step
// 5): receiving a complete token enqueues a firing on the agenda; losing
// one retracts it if it has not fired yet.
type TerminalNode struct {
	id   int
	rule *types.Rule

	direct map[types.FactID]*types.Token // used only when attached directly to a single alpha (single-condition rules)
	agenda agendaSink
}

// agendaSink is the minimal surface TerminalNode needs from *agenda.Agenda,
// declared locally so this package does not need to re-export agenda types
// through every call site.
type agendaSink interface {
	Add(rule *types.Rule, tok *types.Token)
	Remove(tok *types.Token)
}

func NewTerminalNode(id int, rule *types.Rule, sink agendaSink) *TerminalNode {
	return &TerminalNode{id: id, rule: rule, direct: make(map[types.FactID]*types.Token), agenda: sink}
}

func (t *TerminalNode) ID() int { return t.id }

// OnLeftAssert implements LeftInput for terminals attached after a join,
// not, or aggregation node.
func (t *TerminalNode) OnLeftAssert(rt *Runtime, tok *types.Token) {
	if rt.SuppressRule == t.rule {
		return
	}
	t.agenda.Add(t.rule, tok)
}

func (t *TerminalNode) OnLeftRetract(rt *Runtime, tok *types.Token) {
	t.agenda.Remove(tok)
}

// OnRightAssert implements RightInput for terminals attached directly to a
// single alpha node (single-condition rules, spec.md §4.2 step 5).
func (t *TerminalNode) OnRightAssert(rt *Runtime, factID types.FactID) {
	if rt.SuppressRule == t.rule {
		return
	}
	tok := &types.Token{ID: rt.nextTokenID(), Parent: rt.RootToken, FactID: factID, NodeID: t.id}
	t.direct[factID] = tok
	t.agenda.Add(t.rule, tok)
}

func (t *TerminalNode) OnRightRetract(rt *Runtime, factID types.FactID) {
	if tok, ok := t.direct[factID]; ok {
		delete(t.direct, factID)
		t.agenda.Remove(tok)
	}
}
