package network

import "github.com/weftengine/rules/internal/types"

// NotNode implements negation (spec.md §4.4): it holds, per left token, a
// count of currently-matching right facts. The left token is propagated
// downstream unchanged iff that count is zero.
type NotNode struct {
	id        int
	key       JoinKey
	predicate Predicate

	tokensByKey map[string][]*types.Token
	counts      map[types.TokenID]int
	liveLeft    map[types.TokenID]*types.Token

	rightByKey map[string][]types.FactID
	keyOfFact  map[types.FactID]string

	propagated map[types.TokenID]bool // which left tokens are currently propagated downstream
	successors []LeftInput
}

func NewNotNode(id int, key JoinKey, predicate Predicate) *NotNode {
	return &NotNode{
		id:          id,
		key:         key,
		predicate:   predicate,
		tokensByKey: make(map[string][]*types.Token),
		counts:      make(map[types.TokenID]int),
		liveLeft:    make(map[types.TokenID]*types.Token),
		rightByKey:  make(map[string][]types.FactID),
		keyOfFact:   make(map[types.FactID]string),
		propagated:  make(map[types.TokenID]bool),
	}
}

func (n *NotNode) ID() int                 { return n.id }
func (n *NotNode) AddSuccessor(s LeftInput) { n.successors = append(n.successors, s) }

func (n *NotNode) matchCount(rt *Runtime, tok *types.Token, key string) int {
	count := 0
	for _, factID := range n.rightByKey[key] {
		if n.predicate == nil || n.predicate(rt.Store, tok, factID) {
			count++
		}
	}
	return count
}

// OnLeftAssert registers a new left token and propagates it downstream iff
// no right fact currently matches its join key.
func (n *NotNode) OnLeftAssert(rt *Runtime, tok *types.Token) {
	key, ok := leftKeyOf(rt.Store, tok, n.key, rt.Policy)
	if !ok {
		key = ""
	}
	n.tokensByKey[key] = append(n.tokensByKey[key], tok)
	n.liveLeft[tok.ID] = tok
	count := n.matchCount(rt, tok, key)
	n.counts[tok.ID] = count
	if count == 0 {
		n.propagated[tok.ID] = true
		for _, s := range n.successors {
			s.OnLeftAssert(rt, tok)
		}
	}
}

// OnLeftRetract removes tok; if it was currently propagated, destroys the
// downstream copy.
func (n *NotNode) OnLeftRetract(rt *Runtime, tok *types.Token) {
	if n.propagated[tok.ID] {
		delete(n.propagated, tok.ID)
		for _, s := range n.successors {
			s.OnLeftRetract(rt, tok)
		}
	}
	delete(n.counts, tok.ID)
	delete(n.liveLeft, tok.ID)
	for key, toks := range n.tokensByKey {
		n.tokensByKey[key] = removeFromSlice(toks, tok.ID)
	}
}

// OnRightAssert admits a new negated-side fact; every left token whose
// count goes from zero to nonzero has its downstream propagation retracted.
func (n *NotNode) OnRightAssert(rt *Runtime, factID types.FactID) {
	key, ok := rightKeyOf(rt.Store, factID, n.key, rt.Policy)
	if !ok {
		key = ""
	}
	n.rightByKey[key] = append(n.rightByKey[key], factID)
	n.keyOfFact[factID] = key
	for _, tok := range n.tokensByKey[key] {
		if n.predicate != nil && !n.predicate(rt.Store, tok, factID) {
			continue
		}
		n.counts[tok.ID]++
		if n.counts[tok.ID] == 1 && n.propagated[tok.ID] {
			delete(n.propagated, tok.ID)
			for _, s := range n.successors {
				s.OnLeftRetract(rt, tok)
			}
		}
	}
}

// OnRightRetract evicts a negated-side fact; every left token whose count
// drops back to zero is re-propagated downstream.
func (n *NotNode) OnRightRetract(rt *Runtime, factID types.FactID) {
	key, ok := n.keyOfFact[factID]
	if !ok {
		return
	}
	delete(n.keyOfFact, factID)
	n.rightByKey[key] = removeFact(n.rightByKey[key], factID)
	for _, tok := range n.tokensByKey[key] {
		if n.predicate != nil && !n.predicate(rt.Store, tok, factID) {
			continue
		}
		if n.counts[tok.ID] > 0 {
			n.counts[tok.ID]--
		}
		if n.counts[tok.ID] == 0 && !n.propagated[tok.ID] {
			n.propagated[tok.ID] = true
			for _, s := range n.successors {
				s.OnLeftAssert(rt, tok)
			}
		}
	}
}

func removeFromSlice(toks []*types.Token, id types.TokenID) []*types.Token {
	for i, t := range toks {
		if t.ID == id {
			return append(toks[:i], toks[i+1:]...)
		}
	}
	return toks
}
