package network

import (
	"github.com/weftengine/rules/internal/types"
)

// Predicate is an optional cross-fact test evaluated after the join key
// matches, e.g. a condition comparing two bound facts' fields with an
// operator other than equality (spec.md §4.4 "optional additional
// predicate"). Exported so compiler-package predicates (cross-fact `not`
// conditions) can be constructed directly as network.Predicate values.
type Predicate func(st FactLookup, tok *types.Token, rightFact types.FactID) bool

// FactLookup is the minimal fact-lookup surface a Predicate needs; satisfied
// by *store.Store. Declared locally to avoid importing store in the
// Predicate signature's call sites that only have a Runtime.
type FactLookup interface {
	Get(id types.FactID) (*types.Fact, bool)
}

type pairKey struct {
	tok types.TokenID
	id  types.FactID
}

// JoinNode is a beta join: it combines an accumulated left token with a
// matching right fact to produce a new, longer token (spec.md §4.4).
type JoinNode struct {
	id        int
	key       JoinKey
	predicate Predicate

	leftByKey  map[string][]*types.Token
	rightByKey map[string][]types.FactID

	childrenOf map[types.TokenID][]*types.Token // tokens derived from a given left parent
	byFact     map[types.FactID][]*types.Token  // tokens derived from a given right fact
	produced   map[pairKey]*types.Token

	successors []LeftInput
}

func NewJoinNode(id int, key JoinKey, predicate Predicate) *JoinNode {
	return &JoinNode{
		id:         id,
		key:        key,
		predicate:  predicate,
		leftByKey:  make(map[string][]*types.Token),
		rightByKey: make(map[string][]types.FactID),
		childrenOf: make(map[types.TokenID][]*types.Token),
		byFact:     make(map[types.FactID][]*types.Token),
		produced:   make(map[pairKey]*types.Token),
	}
}

func (j *JoinNode) ID() int                      { return j.id }
func (j *JoinNode) AddSuccessor(s LeftInput)      { j.successors = append(j.successors, s) }

// SeedRoot seeds this join's left memory with rt's synthetic empty token,
// used when this is the entry join of a rule's beta chain (spec.md §4.4).
func (j *JoinNode) SeedRoot(rt *Runtime) {
	j.leftByKey[""] = append(j.leftByKey[""], rt.RootToken)
}

func (j *JoinNode) emit(rt *Runtime, left *types.Token, right types.FactID) {
	pk := pairKey{tok: left.ID, id: right}
	if _, dup := j.produced[pk]; dup {
		return
	}
	if j.predicate != nil && !j.predicate(rt.Store, left, right) {
		return
	}
	tok := &types.Token{ID: rt.nextTokenID(), Parent: left, FactID: right, NodeID: j.id}
	left.Retain()
	j.produced[pk] = tok
	j.childrenOf[left.ID] = append(j.childrenOf[left.ID], tok)
	j.byFact[right] = append(j.byFact[right], tok)
	for _, s := range j.successors {
		s.OnLeftAssert(rt, tok)
	}
}

// OnLeftAssert matches a newly arrived left token against every right fact
// sharing its join key.
func (j *JoinNode) OnLeftAssert(rt *Runtime, tok *types.Token) {
	key, ok := leftKeyOf(rt.Store, tok, j.key, rt.Policy)
	if !ok {
		return
	}
	j.leftByKey[key] = append(j.leftByKey[key], tok)
	for _, factID := range j.rightByKey[key] {
		j.emit(rt, tok, factID)
	}
}

// OnRightAssert matches a newly admitted right fact against every left
// token sharing its join key.
func (j *JoinNode) OnRightAssert(rt *Runtime, factID types.FactID) {
	key, ok := rightKeyOf(rt.Store, factID, j.key, rt.Policy)
	if !ok {
		return
	}
	j.rightByKey[key] = append(j.rightByKey[key], factID)
	for _, tok := range j.leftByKey[key] {
		j.emit(rt, tok, factID)
	}
}

func (j *JoinNode) destroy(rt *Runtime, tok *types.Token) {
	for _, s := range j.successors {
		s.OnLeftRetract(rt, tok)
	}
	delete(j.produced, pairKey{tok: tok.Parent.ID, id: tok.FactID})
	if tok.Parent.Release() {
		// last reference dropped; nothing further to reclaim explicitly,
		// the Go GC owns the memory once unreachable.
	}
}

// OnLeftRetract cascades: every token this join produced from tok is
// destroyed, and tok itself is removed from left memory.
func (j *JoinNode) OnLeftRetract(rt *Runtime, tok *types.Token) {
	for _, child := range j.childrenOf[tok.ID] {
		j.destroy(rt, child)
	}
	delete(j.childrenOf, tok.ID)
	removeFromIndex(j.leftByKey, tok)
}

// OnRightRetract cascades: every token this join produced from factID is
// destroyed, and factID is removed from right memory.
func (j *JoinNode) OnRightRetract(rt *Runtime, factID types.FactID) {
	for _, child := range j.byFact[factID] {
		j.destroy(rt, child)
	}
	delete(j.byFact, factID)
	for key, ids := range j.rightByKey {
		j.rightByKey[key] = removeFact(ids, factID)
	}
}

func removeFromIndex(idx map[string][]*types.Token, tok *types.Token) {
	for key, toks := range idx {
		for i, t := range toks {
			if t.ID == tok.ID {
				idx[key] = append(toks[:i], toks[i+1:]...)
				break
			}
		}
	}
}

func removeFact(ids []types.FactID, target types.FactID) []types.FactID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
