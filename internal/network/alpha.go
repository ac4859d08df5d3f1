package network

import "github.com/weftengine/rules/internal/types"

// Test evaluates a single-fact predicate. Type-incompatible comparisons
// return false rather than erroring (spec.md §4.3 failure semantics).
type Test func(fact *types.Fact, policy types.NumericEqualityPolicy) bool

// AlphaNode filters individual facts against one canonical condition and
// maintains the set of currently admitted ids (spec.md §4.3). Shared
// across every rule whose canonicalized condition is structurally
// identical (spec.md §4.2 step 2).
type AlphaNode struct {
	id         int
	canonical  string // the structural key used for node sharing during compilation
	test       Test
	memory     map[types.FactID]bool
	successors []RightInput
}

func NewAlphaNode(id int, canonical string, test Test) *AlphaNode {
	return &AlphaNode{id: id, canonical: canonical, test: test, memory: make(map[types.FactID]bool)}
}

func (a *AlphaNode) ID() int { return a.id }

func (a *AlphaNode) AddSuccessor(s RightInput) { a.successors = append(a.successors, s) }

// Contains reports whether factID is currently admitted, the alpha-memory
// half of the invariant in spec.md §3: "f ∈ A.memory ⇔ f satisfies A.test".
func (a *AlphaNode) Contains(factID types.FactID) bool { return a.memory[factID] }

func (a *AlphaNode) Len() int { return len(a.memory) }

// OnAssert evaluates the test against fact; on pass, admits it and
// propagates to every successor.
func (a *AlphaNode) OnAssert(rt *Runtime, factID types.FactID) {
	if a.memory[factID] {
		return // already admitted; dispatch may visit a node more than once
	}
	fact, ok := rt.Store.Get(factID)
	if !ok {
		return
	}
	if !a.test(fact, rt.Policy) {
		return
	}
	a.memory[factID] = true
	for _, s := range a.successors {
		s.OnRightAssert(rt, factID)
	}
}

// OnRetract removes factID if present and propagates the retraction.
func (a *AlphaNode) OnRetract(rt *Runtime, factID types.FactID) {
	if !a.memory[factID] {
		return
	}
	delete(a.memory, factID)
	for _, s := range a.successors {
		s.OnRightRetract(rt, factID)
	}
}
