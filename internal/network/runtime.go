// Package network implements the RETE alpha/beta/terminal graph from
// spec.md §4.3 and §4.4: per-condition alpha memories, join/not/aggregation
// beta nodes producing tokens, and terminal nodes that hand complete
// tokens to the agenda.
package network

import (
	"sync/atomic"

	"github.com/weftengine/rules/internal/agenda"
	"github.com/weftengine/rules/internal/store"
	"github.com/weftengine/rules/internal/types"
)

// FloatAggregationOrder controls the reduction order used by sum/avg/stddev
// aggregations (spec.md §6 `float_aggregation_order`).
type FloatAggregationOrder uint8

const (
	OrderInsertion FloatAggregationOrder = iota
	OrderSorted
)

// Runtime is the shared context threaded through every node's Assert/Retract
// call: the fact store, the numeric policy, the agenda tokens fire into,
// and a dense token-id counter (spec.md §4.2 — "node identities are
// assigned densely and deterministically").
type Runtime struct {
	Store      *store.Store
	Policy     types.NumericEqualityPolicy
	FloatOrder FloatAggregationOrder
	Agenda     *agenda.Agenda

	// RootToken is the synthetic empty token that seeds the left input of
	// every entry join in this runtime's network (spec.md §4.4). It is
	// owned per-Runtime, not a package global, so two sessions' networks
	// never share mutable refcount state on the same token (spec.md §5 —
	// "no shared mutable state across sessions").
	RootToken *types.Token

	// SuppressRule is set for the duration of a single AssertFact call
	// re-propagating a firing's own field-write commit (spec.md §4.7); the
	// firing rule's own terminal declines to re-enqueue for it, breaking the
	// self-retrigger loop an unconditional set_field would otherwise cause
	// (spec.md §8 scenarios 1-2). Other rules sharing the same alpha/beta
	// nodes still see the update normally.
	SuppressRule *types.Rule

	tokenSeq uint64
}

func NewRuntime(st *store.Store, policy types.NumericEqualityPolicy, order FloatAggregationOrder, ag *agenda.Agenda) *Runtime {
	return &Runtime{
		Store:      st,
		Policy:     policy,
		FloatOrder: order,
		Agenda:     ag,
		RootToken:  &types.Token{ID: 0, Parent: nil, FactID: 0},
	}
}

func (rt *Runtime) nextTokenID() types.TokenID {
	return types.TokenID(atomic.AddUint64(&rt.tokenSeq, 1))
}

// RightInput receives single-fact admit/evict events, the alpha → beta
// propagation direction.
type RightInput interface {
	OnRightAssert(rt *Runtime, factID types.FactID)
	OnRightRetract(rt *Runtime, factID types.FactID)
}

// LeftInput receives token admit/evict events, the beta → beta/terminal
// propagation direction.
type LeftInput interface {
	OnLeftAssert(rt *Runtime, tok *types.Token)
	OnLeftRetract(rt *Runtime, tok *types.Token)
}
