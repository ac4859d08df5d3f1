package types

import "sync/atomic"

// TokenID densely and deterministically identifies a token within a
// network run, assigned in creation order.
type TokenID uint64

// Token is a partial or complete match flowing through the beta network
// (spec.md §3). Parent links form a DAG, never a cycle (§9): each token
// extends its parent by exactly one fact binding. Tokens are shared by
// reference — copying a *Token never duplicates its binding chain.
type Token struct {
	ID     TokenID
	Parent *Token  // nil only for the synthetic root token at the first join
	FactID FactID  // the fact bound at this level; meaningless when Parent == nil
	NodeID int     // the beta/terminal node this token currently occupies

	refCount int32
}

// Retain increments the token's reference count. JoinNode calls it on a
// left token each time it extends that token into a child; not-nodes,
// terminals and the agenda hold token pointers without calling it (spec.md
// §3: "shared by reference, never copied").
func (t *Token) Retain() { atomic.AddInt32(&t.refCount, 1) }

// Release decrements the reference count and reports whether it reached
// zero, i.e. the caller was the last holder and may reclaim bookkeeping
// structures (the Go runtime still owns the memory; this is an explicit
// mirror of the refcount invariant spec.md §3 requires be testable).
func (t *Token) Release() bool { return atomic.AddInt32(&t.refCount, -1) == 0 }

// RefCount returns the current reference count, for diagnostics and tests.
func (t *Token) RefCount() int32 { return atomic.LoadInt32(&t.refCount) }

// Bindings walks the parent chain and returns every fact id bound by this
// token, in binding order (oldest first). The synthetic root contributes
// no id.
func (t *Token) Bindings() []FactID {
	var depth int
	for n := t; n != nil && n.Parent != nil; n = n.Parent {
		depth++
	}
	ids := make([]FactID, depth)
	i := depth - 1
	for n := t; n != nil && n.Parent != nil; n = n.Parent {
		ids[i] = n.FactID
		i--
	}
	return ids
}

// Contains reports whether id is one of this token's bindings, walking
// the parent chain.
func (t *Token) Contains(id FactID) bool {
	for n := t; n != nil && n.Parent != nil; n = n.Parent {
		if n.FactID == id {
			return true
		}
	}
	return false
}

// RecencyKey is the sum of bound fact ids, used as the "recency" tie-break
// in conflict resolution (spec.md §4.6): larger sums are more recent.
func (t *Token) RecencyKey() uint64 {
	var sum uint64
	for n := t; n != nil && n.Parent != nil; n = n.Parent {
		sum += uint64(n.FactID)
	}
	return sum
}
