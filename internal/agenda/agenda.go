// Package agenda implements conflict resolution (spec.md §4.6): the total
// order in which pending rule firings fire within one batch.
package agenda

import (
	"sync"

	"github.com/weftengine/rules/internal/types"
)

// Firing is one pending rule activation: a rule whose terminal node has a
// live, complete token.
type Firing struct {
	Rule        *types.Rule
	Token       *types.Token
	Specificity int // number of conditions in the rule; set by Add
}

// Agenda holds all pending firings for the current batch, keyed by token
// id so that retracting the token (destroying the match) can remove the
// firing in O(1) even if it has not fired yet.
type Agenda struct {
	mu      sync.Mutex
	pending map[types.TokenID]*Firing
}

func New() *Agenda {
	return &Agenda{pending: make(map[types.TokenID]*Firing)}
}

// Add enqueues a new firing. Idempotent on token id: re-adding the same
// token (e.g. a spurious duplicate propagation) is a no-op, which is the
// agenda half of "tokens must be idempotent under re-entry" (spec.md §4.4).
func (a *Agenda) Add(rule *types.Rule, tok *types.Token) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.pending[tok.ID]; ok {
		return
	}
	a.pending[tok.ID] = &Firing{Rule: rule, Token: tok, Specificity: len(rule.Conditions)}
}

// Remove cancels a pending firing, used when its token is retracted before
// the executor has popped it.
func (a *Agenda) Remove(tok *types.Token) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pending, tok.ID)
}

// Len reports the number of currently pending firings.
func (a *Agenda) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// PopNext removes and returns the highest-priority pending firing per the
// total order in spec.md §4.6:
//  1. higher integer priority first
//  2. greater specificity (more conditions) first
//  3. greater recency (fact-id sum of matched facts) first
//  4. lexicographically smaller rule id first
//
// Returns nil when the agenda is empty. The order is recomputed on every
// call because firing a rule may enqueue new, possibly higher-ranked,
// firings mid-drain (spec.md §4.6: "appended to the current agenda and
// participate in the same fire-set under the same ordering").
func (a *Agenda) PopNext() *Firing {
	a.mu.Lock()
	defer a.mu.Unlock()
	var best *Firing
	for _, f := range a.pending {
		if best == nil || ranks(f, best) {
			best = f
		}
	}
	if best != nil {
		delete(a.pending, best.Token.ID)
	}
	return best
}

// ranks reports whether a should fire before b.
func ranks(a, b *Firing) bool {
	if a.Rule.Priority != b.Rule.Priority {
		return a.Rule.Priority > b.Rule.Priority
	}
	if a.Specificity != b.Specificity {
		return a.Specificity > b.Specificity
	}
	ar, br := a.Token.RecencyKey(), b.Token.RecencyKey()
	if ar != br {
		return ar > br
	}
	return a.Rule.ID < b.Rule.ID
}

// Drain pops every pending firing in fire order without executing them,
// used by tests asserting determinism (spec.md §8).
func (a *Agenda) Drain() []*Firing {
	var out []*Firing
	for {
		f := a.PopNext()
		if f == nil {
			break
		}
		out = append(out, f)
	}
	return out
}
