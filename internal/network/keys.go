package network

import (
	"fmt"

	"github.com/weftengine/rules/internal/store"
	"github.com/weftengine/rules/internal/types"
)

// JoinKeyField names a field on an ancestor-bound fact of a left token.
// Depth 0 is the most recently bound fact, depth 1 the one before that,
// and so on — this lets a join reach back past the immediately preceding
// condition when a rule joins against an earlier fact in its chain
// (spec.md §4.4 "declared join key").
type JoinKeyField struct {
	Depth int
	Field string
}

// JoinKey pairs left-token field references with right-fact field names;
// both slices are the same length and compared positionally.
type JoinKey struct {
	Left  []JoinKeyField
	Right []string
}

// Empty reports whether this is a degenerate (unconstrained) join key, used
// for the entry join node that seeds a rule's beta chain from the
// synthetic root token (spec.md §4.4).
func (k JoinKey) Empty() bool { return len(k.Left) == 0 }

func factAtDepth(tok *types.Token, depth int) types.FactID {
	n := tok
	for i := 0; i < depth && n != nil && n.Parent != nil; i++ {
		n = n.Parent
	}
	if n == nil || n.Parent == nil {
		return 0
	}
	return n.FactID
}

// leftKeyOf computes the composite join-key string for a left token, or
// ok=false if any referenced ancestor fact or field is missing (such a
// token can never join and is treated as producing no matches).
func leftKeyOf(st *store.Store, tok *types.Token, key JoinKey, policy types.NumericEqualityPolicy) (string, bool) {
	if key.Empty() {
		return "", true
	}
	out := ""
	for _, lf := range key.Left {
		id := factAtDepth(tok, lf.Depth)
		if id == 0 {
			return "", false
		}
		fact, ok := st.Get(id)
		if !ok {
			return "", false
		}
		v, ok := fact.Get(lf.Field)
		if !ok {
			return "", false
		}
		out += fmt.Sprintf("|%d", v.Hash(policy))
	}
	return out, true
}

// rightKeyOf computes the composite join-key string for a candidate right
// fact.
func rightKeyOf(st *store.Store, factID types.FactID, key JoinKey, policy types.NumericEqualityPolicy) (string, bool) {
	if key.Empty() {
		return "", true
	}
	fact, ok := st.Get(factID)
	if !ok {
		return "", false
	}
	out := ""
	for _, field := range key.Right {
		v, ok := fact.Get(field)
		if !ok {
			return "", false
		}
		out += fmt.Sprintf("|%d", v.Hash(policy))
	}
	return out, true
}
