package compiler

import "github.com/weftengine/rules/internal/types"

// evalCrossFact evaluates a condition sub-tree that may reference the
// primary matched fact via ValueRef, comparing each leaf against right
// (the candidate fact on the other side of a join/not node) and primary
// (the rule's main matched fact). This is the fallback path used when a
// `not` sub-condition needs values from two different facts (spec.md §8
// scenario 4: `order_id = order.id`); it trades the admission-time
// filtering a dedicated alpha node would give for generality, since the
// cross-fact shape varies per rule and is not worth canonicalizing here.
func evalCrossFact(cond types.Condition, primary, right *types.Fact, policy types.NumericEqualityPolicy) bool {
	switch cond.Type {
	case types.ConditionSimple:
		v, ok := right.Get(cond.Field)
		if !ok {
			return false
		}
		if cond.ValueRef != "" {
			ref, ok := primary.Get(cond.ValueRef)
			if !ok {
				return false
			}
			return compareSimple(cond.Operator, v, types.Condition{Operator: cond.Operator, Value: ref}, policy)
		}
		return compareSimple(cond.Operator, v, cond, policy)
	case types.ConditionComplex:
		switch cond.Logical {
		case types.LogicalAnd:
			for _, sub := range cond.Sub {
				if !evalCrossFact(sub, primary, right, policy) {
					return false
				}
			}
			return true
		case types.LogicalOr:
			for _, sub := range cond.Sub {
				if evalCrossFact(sub, primary, right, policy) {
					return true
				}
			}
			return false
		case types.LogicalNot:
			if len(cond.Sub) != 1 {
				return false
			}
			return !evalCrossFact(cond.Sub[0], primary, right, policy)
		}
	}
	return false
}
