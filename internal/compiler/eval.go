package compiler

import (
	"fmt"
	"strings"

	"github.com/weftengine/rules/internal/types"
)

// compareSimple evaluates one Simple condition's operator against a field
// value already resolved from a fact. Type-incompatible comparisons return
// false, never an error (spec.md §4.3).
func compareSimple(op types.SimpleOperator, field types.FactValue, cond types.Condition, policy types.NumericEqualityPolicy) bool {
	switch op {
	case types.OpEqual:
		return field.Equal(cond.Value, policy)
	case types.OpNotEqual:
		return !field.Equal(cond.Value, policy)
	case types.OpLess:
		r, ok := field.Compare(cond.Value)
		return ok && r < 0
	case types.OpLessEq:
		r, ok := field.Compare(cond.Value)
		return ok && r <= 0
	case types.OpGreater:
		r, ok := field.Compare(cond.Value)
		return ok && r > 0
	case types.OpGreaterEq:
		r, ok := field.Compare(cond.Value)
		return ok && r >= 0
	case types.OpContains:
		return containsOp(field, cond.Value, policy)
	case types.OpStartsWith:
		fs, ok1 := field.AsString()
		cs, ok2 := cond.Value.AsString()
		return ok1 && ok2 && strings.HasPrefix(fs, cs)
	case types.OpEndsWith:
		fs, ok1 := field.AsString()
		cs, ok2 := cond.Value.AsString()
		return ok1 && ok2 && strings.HasSuffix(fs, cs)
	case types.OpIn:
		for _, v := range cond.InValues {
			if field.Equal(v, policy) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func containsOp(field, needle types.FactValue, policy types.NumericEqualityPolicy) bool {
	if fs, ok := field.AsString(); ok {
		if ns, ok := needle.AsString(); ok {
			return strings.Contains(fs, ns)
		}
		return false
	}
	if arr, ok := field.AsArray(); ok {
		for _, e := range arr {
			if e.Equal(needle, policy) {
				return true
			}
		}
		return false
	}
	return false
}

// evalSimple evaluates a Simple condition against a fact. It is only used
// for conditions without ValueRef — cross-fact comparisons are evaluated
// as join/not predicates instead (see predicate.go).
func evalSimple(cond types.Condition, fact *types.Fact, policy types.NumericEqualityPolicy) bool {
	v, ok := fact.Get(cond.Field)
	if !ok {
		return false
	}
	return compareSimple(cond.Operator, v, cond, policy)
}

// evalPureLogical evaluates a Complex condition (and/or/not) whose entire
// sub-tree is free of ValueRef references, against a single fact.
func evalPureLogical(cond types.Condition, fact *types.Fact, policy types.NumericEqualityPolicy) bool {
	switch cond.Type {
	case types.ConditionSimple:
		return evalSimple(cond, fact, policy)
	case types.ConditionComplex:
		switch cond.Logical {
		case types.LogicalAnd:
			for _, sub := range cond.Sub {
				if !evalPureLogical(sub, fact, policy) {
					return false
				}
			}
			return true
		case types.LogicalOr:
			for _, sub := range cond.Sub {
				if evalPureLogical(sub, fact, policy) {
					return true
				}
			}
			return false
		case types.LogicalNot:
			if len(cond.Sub) != 1 {
				return false
			}
			return !evalPureLogical(cond.Sub[0], fact, policy)
		}
	}
	return false
}

// hasValueRef reports whether any Simple condition reachable from cond
// references the primary matched fact's field (spec.md §4.2 step 4's join
// key declaration embedded in a condition).
func hasValueRef(cond types.Condition) bool {
	if cond.Type == types.ConditionSimple {
		return cond.ValueRef != ""
	}
	for _, sub := range cond.Sub {
		if hasValueRef(sub) {
			return true
		}
	}
	return false
}

// canonicalKey produces a structural key for node sharing (spec.md §4.2
// step 2): identical conditions across different rules map to the same
// alpha node. Two conditions differing only in literal value are
// deliberately distinct keys (spec.md §4.2 tie-break note).
func canonicalKey(cond types.Condition) string {
	var b strings.Builder
	writeCanonical(&b, cond)
	return b.String()
}

func writeCanonical(b *strings.Builder, cond types.Condition) {
	switch cond.Type {
	case types.ConditionSimple:
		fmt.Fprintf(b, "S(%s,%s,%v,%v,%s)", cond.Field, cond.Operator, cond.Value, cond.InValues, cond.ValueRef)
	case types.ConditionComplex:
		fmt.Fprintf(b, "C(%s,[", cond.Logical)
		for _, s := range cond.Sub {
			writeCanonical(b, s)
			b.WriteByte(',')
		}
		b.WriteString("])")
	case types.ConditionAggregation:
		having := ""
		if cond.Having != nil {
			having = canonicalKey(*cond.Having)
		}
		fmt.Fprintf(b, "A(%s,%v,%s,%v,%s,%s)", cond.AggKind, cond.Percentile, cond.SourceField, cond.GroupBy, having, cond.Alias)
	case types.ConditionStream:
		fmt.Fprintf(b, "W(%v,%s)", cond.Window, canonicalKey(types.Condition{Type: types.ConditionAggregation, AggKind: cond.AggKind, SourceField: cond.SourceField, GroupBy: cond.GroupBy, Alias: cond.Alias}))
	}
}
