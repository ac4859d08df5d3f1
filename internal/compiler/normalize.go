package compiler

import (
	"fmt"
	"sort"

	"github.com/weftengine/rules/internal/store"
	"github.com/weftengine/rules/internal/types"
)

// validateArity enforces spec.md §4.2's InvalidRule triggers: `not` must
// take exactly one sub-condition, aggregations must name a real source
// field, operators must be known.
func validateArity(cond types.Condition) error {
	switch cond.Type {
	case types.ConditionSimple:
		switch cond.Operator {
		case types.OpEqual, types.OpNotEqual, types.OpLess, types.OpLessEq,
			types.OpGreater, types.OpGreaterEq, types.OpContains,
			types.OpStartsWith, types.OpEndsWith, types.OpIn:
		default:
			return fmt.Errorf("unknown operator %q: %w", cond.Operator, types.ErrInvalidRule)
		}
		if cond.Operator == types.OpIn && len(cond.InValues) == 0 {
			return fmt.Errorf("in operator requires at least one value: %w", types.ErrInvalidRule)
		}
	case types.ConditionComplex:
		switch cond.Logical {
		case types.LogicalNot:
			if len(cond.Sub) != 1 {
				return fmt.Errorf("not requires exactly one sub-condition, got %d: %w", len(cond.Sub), types.ErrInvalidRule)
			}
		case types.LogicalAnd, types.LogicalOr:
			if len(cond.Sub) == 0 {
				return fmt.Errorf("%s requires at least one sub-condition: %w", cond.Logical, types.ErrInvalidRule)
			}
		default:
			return fmt.Errorf("unknown logical operator %q: %w", cond.Logical, types.ErrInvalidRule)
		}
		for _, sub := range cond.Sub {
			if err := validateArity(sub); err != nil {
				return err
			}
		}
	case types.ConditionAggregation, types.ConditionStream:
		if cond.SourceField == "" && cond.AggKind != types.AggCount {
			return fmt.Errorf("aggregation requires a source field: %w", types.ErrInvalidRule)
		}
		switch cond.AggKind {
		case types.AggSum, types.AggCount, types.AggAvg, types.AggMin, types.AggMax, types.AggStddev, types.AggPercentile:
		default:
			return fmt.Errorf("unknown aggregation kind %q: %w", cond.AggKind, types.ErrInvalidRule)
		}
		if cond.Having != nil {
			if err := validateArity(*cond.Having); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown condition type %q: %w", cond.Type, types.ErrInvalidRule)
	}
	return nil
}

// flattenAnd recursively inlines nested and-conditions into their parent's
// sub-list (spec.md §4.2 step 1).
func flattenAnd(cond types.Condition) types.Condition {
	if cond.Type != types.ConditionComplex {
		return cond
	}
	flatSubs := make([]types.Condition, 0, len(cond.Sub))
	for _, sub := range cond.Sub {
		sub = flattenAnd(sub)
		if cond.Logical == types.LogicalAnd && sub.Type == types.ConditionComplex && sub.Logical == types.LogicalAnd {
			flatSubs = append(flatSubs, sub.Sub...)
		} else {
			flatSubs = append(flatSubs, sub)
		}
	}
	cond.Sub = flatSubs
	return cond
}

// selectivity ranks a condition for ordering: lower values are evaluated
// first (spec.md §4.2 step 1 — "equality-on-indexed-field > inequality >
// range > function call"). "Function call" here means anything this
// compiler cannot attribute to a single indexed field: complex subtrees,
// aggregations, and cross-fact (ValueRef) comparisons.
func selectivity(cond types.Condition, st *store.Store, hints map[string]int) int {
	const (
		rankEqIndexed = 0
		rankEq        = 10
		rankIn        = 15
		rankInequal   = 20
		rankRange     = 30
		rankOther     = 100
	)
	switch cond.Type {
	case types.ConditionSimple:
		if cond.ValueRef != "" {
			return rankOther
		}
		base := rankOther
		switch cond.Operator {
		case types.OpEqual:
			base = rankEq
			if st != nil && st.HasIndex(cond.Field) {
				base = rankEqIndexed
			}
		case types.OpIn:
			base = rankIn
		case types.OpNotEqual:
			base = rankInequal
		case types.OpLess, types.OpLessEq, types.OpGreater, types.OpGreaterEq:
			base = rankRange
		case types.OpContains, types.OpStartsWith, types.OpEndsWith:
			base = rankRange + 5
		}
		if card, ok := hints[cond.Field]; ok && card > 0 {
			// Lower cardinality (more selective) sorts earlier within its
			// operator class; scaled down so it only breaks ties within a
			// class, never crosses a class boundary.
			base += clampCardinality(card)
		}
		return base
	case types.ConditionComplex:
		if cond.Logical == types.LogicalNot {
			return rankOther - 1
		}
		return rankOther
	default:
		return rankOther + 10
	}
}

func clampCardinality(card int) int {
	if card > 4 {
		return 4
	}
	if card < 0 {
		return 0
	}
	return card
}

// NormalizeRule validates, flattens, and orders one rule's conditions
// in place, returning the ordered copy (spec.md §4.2 step 1).
func NormalizeRule(rule *types.Rule, st *store.Store, hints map[string]int) ([]types.Condition, error) {
	out := make([]types.Condition, len(rule.Conditions))
	for i, cond := range rule.Conditions {
		if err := validateArity(cond); err != nil {
			return nil, fmt.Errorf("rule %s condition %d: %w", rule.ID, i, err)
		}
		out[i] = flattenAnd(cond)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return selectivity(out[i], st, hints) < selectivity(out[j], st, hints)
	})
	return out, nil
}
