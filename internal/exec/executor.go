// Package exec runs a fired rule's actions in declared order (spec.md
// §4.7): field writes, derived facts, calculator calls, alerts, and
// formula evaluation, each seeing every write a preceding action in the
// same firing made.
package exec

import (
	"github.com/weftengine/rules/internal/calc"
	"github.com/weftengine/rules/internal/network"
	"github.com/weftengine/rules/internal/store"
	"github.com/weftengine/rules/internal/types"
)

// CalculatorOutcome records one call_calculator action's result.
type CalculatorOutcome struct {
	Name        string
	OutputField string
	Value       types.FactValue
}

// AlertOutcome records one trigger_alert action.
type AlertOutcome struct {
	Type     string
	Severity types.AlertSeverity
	Message  string
	Metadata map[string]types.FactValue
}

// ActionOutcome is one action's contribution to an ExecutionResult (spec.md
// §6): at most one of FieldWrites, CreatedFactID, Calculator, Alert, or Err
// is populated, matching the action's declared type; a log action populates
// none of them.
type ActionOutcome struct {
	Index         int
	FieldWrites   map[string]types.FactValue
	CreatedFactID types.FactID
	Calculator    *CalculatorOutcome
	Alert         *AlertOutcome
	Err           *types.CalculatorError
}

// FiringResult is the per-activation record spec.md §6's ExecutionResult
// stream is built from.
type FiringResult struct {
	Rule     *types.Rule
	FactIDs  []types.FactID
	Outcomes []ActionOutcome
}

// Executor runs a rule's actions against the fact bound by a firing's
// token. The beta network this compiler builds never accumulates more than
// one real fact per token — join and not-nodes always correlate against
// the rule's own primary fact rather than chaining multiple bound facts
// into one token (see internal/compiler/rule.go) — so there is exactly one
// fact a firing's field writes, unsets, and Refs apply to: the one bound
// at tok.FactID.
type Executor struct {
	Store   *store.Store
	Network *network.Network // optional; nil skips re-propagation of field writes
	Calc    *calc.Cache
	Policy  types.NumericEqualityPolicy
}

func New(st *store.Store, nw *network.Network, c *calc.Cache, policy types.NumericEqualityPolicy) *Executor {
	return &Executor{Store: st, Network: nw, Calc: c, Policy: policy}
}

// Fire runs rule's actions in order and commits any field writes back to
// the fact store (spec.md §4.7, §4.2 step 5).
func (ex *Executor) Fire(rule *types.Rule, tok *types.Token) FiringResult {
	primary, primaryOK := ex.Store.Get(tok.FactID)
	var base map[string]types.FactValue
	if primaryOK {
		base = primary.Fields
	}

	overlay := make(map[string]types.FactValue)
	removed := make(map[string]bool)
	read := func(field string) (types.FactValue, bool) {
		if removed[field] {
			return types.FactValue{}, false
		}
		if v, ok := overlay[field]; ok {
			return v, true
		}
		if base == nil {
			return types.FactValue{}, false
		}
		v, ok := base[field]
		return v, ok
	}

	outcomes := make([]ActionOutcome, 0, len(rule.Actions))
	for i, action := range rule.Actions {
		oc := ActionOutcome{Index: i}
		switch action.Type {
		case types.ActionLog:
			// No state change; the message itself is carried on the
			// firing result for the host's own logging pipeline.

		case types.ActionSetField:
			v := action.Value
			if action.Ref != "" {
				if rv, ok := read(action.Ref); ok {
					v = rv
				}
			}
			overlay[action.Field] = v
			delete(removed, action.Field)
			oc.FieldWrites = map[string]types.FactValue{action.Field: v}

		case types.ActionUnsetField:
			delete(overlay, action.Field)
			removed[action.Field] = true
			oc.FieldWrites = map[string]types.FactValue{}

		case types.ActionCreateFact:
			fields := make(map[string]types.FactValue, len(action.NewFactFields))
			for name, fv := range action.NewFactFields {
				if fv.Ref != "" {
					if rv, ok := read(fv.Ref); ok {
						fields[name] = rv
						continue
					}
				}
				fields[name] = fv.Literal
			}
			id, err := ex.Store.Insert(fields, "")
			if err == nil {
				oc.CreatedFactID = id
				if ex.Network != nil {
					ex.Network.AssertFact(id)
				}
			}

		case types.ActionCallCalc:
			inputs := make(map[string]types.FactValue, len(action.CalculatorInputs))
			for name, ref := range action.CalculatorInputs {
				if v, ok := read(ref); ok {
					inputs[name] = v
				}
			}
			result, err := ex.Calc.Invoke(action.CalculatorName, inputs, ex.Policy)
			if err != nil {
				oc.Err = asCalcError(err)
				ex.recordErrorFact(action, oc.Err, tok.FactID)
			} else {
				overlay[action.CalculatorOutput] = result
				oc.Calculator = &CalculatorOutcome{Name: action.CalculatorName, OutputField: action.CalculatorOutput, Value: result}
			}

		case types.ActionTriggerAlert:
			oc.Alert = &AlertOutcome{
				Type:     action.AlertType,
				Severity: action.AlertSeverity,
				Message:  action.AlertMessage,
				Metadata: action.AlertMetadata,
			}

		case types.ActionFormula:
			v, err := EvalFormula(action.Formula, read)
			if err != nil {
				ce := asCalcError(err)
				if ce.Field == "" {
					ce.Field = action.Field
				}
				oc.Err = ce
			} else {
				overlay[action.Field] = v
				oc.FieldWrites = map[string]types.FactValue{action.Field: v}
			}
		}
		outcomes = append(outcomes, oc)
	}

	ex.commit(rule, tok.FactID, primary, base, overlay, removed)

	return FiringResult{Rule: rule, FactIDs: tok.Bindings(), Outcomes: outcomes}
}

// commit applies overlay/removed to the store fact via retract-then-reassert
// (the same update semantics the aggregation node already uses for its own
// derived facts), so downstream rules in the same batch see the new values.
// The re-assert suppresses rule's own terminal(s) (spec.md §8 scenarios
// 1-2): rule just fired on the old fact, and a field write its own
// condition doesn't depend on would otherwise match the new fact again,
// forever. Other rules sharing the same alpha/beta nodes still see the
// update normally. A firing with no field writes is a no-op here.
func (ex *Executor) commit(rule *types.Rule, id types.FactID, fact *types.Fact, base map[string]types.FactValue, overlay map[string]types.FactValue, removed map[string]bool) {
	if fact == nil || (len(overlay) == 0 && len(removed) == 0) {
		return
	}
	merged := make(map[string]types.FactValue, len(base)+len(overlay))
	for k, v := range base {
		if !removed[k] {
			merged[k] = v
		}
	}
	for k, v := range overlay {
		merged[k] = v
	}

	if ex.Network != nil {
		ex.Network.RetractFact(id)
	}
	ex.Store.Retract(id)

	newID, err := ex.Store.Insert(merged, fact.ExternalID)
	if err != nil {
		return
	}
	if ex.Network != nil {
		ex.Network.AssertFactForCommit(newID, rule)
	}
}

func (ex *Executor) recordErrorFact(action types.Action, ce *types.CalculatorError, triggeringFactID types.FactID) {
	fields := map[string]types.FactValue{
		"kind":               types.String("calculator_error"),
		"calculator_name":    types.String(action.CalculatorName),
		"error_code":         types.String(string(ce.Code)),
		"message":            types.String(ce.Message),
		"field":              types.String(ce.Field),
		"triggering_fact_id": types.Int(int64(triggeringFactID)),
	}
	id, err := ex.Store.Insert(fields, "")
	if err == nil && ex.Network != nil {
		ex.Network.AssertFact(id)
	}
}

func asCalcError(err error) *types.CalculatorError {
	if ce, ok := err.(*types.CalculatorError); ok {
		return ce
	}
	return &types.CalculatorError{Code: types.ErrCodeBusinessRuleViolation, Message: err.Error()}
}
