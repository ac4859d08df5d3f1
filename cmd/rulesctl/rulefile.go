package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/weftengine/rules/internal/types"
)

// ruleFile is the on-disk YAML shape rules are authored in (spec.md §6
// CompileRules input), mirroring beads' own preference for YAML template
// files (cmd/bd/workflow.go) over a bespoke binary format.
type ruleFile struct {
	Rules []yamlRule `yaml:"rules"`
}

type yamlRule struct {
	ID          string        `yaml:"id"`
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Priority    int           `yaml:"priority"`
	Enabled     *bool         `yaml:"enabled"`
	Tags        []string      `yaml:"tags"`
	Conditions  []yamlCond    `yaml:"conditions"`
	Actions     []yamlAction  `yaml:"actions"`
}

type yamlCond struct {
	Field    string     `yaml:"field"`
	Operator string     `yaml:"operator"`
	Value    any        `yaml:"value"`
	In       []any      `yaml:"in"`
	ValueRef string     `yaml:"value_ref"`

	Logical string     `yaml:"logical"` // and | or | not
	Sub     []yamlCond `yaml:"sub"`

	Agg         string       `yaml:"agg"` // sum|count|avg|min|max|stddev|percentile
	Percentile  float64      `yaml:"percentile"`
	SourceField string       `yaml:"source_field"`
	GroupBy     []string     `yaml:"group_by"`
	Having      *yamlCond    `yaml:"having"`
	Alias       string       `yaml:"alias"`
	Stream      bool         `yaml:"stream"`
}

type yamlAction struct {
	Type string `yaml:"type"` // log|set_field|unset_field|create_fact|call_calculator|trigger_alert|formula

	Message string `yaml:"message"`

	Field string `yaml:"field"`
	Value any    `yaml:"value"`
	Ref   string `yaml:"ref"`

	NewFact map[string]yamlFieldValue `yaml:"new_fact"`

	Calculator       string            `yaml:"calculator"`
	CalculatorInputs map[string]string `yaml:"inputs"`
	Output           string            `yaml:"output"`

	AlertType     string         `yaml:"alert_type"`
	AlertSeverity string         `yaml:"severity"`
	AlertMessage  string         `yaml:"alert_message"`
	AlertMetadata map[string]any `yaml:"metadata"`

	Formula string `yaml:"formula"`
}

type yamlFieldValue struct {
	Value any    `yaml:"value"`
	Ref   string `yaml:"ref"`
}

// loadRules reads and converts a rule file from path.
func loadRules(path string) ([]*types.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file %s: %w", path, err)
	}
	var rf ruleFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rule file %s: %w", path, err)
	}

	rules := make([]*types.Rule, 0, len(rf.Rules))
	for _, yr := range rf.Rules {
		r, err := yr.toRule()
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", yr.ID, err)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func (yr yamlRule) toRule() (*types.Rule, error) {
	enabled := true
	if yr.Enabled != nil {
		enabled = *yr.Enabled
	}
	conds := make([]types.Condition, 0, len(yr.Conditions))
	for _, c := range yr.Conditions {
		cond, err := c.toCondition()
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	actions := make([]types.Action, 0, len(yr.Actions))
	for _, a := range yr.Actions {
		act, err := a.toAction()
		if err != nil {
			return nil, err
		}
		actions = append(actions, act)
	}
	return &types.Rule{
		ID:          types.RuleID(yr.ID),
		Name:        yr.Name,
		Description: yr.Description,
		Conditions:  conds,
		Actions:     actions,
		Priority:    yr.Priority,
		Tags:        yr.Tags,
		Enabled:     enabled,
	}, nil
}

func (c yamlCond) toCondition() (types.Condition, error) {
	switch {
	case c.Logical != "":
		sub := make([]types.Condition, 0, len(c.Sub))
		for _, s := range c.Sub {
			sc, err := s.toCondition()
			if err != nil {
				return types.Condition{}, err
			}
			sub = append(sub, sc)
		}
		return types.Condition{
			Type:    types.ConditionComplex,
			Logical: types.LogicalOperator(c.Logical),
			Sub:     sub,
		}, nil

	case c.Agg != "":
		var having *types.Condition
		if c.Having != nil {
			h, err := c.Having.toCondition()
			if err != nil {
				return types.Condition{}, err
			}
			having = &h
		}
		kind := types.ConditionAggregation
		if c.Stream {
			kind = types.ConditionStream
		}
		return types.Condition{
			Type:        kind,
			AggKind:     types.AggregationKind(c.Agg),
			Percentile:  c.Percentile,
			SourceField: c.SourceField,
			GroupBy:     c.GroupBy,
			Having:      having,
			Alias:       c.Alias,
		}, nil

	default:
		in := make([]types.FactValue, 0, len(c.In))
		for _, v := range c.In {
			in = append(in, fromYAML(v))
		}
		return types.Condition{
			Type:     types.ConditionSimple,
			Field:    c.Field,
			Operator: types.SimpleOperator(c.Operator),
			Value:    fromYAML(c.Value),
			InValues: in,
			ValueRef: c.ValueRef,
		}, nil
	}
}

func (a yamlAction) toAction() (types.Action, error) {
	act := types.Action{Type: types.ActionType(a.Type)}
	switch act.Type {
	case types.ActionLog:
		act.Message = a.Message
	case types.ActionSetField:
		act.Field = a.Field
		act.Value = fromYAML(a.Value)
		act.Ref = a.Ref
	case types.ActionUnsetField:
		act.Field = a.Field
	case types.ActionCreateFact:
		fields := make(map[string]types.ActionFieldValue, len(a.NewFact))
		for name, fv := range a.NewFact {
			fields[name] = types.ActionFieldValue{Literal: fromYAML(fv.Value), Ref: fv.Ref}
		}
		act.NewFactFields = fields
	case types.ActionCallCalc:
		act.CalculatorName = a.Calculator
		act.CalculatorInputs = a.CalculatorInputs
		act.CalculatorOutput = a.Output
	case types.ActionTriggerAlert:
		act.AlertType = a.AlertType
		act.AlertSeverity = types.AlertSeverity(a.AlertSeverity)
		act.AlertMessage = a.AlertMessage
		meta := make(map[string]types.FactValue, len(a.AlertMetadata))
		for k, v := range a.AlertMetadata {
			meta[k] = fromYAML(v)
		}
		act.AlertMetadata = meta
	case types.ActionFormula:
		act.Field = a.Field
		act.Formula = a.Formula
	default:
		return types.Action{}, fmt.Errorf("unknown action type %q", a.Type)
	}
	return act, nil
}

// fromYAML converts a yaml.v3-decoded any (int, float64, bool, string,
// []any, map[string]any, or nil) into a types.FactValue.
func fromYAML(v any) types.FactValue {
	switch x := v.(type) {
	case nil:
		return types.Null()
	case int:
		return types.Int(int64(x))
	case int64:
		return types.Int(x)
	case float64:
		return types.Float(x)
	case bool:
		return types.Bool(x)
	case string:
		return types.String(x)
	case []any:
		arr := make([]types.FactValue, 0, len(x))
		for _, e := range x {
			arr = append(arr, fromYAML(e))
		}
		return types.Array(arr...)
	case map[string]any:
		m := make(map[string]types.FactValue, len(x))
		for k, e := range x {
			m[k] = fromYAML(e)
		}
		return types.Map(m)
	default:
		return types.String(fmt.Sprintf("%v", x))
	}
}
