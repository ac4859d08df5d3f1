package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftengine/rules/internal/types"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRulesSimpleCondition(t *testing.T) {
	path := writeTemp(t, "rules.yaml", `
rules:
  - id: r1
    name: high value order
    priority: 5
    conditions:
      - field: amount
        operator: ">"
        value: 100
    actions:
      - type: trigger_alert
        alert_type: high_value
        severity: warning
        alert_message: order over threshold
`)
	rules, err := loadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)

	r := rules[0]
	assert.Equal(t, types.RuleID("r1"), r.ID)
	assert.True(t, r.Enabled)
	assert.Equal(t, 5, r.Priority)
	require.Len(t, r.Conditions, 1)
	assert.Equal(t, types.ConditionSimple, r.Conditions[0].Type)
	assert.Equal(t, types.OpGreater, r.Conditions[0].Operator)
	assert.Equal(t, types.Int(100), r.Conditions[0].Value)
	require.Len(t, r.Actions, 1)
	assert.Equal(t, types.ActionTriggerAlert, r.Actions[0].Type)
	assert.Equal(t, types.AlertSeverity("warning"), r.Actions[0].AlertSeverity)
}

func TestLoadRulesDisabledDefaultsToEnabledWhenUnset(t *testing.T) {
	path := writeTemp(t, "rules.yaml", `
rules:
  - id: r1
    conditions:
      - field: a
        operator: "="
        value: 1
    actions:
      - type: log
        message: hi
`)
	rules, err := loadRules(path)
	require.NoError(t, err)
	assert.True(t, rules[0].Enabled)
}

func TestLoadRulesExplicitDisabled(t *testing.T) {
	path := writeTemp(t, "rules.yaml", `
rules:
  - id: r1
    enabled: false
    conditions:
      - field: a
        operator: "="
        value: 1
    actions:
      - type: log
        message: hi
`)
	rules, err := loadRules(path)
	require.NoError(t, err)
	assert.False(t, rules[0].Enabled)
}

func TestLoadRulesLogicalNot(t *testing.T) {
	path := writeTemp(t, "rules.yaml", `
rules:
  - id: r1
    conditions:
      - logical: not
        sub:
          - field: status
            operator: "="
            value: cancelled
    actions:
      - type: log
        message: not cancelled
`)
	rules, err := loadRules(path)
	require.NoError(t, err)
	cond := rules[0].Conditions[0]
	assert.Equal(t, types.ConditionComplex, cond.Type)
	assert.Equal(t, types.LogicalNot, cond.Logical)
	require.Len(t, cond.Sub, 1)
	assert.Equal(t, "status", cond.Sub[0].Field)
}

func TestLoadRulesAggregationStreamFlag(t *testing.T) {
	path := writeTemp(t, "rules.yaml", `
rules:
  - id: r1
    conditions:
      - agg: avg
        source_field: amount
        group_by: [customer_id]
        stream: true
        alias: avg_amount
    actions:
      - type: log
        message: hot path
`)
	rules, err := loadRules(path)
	require.NoError(t, err)
	cond := rules[0].Conditions[0]
	assert.Equal(t, types.ConditionStream, cond.Type)
	assert.Equal(t, types.AggregationKind("avg"), cond.AggKind)
	assert.Equal(t, "avg_amount", cond.Alias)
	assert.Equal(t, []string{"customer_id"}, cond.GroupBy)
}

func TestLoadRulesCreateFactActionWithRefAndLiteral(t *testing.T) {
	path := writeTemp(t, "rules.yaml", `
rules:
  - id: r1
    conditions:
      - field: a
        operator: "="
        value: 1
    actions:
      - type: create_fact
        new_fact:
          kind:
            value: derived
          amount:
            ref: amount
`)
	rules, err := loadRules(path)
	require.NoError(t, err)
	act := rules[0].Actions[0]
	assert.Equal(t, types.ActionCreateFact, act.Type)
	assert.Equal(t, types.String("derived"), act.NewFactFields["kind"].Literal)
	assert.Equal(t, "amount", act.NewFactFields["amount"].Ref)
}

func TestLoadRulesUnknownActionTypeErrors(t *testing.T) {
	path := writeTemp(t, "rules.yaml", `
rules:
  - id: r1
    conditions:
      - field: a
        operator: "="
        value: 1
    actions:
      - type: teleport
`)
	_, err := loadRules(path)
	require.Error(t, err)
}

func TestLoadRulesMissingFileErrors(t *testing.T) {
	_, err := loadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestFromYAMLConvertsNestedCollections(t *testing.T) {
	v := fromYAML(map[string]any{
		"items": []any{1, "two", 3.5, nil, true},
	})
	m, ok := v.AsMap()
	require.True(t, ok)
	arr, ok := m["items"].AsArray()
	require.True(t, ok)
	require.Len(t, arr, 5)
	assert.Equal(t, types.Int(1), arr[0])
	assert.Equal(t, types.String("two"), arr[1])
	assert.Equal(t, types.Float(3.5), arr[2])
	assert.Equal(t, types.Null(), arr[3])
	assert.Equal(t, types.Bool(true), arr[4])
}
