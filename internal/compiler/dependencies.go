package compiler

import "github.com/weftengine/rules/internal/types"

// fieldsWritten returns every fact field rule's actions (or its own
// aggregation alias) could populate.
func fieldsWritten(rule *types.Rule) []string {
	var out []string
	for _, c := range rule.Conditions {
		if c.Alias != "" {
			out = append(out, c.Alias)
		}
	}
	for _, a := range rule.Actions {
		switch a.Type {
		case types.ActionSetField, types.ActionFormula:
			if a.Field != "" {
				out = append(out, a.Field)
			}
		case types.ActionCreateFact:
			for f := range a.NewFactFields {
				out = append(out, f)
			}
		case types.ActionCallCalc:
			if a.CalculatorOutput != "" {
				out = append(out, a.CalculatorOutput)
			}
		}
	}
	return out
}

// fieldsRead returns every fact field rule's conditions test.
func fieldsRead(rule *types.Rule) []string {
	var out []string
	for _, c := range rule.Conditions {
		out = append(out, conditionFields(c)...)
	}
	return out
}

func conditionFields(c types.Condition) []string {
	var out []string
	switch c.Type {
	case types.ConditionSimple:
		if c.Field != "" {
			out = append(out, c.Field)
		}
		if c.ValueRef != "" {
			out = append(out, c.ValueRef)
		}
	case types.ConditionComplex:
		for _, sub := range c.Sub {
			out = append(out, conditionFields(sub)...)
		}
	case types.ConditionAggregation, types.ConditionStream:
		out = append(out, c.SourceField)
		out = append(out, c.GroupBy...)
		if c.Having != nil {
			out = append(out, conditionFields(*c.Having)...)
		}
	}
	return out
}

// topoSortRules produces a best-effort, deterministic ordering of rules by
// producer/consumer edges through fact fields: if rule A's actions can
// write a field rule B's conditions read, A is ordered before B. This is a
// diagnostic only — actual firing order is always the agenda's total order
// (spec.md §4.6) — so a cycle is broken by falling back to input order for
// whatever remains once no more edges can be resolved, rather than erroring.
func topoSortRules(rules []*types.Rule) []types.RuleID {
	n := len(rules)
	indexOf := make(map[types.RuleID]int, n)
	for i, r := range rules {
		indexOf[r.ID] = i
	}

	writers := make(map[string][]int) // field -> rule indices that write it
	for i, r := range rules {
		for _, f := range fieldsWritten(r) {
			writers[f] = append(writers[f], i)
		}
	}

	adj := make([][]int, n)
	indegree := make([]int, n)
	edgeSeen := make(map[[2]int]bool)
	for i, r := range rules {
		for _, f := range fieldsRead(r) {
			for _, wi := range writers[f] {
				if wi == i {
					continue
				}
				key := [2]int{wi, i}
				if edgeSeen[key] {
					continue
				}
				edgeSeen[key] = true
				adj[wi] = append(adj[wi], i)
				indegree[i]++
			}
		}
	}

	visited := make([]bool, n)
	var order []types.RuleID
	for len(order) < n {
		progressed := false
		for i := 0; i < n; i++ {
			if visited[i] || indegree[i] > 0 {
				continue
			}
			visited[i] = true
			order = append(order, rules[i].ID)
			for _, j := range adj[i] {
				indegree[j]--
			}
			progressed = true
		}
		if !progressed {
			// Cycle (or mutual dependency): append whatever remains in
			// original input order rather than looping forever.
			for i := 0; i < n; i++ {
				if !visited[i] {
					visited[i] = true
					order = append(order, rules[i].ID)
				}
			}
		}
	}
	return order
}
