package network

import (
	"math"
	"sort"

	"github.com/weftengine/rules/internal/types"
)

// HavingTest evaluates an aggregation's having-condition against the
// synthetic {alias: value} fact it would emit.
type HavingTest func(value types.FactValue) bool

// aggGroup is the incremental state kept per group-by key (spec.md §4.4).
type aggGroup struct {
	members        map[types.FactID]float64
	insertionOrder []types.FactID
	emittedFactID  types.FactID
	emittedTokenID types.TokenID
	hasEmitted     bool
	lastValue      types.FactValue
}

// AggregationNode groups contributing facts by a group-by key, maintains
// incremental per-group reduction state, and emits a synthetic fact/token
// carrying the aggregate value under Alias whenever Having passes
// (spec.md §4.4). It is driven purely by fact admit/evict events from its
// source alpha memory.
type AggregationNode struct {
	id          int
	kind        types.AggregationKind
	percentile  float64
	sourceField string
	groupBy     []string
	having      HavingTest
	alias       string

	groups     map[string]*aggGroup
	successors []LeftInput
}

func NewAggregationNode(id int, kind types.AggregationKind, percentile float64, sourceField string, groupBy []string, having HavingTest, alias string) *AggregationNode {
	return &AggregationNode{
		id: id, kind: kind, percentile: percentile, sourceField: sourceField,
		groupBy: groupBy, having: having, alias: alias,
		groups: make(map[string]*aggGroup),
	}
}

func (a *AggregationNode) ID() int                 { return a.id }
func (a *AggregationNode) AddSuccessor(s LeftInput) { a.successors = append(a.successors, s) }

func (a *AggregationNode) groupKey(rt *Runtime, factID types.FactID) (string, bool) {
	fact, ok := rt.Store.Get(factID)
	if !ok {
		return "", false
	}
	key := ""
	for _, f := range a.groupBy {
		v, ok := fact.Get(f)
		if !ok {
			return "", false
		}
		key += v.String() + "\x1f"
	}
	return key, true
}

func (a *AggregationNode) reduce(rt *Runtime, g *aggGroup) types.FactValue {
	values := make([]float64, len(g.insertionOrder))
	for i, id := range g.insertionOrder {
		values[i] = g.members[id]
	}
	if rt.FloatOrder == OrderSorted {
		sort.Float64s(values)
	}
	switch a.kind {
	case types.AggCount:
		return types.Int(int64(len(values)))
	case types.AggSum:
		var sum float64
		for _, v := range values {
			sum += v
		}
		return types.Float(sum)
	case types.AggAvg:
		if len(values) == 0 {
			return types.Float(0)
		}
		var sum float64
		for _, v := range values {
			sum += v
		}
		return types.Float(sum / float64(len(values)))
	case types.AggMin:
		if len(values) == 0 {
			return types.Null()
		}
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return types.Float(m)
	case types.AggMax:
		if len(values) == 0 {
			return types.Null()
		}
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return types.Float(m)
	case types.AggStddev:
		n := len(values)
		if n == 0 {
			return types.Float(0)
		}
		var sum float64
		for _, v := range values {
			sum += v
		}
		mean := sum / float64(n)
		var sq float64
		for _, v := range values {
			d := v - mean
			sq += d * d
		}
		return types.Float(math.Sqrt(sq / float64(n)))
	case types.AggPercentile:
		if len(values) == 0 {
			return types.Float(0)
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		rank := a.percentile / 100 * float64(len(sorted)-1)
		lo := int(math.Floor(rank))
		hi := int(math.Ceil(rank))
		if lo == hi {
			return types.Float(sorted[lo])
		}
		frac := rank - float64(lo)
		return types.Float(sorted[lo]*(1-frac) + sorted[hi]*frac)
	default:
		return types.Null()
	}
}

func (a *AggregationNode) retractEmitted(rt *Runtime, g *aggGroup) {
	if !g.hasEmitted {
		return
	}
	tok := &types.Token{ID: g.emittedTokenID, Parent: rt.RootToken, FactID: g.emittedFactID}
	for _, s := range a.successors {
		s.OnLeftRetract(rt, tok)
	}
	rt.Store.Retract(g.emittedFactID)
	g.hasEmitted = false
}

func (a *AggregationNode) emit(rt *Runtime, g *aggGroup, value types.FactValue) {
	fields := map[string]types.FactValue{a.alias: value, "kind": types.String("aggregate")}
	id, err := rt.Store.Insert(fields, "")
	if err != nil {
		return
	}
	tok := &types.Token{ID: rt.nextTokenID(), Parent: rt.RootToken, FactID: id}
	g.emittedFactID = id
	g.emittedTokenID = tok.ID
	g.hasEmitted = true
	g.lastValue = value
	for _, s := range a.successors {
		s.OnLeftAssert(rt, tok)
	}
}

func (a *AggregationNode) recompute(rt *Runtime, g *aggGroup) {
	value := a.reduce(rt, g)
	satisfied := a.having == nil || a.having(value)
	switch {
	case !satisfied:
		a.retractEmitted(rt, g)
	case !g.hasEmitted:
		a.emit(rt, g, value)
	case !g.lastValue.Equal(value, rt.Policy):
		a.retractEmitted(rt, g)
		a.emit(rt, g, value)
	}
}

// OnRightAssert adds a contributing fact to its group and re-evaluates the
// having-condition.
func (a *AggregationNode) OnRightAssert(rt *Runtime, factID types.FactID) {
	key, ok := a.groupKey(rt, factID)
	if !ok {
		return
	}
	fact, _ := rt.Store.Get(factID)
	v, ok := fact.Get(a.sourceField)
	if !ok && a.kind != types.AggCount {
		return
	}
	f, _, ok := v.Numeric()
	if !ok && a.kind != types.AggCount {
		return
	}
	g, ok := a.groups[key]
	if !ok {
		g = &aggGroup{members: make(map[types.FactID]float64)}
		a.groups[key] = g
	}
	g.members[factID] = f
	g.insertionOrder = append(g.insertionOrder, factID)
	a.recompute(rt, g)
}

// OnRightRetract removes a contributing fact from its group and
// re-evaluates the having-condition; a group that falls back below having
// has its emitted fact/token retracted (spec.md §8 scenario 3).
func (a *AggregationNode) OnRightRetract(rt *Runtime, factID types.FactID) {
	for _, g := range a.groups {
		if _, ok := g.members[factID]; !ok {
			continue
		}
		delete(g.members, factID)
		for i, id := range g.insertionOrder {
			if id == factID {
				g.insertionOrder = append(g.insertionOrder[:i], g.insertionOrder[i+1:]...)
				break
			}
		}
		a.recompute(rt, g)
		return
	}
}
