// Package store implements the fact store from spec.md §4.1: a dense,
// arena-backed vector of facts indexed by id for O(1) access, plus hash
// field indexes that feed the alpha network.
package store

import (
	"fmt"
	"sync"

	"github.com/weftengine/rules/internal/types"
)

// DefaultIndexedFields mirrors spec.md §6 `indexed_field_defaults`: common
// identifier and status-shaped fields pre-registered at store creation.
var DefaultIndexedFields = []string{"id", "kind", "status", "category", "type"}

// Store owns fact storage for one session. Not safe for use across
// sessions; each session owns its own Store (spec.md §5).
type Store struct {
	mu     sync.RWMutex
	facts  []*types.Fact // dense; index 0 unused, ids start at 1
	tomb   []bool
	nextID types.FactID
	policy types.NumericEqualityPolicy

	indexes map[string]*fieldIndex
}

// New creates a Store with the given numeric equality policy and an
// initial set of pre-registered field indexes (pass nil for
// DefaultIndexedFields).
func New(policy types.NumericEqualityPolicy, indexedFields []string) *Store {
	if indexedFields == nil {
		indexedFields = DefaultIndexedFields
	}
	s := &Store{
		facts:   make([]*types.Fact, 1, 1024), // sentinel at index 0
		tomb:    make([]bool, 1, 1024),
		nextID:  1,
		policy:  policy,
		indexes: make(map[string]*fieldIndex),
	}
	for _, f := range indexedFields {
		s.indexes[f] = newFieldIndex()
	}
	return s
}

// RegisterFieldIndex is idempotent; may be called at compile time once the
// rule set's indexable fields are known (spec.md §4.1).
func (s *Store) RegisterFieldIndex(field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[field]; !ok {
		s.indexes[field] = newFieldIndex()
		// Backfill from existing live facts so the index is immediately
		// consistent with spec.md §3's "f ∈ A.memory ⇔ f satisfies A's
		// test" invariant for any alpha node built after this call.
		for id := types.FactID(1); int(id) < len(s.facts); id++ {
			if s.tomb[id] || s.facts[id] == nil {
				continue
			}
			if v, ok := s.facts[id].Get(field); ok {
				s.indexes[field].add(canonicalKey(v, s.policy), id)
			}
		}
	}
}

// Insert assigns the next id, installs the fact into every registered
// index whose field it carries, and returns the new id. Cannot fail under
// normal operation; arithmetic id overflow is a fatal InvariantViolation
// (spec.md §4.1 — 64-bit space is effectively unbounded in one session).
func (s *Store) Insert(fields map[string]types.FactValue, externalID string) (types.FactID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nextID == 0 {
		return 0, fmt.Errorf("fact id space exhausted: %w", types.ErrInvariantViolation)
	}
	id := s.nextID
	s.nextID++

	f := &types.Fact{ID: id, ExternalID: externalID, Fields: fields}
	s.facts = append(s.facts, f)
	s.tomb = append(s.tomb, false)

	for field, idx := range s.indexes {
		if v, ok := fields[field]; ok {
			idx.add(canonicalKey(v, s.policy), id)
		}
	}
	return id, nil
}

// Get returns the live fact for id, or ok=false if tombstoned or unknown.
func (s *Store) Get(id types.FactID) (*types.Fact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(id) >= len(s.facts) || id == 0 || s.tomb[id] {
		return nil, false
	}
	return s.facts[id], true
}

// Retract tombstones id, removes it from every index, and reports whether
// the id was live (idempotent per spec.md §8 — retracting an already
// retracted id is a no-op and reports false).
func (s *Store) Retract(id types.FactID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(id) >= len(s.facts) || id == 0 || s.tomb[id] {
		return false
	}
	f := s.facts[id]
	s.tomb[id] = true
	for field, idx := range s.indexes {
		if v, ok := f.Get(field); ok {
			idx.remove(canonicalKey(v, s.policy), id)
		}
	}
	s.facts[id] = nil
	return true
}

// ScanByField returns the ids of live facts whose field equals value,
// using the hash index if one is registered for field; O(result size)
// when indexed. Falls back to a full scan (still correct, just not O(1)
// admission) when no index is registered for field — the compiler is
// expected to register indexes for any field used in an equality
// condition, so this path is a safety net, not the hot path.
func (s *Store) ScanByField(field string, value types.FactValue) []types.FactID {
	s.mu.RLock()
	idx, ok := s.indexes[field]
	s.mu.RUnlock()
	if ok {
		return idx.scan(canonicalKey(value, s.policy))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.FactID
	for id := types.FactID(1); int(id) < len(s.facts); id++ {
		if s.tomb[id] || s.facts[id] == nil {
			continue
		}
		if v, ok := s.facts[id].Get(field); ok && v.Equal(value, s.policy) {
			out = append(out, id)
		}
	}
	return out
}

// Len returns the number of live facts, used against the
// max_facts_per_session resource ceiling (spec.md §5, §6).
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for id := types.FactID(1); int(id) < len(s.facts); id++ {
		if !s.tomb[id] && s.facts[id] != nil {
			n++
		}
	}
	return n
}

// HasIndex reports whether field has a registered hash index, used by the
// compiler's selectivity estimator (spec.md §4.2 step 1).
func (s *Store) HasIndex(field string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[field]
	return ok
}
