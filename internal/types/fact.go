package types

// FactID is a dense, monotonically assigned identifier for a fact within a
// session. Never reused once retracted (spec.md §3 Invariants).
type FactID uint64

// Fact is an immutable bag of named values, identified by FactID. Updates
// are modeled as retract-then-assert at a higher layer (spec.md §4.5); the
// store itself never mutates a live fact's fields in place.
type Fact struct {
	ID         FactID
	ExternalID string // opaque correlation id, caller-supplied; "" if none
	Fields     map[string]FactValue
}

// Get returns the named field, or Null with ok=false if absent.
func (f *Fact) Get(field string) (FactValue, bool) {
	v, ok := f.Fields[field]
	return v, ok
}

// With returns a shallow copy of the fact with field set to value; the
// original fact is left unchanged.
func (f *Fact) With(field string, value FactValue) *Fact {
	fields := make(map[string]FactValue, len(f.Fields)+1)
	for k, v := range f.Fields {
		fields[k] = v
	}
	fields[field] = value
	return &Fact{ID: f.ID, ExternalID: f.ExternalID, Fields: fields}
}

// Without returns a shallow copy of the fact with field removed.
func (f *Fact) Without(field string) *Fact {
	fields := make(map[string]FactValue, len(f.Fields))
	for k, v := range f.Fields {
		if k != field {
			fields[k] = v
		}
	}
	return &Fact{ID: f.ID, ExternalID: f.ExternalID, Fields: fields}
}
