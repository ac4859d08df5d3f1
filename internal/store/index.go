package store

import (
	"fmt"
	"math"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/weftengine/rules/internal/types"
)

// fieldIndex is a hash map keyed by canonicalized value, mapping to a
// compact sorted id sequence. spec.md §4.1 recommends roaring-bitmap-style
// encoding for large alpha sets; we use it directly rather than a
// hand-rolled sorted-slice equivalent.
type fieldIndex struct {
	mu      sync.RWMutex
	buckets map[string]*roaring64.Bitmap
}

func newFieldIndex() *fieldIndex {
	return &fieldIndex{buckets: make(map[string]*roaring64.Bitmap)}
}

func (fi *fieldIndex) add(key string, id types.FactID) {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	b, ok := fi.buckets[key]
	if !ok {
		b = roaring64.New()
		fi.buckets[key] = b
	}
	b.Add(uint64(id))
}

func (fi *fieldIndex) remove(key string, id types.FactID) {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	if b, ok := fi.buckets[key]; ok {
		b.Remove(uint64(id))
		if b.IsEmpty() {
			delete(fi.buckets, key)
		}
	}
}

// scan returns the ids matching key, sorted ascending.
func (fi *fieldIndex) scan(key string) []types.FactID {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	b, ok := fi.buckets[key]
	if !ok {
		return nil
	}
	raw := b.ToArray()
	ids := make([]types.FactID, len(raw))
	for i, v := range raw {
		ids[i] = types.FactID(v)
	}
	return ids
}

// canonicalKey produces a bucket key such that two FactValues that compare
// Equal under policy always produce the same key. This is what makes
// numeric_equality_policy observable in index lookups, not just in
// in-memory comparisons (spec.md §9 open question — we canonicalize
// cross-kind numerics into the float64 domain when policy says to).
func canonicalKey(v types.FactValue, policy types.NumericEqualityPolicy) string {
	switch v.Kind() {
	case types.KindInt:
		i, _ := v.AsInt()
		if policy == types.CrossKind {
			return fmt.Sprintf("n:%v", float64(i))
		}
		return fmt.Sprintf("i:%d", i)
	case types.KindFloat:
		f, _ := v.AsFloat()
		if policy == types.CrossKind {
			return fmt.Sprintf("n:%v", f)
		}
		return fmt.Sprintf("f:%s", floatBits(f))
	case types.KindBool:
		b, _ := v.AsBool()
		return fmt.Sprintf("b:%t", b)
	case types.KindString:
		s, _ := v.AsString()
		return "s:" + s
	case types.KindTime:
		t, _ := v.AsTime()
		return fmt.Sprintf("t:%d", t.UnixNano())
	case types.KindNull:
		return "null"
	default:
		// Arrays/maps are not indexable as equality keys; callers should
		// never register an index on such a field, but fall back to a
		// hash-based key so a stray registration degrades rather than
		// panics.
		return fmt.Sprintf("h:%d", v.Hash(policy))
	}
}

func floatBits(f float64) string {
	return fmt.Sprintf("%x", math.Float64bits(f))
}
