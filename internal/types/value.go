// Package types defines the data model shared by every layer of the rules
// engine: fact values, facts, rules, conditions, actions and tokens.
package types

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"time"
)

// Kind tags the variant held by a FactValue.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindTime
	KindArray
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// NumericEqualityPolicy controls whether an integer and a float that
// represent the same mathematical value compare equal. See spec.md §6 and
// §9 — default is CrossKind for business-rule ergonomics.
type NumericEqualityPolicy uint8

const (
	CrossKind NumericEqualityPolicy = iota
	Strict
)

// FactValue is the tagged union described in spec.md §3. Zero value is
// KindNull. Values are immutable once constructed.
type FactValue struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
	t    time.Time
	arr  []FactValue
	m    map[string]FactValue
}

func Null() FactValue                    { return FactValue{kind: KindNull} }
func Int(v int64) FactValue              { return FactValue{kind: KindInt, i: v} }
func Float(v float64) FactValue          { return FactValue{kind: KindFloat, f: v} }
func Bool(v bool) FactValue              { return FactValue{kind: KindBool, b: v} }
func String(v string) FactValue          { return FactValue{kind: KindString, s: v} }
func Time(v time.Time) FactValue         { return FactValue{kind: KindTime, t: v.UTC()} }
func Array(v ...FactValue) FactValue     { return FactValue{kind: KindArray, arr: v} }
func Map(v map[string]FactValue) FactValue {
	return FactValue{kind: KindMap, m: v}
}

func (v FactValue) Kind() Kind { return v.kind }
func (v FactValue) IsNull() bool { return v.kind == KindNull }

func (v FactValue) AsInt() (int64, bool)             { return v.i, v.kind == KindInt }
func (v FactValue) AsFloat() (float64, bool)         { return v.f, v.kind == KindFloat }
func (v FactValue) AsBool() (bool, bool)             { return v.b, v.kind == KindBool }
func (v FactValue) AsString() (string, bool)         { return v.s, v.kind == KindString }
func (v FactValue) AsTime() (time.Time, bool)        { return v.t, v.kind == KindTime }
func (v FactValue) AsArray() ([]FactValue, bool)     { return v.arr, v.kind == KindArray }
func (v FactValue) AsMap() (map[string]FactValue, bool) { return v.m, v.kind == KindMap }

// Numeric reports whether v is an int or float and returns it widened to
// float64 for arithmetic; the bool return distinguishes "was an int" so
// callers that must preserve integer semantics (e.g. overflow checks) can.
func (v FactValue) Numeric() (f float64, wasInt bool, ok bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true, true
	case KindFloat:
		return v.f, false, true
	default:
		return 0, false, false
	}
}

func isNumeric(k Kind) bool { return k == KindInt || k == KindFloat }

// Equal implements structural equality per spec.md §3. Numeric cross-kind
// comparison is gated by policy; all other kind pairs must match exactly.
func (v FactValue) Equal(other FactValue, policy NumericEqualityPolicy) bool {
	if v.kind != other.kind {
		if isNumeric(v.kind) && isNumeric(other.kind) && policy == CrossKind {
			vf, _, _ := v.Numeric()
			of, _, _ := other.Numeric()
			return vf == of
		}
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindBool:
		return v.b == other.b
	case KindString:
		return v.s == other.s
	case KindTime:
		return v.t.Equal(other.t)
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i], policy) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for key, val := range v.m {
			ov, ok := other.m[key]
			if !ok || !val.Equal(ov, policy) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare orders two values when they are "compatible": both numeric, or
// the same non-numeric kind with a defined total order (string, time,
// bool). ok is false when no ordering is defined (arrays, maps, null, or
// mismatched non-numeric kinds).
func (v FactValue) Compare(other FactValue) (result int, ok bool) {
	if isNumeric(v.kind) && isNumeric(other.kind) {
		vf, _, _ := v.Numeric()
		of, _, _ := other.Numeric()
		switch {
		case vf < of:
			return -1, true
		case vf > of:
			return 1, true
		default:
			return 0, true
		}
	}
	if v.kind != other.kind {
		return 0, false
	}
	switch v.kind {
	case KindString:
		switch {
		case v.s < other.s:
			return -1, true
		case v.s > other.s:
			return 1, true
		default:
			return 0, true
		}
	case KindTime:
		switch {
		case v.t.Before(other.t):
			return -1, true
		case v.t.After(other.t):
			return 1, true
		default:
			return 0, true
		}
	case KindBool:
		if v.b == other.b {
			return 0, true
		}
		if !v.b && other.b {
			return -1, true
		}
		return 1, true
	default:
		return 0, false
	}
}

// Hash must be consistent with Equal under the same policy: values that
// compare equal must hash equal. Cross-kind numeric equality therefore
// hashes through a canonical float64 bit pattern rather than the kind tag.
func (v FactValue) Hash(policy NumericEqualityPolicy) uint64 {
	h := fnv.New64a()
	switch v.kind {
	case KindNull:
		h.Write([]byte{byte(KindNull)})
	case KindInt, KindFloat:
		if policy == CrossKind {
			f, _, _ := v.Numeric()
			writeUint64(h, math.Float64bits(f))
		} else {
			h.Write([]byte{byte(v.kind)})
			if v.kind == KindInt {
				writeUint64(h, uint64(v.i))
			} else {
				writeUint64(h, math.Float64bits(v.f))
			}
		}
	case KindBool:
		h.Write([]byte{byte(KindBool)})
		if v.b {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	case KindString:
		h.Write([]byte{byte(KindString)})
		h.Write([]byte(v.s))
	case KindTime:
		h.Write([]byte{byte(KindTime)})
		writeUint64(h, uint64(v.t.UnixNano()))
	case KindArray:
		h.Write([]byte{byte(KindArray)})
		for _, e := range v.arr {
			writeUint64(h, e.Hash(policy))
		}
	case KindMap:
		h.Write([]byte{byte(KindMap)})
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			h.Write([]byte(k))
			writeUint64(h, v.m[k].Hash(policy))
		}
	}
	return h.Sum64()
}

// MarshalJSON renders a FactValue as its underlying JSON-native
// representation rather than the struct's unexported fields, so callers at
// the JSON boundary (cmd/rulesctl's --json output) get plain numbers,
// strings, and arrays instead of an opaque object.
func (v FactValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindBool:
		return json.Marshal(v.b)
	case KindString:
		return json.Marshal(v.s)
	case KindTime:
		return json.Marshal(v.t)
	case KindArray:
		return json.Marshal(v.arr)
	case KindMap:
		return json.Marshal(v.m)
	default:
		return []byte("null"), nil
	}
}

func writeUint64(h interface{ Write([]byte) (int, error) }, u uint64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(u >> (8 * i))
	}
	h.Write(buf[:])
}

func (v FactValue) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindString:
		return v.s
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	case KindArray:
		return fmt.Sprintf("%v", v.arr)
	case KindMap:
		return fmt.Sprintf("%v", v.m)
	default:
		return "?"
	}
}
