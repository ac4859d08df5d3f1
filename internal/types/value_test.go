package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactValueEqualCrossKind(t *testing.T) {
	i := Int(3)
	f := Float(3.0)

	assert.True(t, i.Equal(f, CrossKind))
	assert.False(t, i.Equal(f, Strict))
	assert.True(t, i.Equal(Int(3), Strict))
}

func TestFactValueEqualMismatchedKinds(t *testing.T) {
	assert.False(t, String("3").Equal(Int(3), CrossKind))
	assert.True(t, Null().Equal(Null(), CrossKind))
}

func TestFactValueCompare(t *testing.T) {
	r, ok := Int(1).Compare(Float(2.5))
	require.True(t, ok)
	assert.Equal(t, -1, r)

	_, ok = String("a").Compare(Int(1))
	assert.False(t, ok)

	r, ok = String("a").Compare(String("b"))
	require.True(t, ok)
	assert.Equal(t, -1, r)
}

func TestFactValueHashConsistentWithEqual(t *testing.T) {
	a := Int(7)
	b := Float(7.0)

	assert.Equal(t, a.Hash(CrossKind), b.Hash(CrossKind))
	assert.NotEqual(t, a.Hash(Strict), b.Hash(Strict))
}

func TestFactValueHashArrayAndMapOrderIndependence(t *testing.T) {
	m1 := Map(map[string]FactValue{"a": Int(1), "b": Int(2)})
	m2 := Map(map[string]FactValue{"b": Int(2), "a": Int(1)})
	assert.Equal(t, m1.Hash(CrossKind), m2.Hash(CrossKind))
}

func TestFactValueMarshalJSON(t *testing.T) {
	cases := []struct {
		v    FactValue
		want string
	}{
		{Null(), "null"},
		{Int(42), "42"},
		{Float(1.5), "1.5"},
		{Bool(true), "true"},
		{String("hi"), `"hi"`},
		{Array(Int(1), Int(2)), "[1,2]"},
	}
	for _, c := range cases {
		b, err := json.Marshal(c.v)
		require.NoError(t, err)
		assert.JSONEq(t, c.want, string(b))
	}
}

func TestFactValueTimeNormalizedToUTC(t *testing.T) {
	loc := time.FixedZone("test", 3600)
	local := time.Date(2026, 1, 1, 12, 0, 0, 0, loc)
	v := Time(local)
	got, ok := v.AsTime()
	require.True(t, ok)
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(local))
}
