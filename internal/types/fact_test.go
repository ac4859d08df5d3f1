package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactWithDoesNotMutateOriginal(t *testing.T) {
	f := &Fact{ID: 1, Fields: map[string]FactValue{"status": String("open")}}

	updated := f.With("status", String("closed"))

	orig, ok := f.Get("status")
	require.True(t, ok)
	assert.Equal(t, String("open"), orig)

	got, ok := updated.Get("status")
	require.True(t, ok)
	assert.Equal(t, String("closed"), got)
	assert.Equal(t, f.ID, updated.ID)
}

func TestFactWithout(t *testing.T) {
	f := &Fact{ID: 1, Fields: map[string]FactValue{"a": Int(1), "b": Int(2)}}
	g := f.Without("a")

	_, ok := g.Get("a")
	assert.False(t, ok)
	_, ok = g.Get("b")
	assert.True(t, ok)

	// original untouched
	_, ok = f.Get("a")
	assert.True(t, ok)
}

func TestFactGetMissingField(t *testing.T) {
	f := &Fact{ID: 1, Fields: map[string]FactValue{}}
	v, ok := f.Get("nope")
	assert.False(t, ok)
	assert.Equal(t, Null(), v)
}
