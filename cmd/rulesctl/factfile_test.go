package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFactsParsesExternalIDAndFields(t *testing.T) {
	path := writeTemp(t, "facts.yaml", `
facts:
  - external_id: order-1
    fields:
      kind: order
      amount: 250.5
      rush: true
  - external_id: order-2
    fields:
      kind: order
      amount: 10
`)
	facts, err := loadFacts(path)
	require.NoError(t, err)
	require.Len(t, facts, 2)

	assert.Equal(t, "order-1", facts[0].ExternalID)
	amount, ok := facts[0].Fields["amount"].AsFloat()
	require.True(t, ok)
	assert.Equal(t, 250.5, amount)
	rush, ok := facts[0].Fields["rush"].AsBool()
	require.True(t, ok)
	assert.True(t, rush)

	assert.Equal(t, "order-2", facts[1].ExternalID)
}

func TestLoadFactsMissingFileErrors(t *testing.T) {
	_, err := loadFacts("/nonexistent/path/facts.yaml")
	require.Error(t, err)
}

func TestLoadFactsEmptyFileYieldsNoFacts(t *testing.T) {
	path := writeTemp(t, "empty.yaml", `facts: []`)
	facts, err := loadFacts(path)
	require.NoError(t, err)
	assert.Len(t, facts, 0)
}
