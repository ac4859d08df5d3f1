package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftengine/rules/internal/types"
)

func TestCacheHitReturnsSameResultWithoutReinvoking(t *testing.T) {
	reg := NewRegistry()
	calls := 0
	reg.Register("counting", func(in map[string]types.FactValue) (types.FactValue, error) {
		calls++
		return types.Int(int64(calls)), nil
	})

	cache, err := NewCache(reg, 16)
	require.NoError(t, err)

	in := map[string]types.FactValue{"x": types.Int(1)}
	v1, err := cache.Invoke("counting", in, types.CrossKind)
	require.NoError(t, err)
	v2, err := cache.Invoke("counting", in, types.CrossKind)
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, calls)
}

func TestCacheDoesNotMemoizeErrors(t *testing.T) {
	reg := NewRegistry()
	calls := 0
	reg.Register("flaky", func(in map[string]types.FactValue) (types.FactValue, error) {
		calls++
		return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeBusinessRuleViolation, Message: "nope"}
	})

	cache, err := NewCache(reg, 16)
	require.NoError(t, err)

	_, err = cache.Invoke("flaky", nil, types.CrossKind)
	assert.Error(t, err)
	_, err = cache.Invoke("flaky", nil, types.CrossKind)
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestCacheKeyOrderIndependent(t *testing.T) {
	a := cacheKey("f", map[string]types.FactValue{"a": types.Int(1), "b": types.Int(2)}, types.CrossKind)
	b := cacheKey("f", map[string]types.FactValue{"b": types.Int(2), "a": types.Int(1)}, types.CrossKind)
	assert.Equal(t, a, b)
}

func TestRegistryInvokeUnknownCalculator(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Invoke("does_not_exist", nil)
	require.Error(t, err)
	var calcErr *types.CalculatorError
	require.ErrorAs(t, err, &calcErr)
	assert.Equal(t, types.ErrCodeMissingRequiredField, calcErr.Code)
}
