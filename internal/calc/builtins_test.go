package calc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftengine/rules/internal/types"
)

func TestThresholdCheck(t *testing.T) {
	reg := NewRegistry()

	result, err := reg.Invoke("threshold_check", map[string]types.FactValue{
		"value":     types.Float(95),
		"threshold": types.Float(90),
	})
	require.NoError(t, err)

	m, ok := result.AsMap()
	require.True(t, ok)
	passes, _ := m["passes"].AsBool()
	assert.True(t, passes)
	status, _ := m["status"].AsString()
	assert.Equal(t, "meets_threshold", status)
}

func TestThresholdCheckUnknownOperator(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Invoke("threshold_check", map[string]types.FactValue{
		"value":     types.Float(1),
		"threshold": types.Float(1),
		"operator":  types.String("~="),
	})
	require.Error(t, err)
	var calcErr *types.CalculatorError
	require.ErrorAs(t, err, &calcErr)
	assert.Equal(t, types.ErrCodeBusinessRuleViolation, calcErr.Code)
}

func TestLimitValidateSeverityLevels(t *testing.T) {
	reg := NewRegistry()

	result, err := reg.Invoke("limit_validate", map[string]types.FactValue{
		"value":         types.Float(120),
		"max_threshold": types.Float(100),
	})
	require.NoError(t, err)
	m, _ := result.AsMap()
	sev, _ := m["severity"].AsString()
	assert.Equal(t, "breach", sev)
}

func TestLimitValidateZeroThresholdIsRejected(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Invoke("limit_validate", map[string]types.FactValue{
		"value":         types.Float(1),
		"max_threshold": types.Float(0),
	})
	require.Error(t, err)
	var calcErr *types.CalculatorError
	require.ErrorAs(t, err, &calcErr)
	assert.Equal(t, types.ErrCodeOutOfRange, calcErr.Code)
}

func TestTimeBetweenDatetimeHours(t *testing.T) {
	reg := NewRegistry()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	finish := start.Add(5 * time.Hour)

	result, err := reg.Invoke("time_between_datetime", map[string]types.FactValue{
		"start":  types.Time(start),
		"finish": types.Time(finish),
	})
	require.NoError(t, err)
	f, ok := result.AsFloat()
	require.True(t, ok)
	assert.Equal(t, 5.0, f)
}

func TestTimeBetweenDatetimeRejectsInvertedRange(t *testing.T) {
	reg := NewRegistry()
	start := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	finish := start.Add(-time.Hour)

	_, err := reg.Invoke("time_between_datetime", map[string]types.FactValue{
		"start":  types.Time(start),
		"finish": types.Time(finish),
	})
	require.Error(t, err)
}

func TestWeightedAverage(t *testing.T) {
	reg := NewRegistry()
	items := types.Array(
		types.Map(map[string]types.FactValue{"value": types.Float(10), "weight": types.Float(1)}),
		types.Map(map[string]types.FactValue{"value": types.Float(20), "weight": types.Float(3)}),
	)
	result, err := reg.Invoke("weighted_average", map[string]types.FactValue{"items": items})
	require.NoError(t, err)
	f, _ := result.AsFloat()
	assert.InDelta(t, 17.5, f, 1e-9)
}

func TestProportionalAllocatorRejectsZeroTotal(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Invoke("proportional_allocator", map[string]types.FactValue{
		"total_amount":     types.Float(100),
		"individual_value": types.Float(1),
		"total_value":      types.Float(0),
	})
	require.Error(t, err)
}

func TestMultiplyOverflow(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Invoke("multiply", map[string]types.FactValue{
		"a": types.Float(1e308),
		"b": types.Float(1e308),
	})
	require.Error(t, err)
	var calcErr *types.CalculatorError
	require.ErrorAs(t, err, &calcErr)
	assert.Equal(t, types.ErrCodeOverflow, calcErr.Code)
}
