package calc

import (
	"math"
	"strconv"
	"time"

	"github.com/weftengine/rules/internal/types"
)

// registerBuiltins installs the calculators spec.md §4.7 requires every
// registry to provide.
func registerBuiltins(r *Registry) {
	r.Register("threshold_check", thresholdCheck)
	r.Register("limit_validate", limitValidate)
	r.Register("time_between_datetime", timeBetweenDatetime)
	r.Register("add", add)
	r.Register("multiply", multiply)
	r.Register("percentage_add", percentageAdd)
	r.Register("percentage_deduct", percentageDeduct)
	r.Register("weighted_average", weightedAverage)
	r.Register("proportional_allocator", proportionalAllocator)
}

func thresholdCheck(in map[string]types.FactValue) (types.FactValue, error) {
	value, err := requireFloat(in, "value")
	if err != nil {
		return types.FactValue{}, err
	}
	threshold, err := requireFloat(in, "threshold")
	if err != nil {
		return types.FactValue{}, err
	}
	op := optionalString(in, "operator", ">=")

	var passes bool
	switch op {
	case ">=":
		passes = value >= threshold
	case ">":
		passes = value > threshold
	case "<=":
		passes = value <= threshold
	case "<":
		passes = value < threshold
	case "==", "=":
		passes = value == threshold
	default:
		return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeBusinessRuleViolation, Field: "operator", Message: "unknown operator " + op}
	}

	status := "below_threshold"
	if passes {
		status = "meets_threshold"
	}
	violation := value - threshold
	if violation < 0 {
		violation = 0
	}
	return types.Map(map[string]types.FactValue{
		"passes":           types.Bool(passes),
		"status":           types.String(status),
		"violation_amount": types.Float(violation),
	}), nil
}

func limitValidate(in map[string]types.FactValue) (types.FactValue, error) {
	value, err := requireFloat(in, "value")
	if err != nil {
		return types.FactValue{}, err
	}
	maxThreshold, err := requireFloat(in, "max_threshold")
	if err != nil {
		return types.FactValue{}, err
	}
	if maxThreshold == 0 {
		return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeOutOfRange, Field: "max_threshold", Message: "max_threshold must be non-zero"}
	}
	criticalThreshold, err := optionalFloat(in, "critical_threshold", maxThreshold)
	if err != nil {
		return types.FactValue{}, err
	}
	warningThreshold, err := optionalFloat(in, "warning_threshold", maxThreshold*0.8)
	if err != nil {
		return types.FactValue{}, err
	}

	utilization := value / maxThreshold * 100

	severity := "ok"
	status := "within_limits"
	switch {
	case value > maxThreshold:
		severity, status = "breach", "exceeds_max"
	case value >= criticalThreshold:
		severity, status = "critical", "near_max"
	case value >= warningThreshold:
		severity, status = "warning", "approaching_max"
	}

	return types.Map(map[string]types.FactValue{
		"severity":           types.String(severity),
		"status":             types.String(status),
		"value":              types.Float(value),
		"utilization_percent": types.Float(utilization),
	}), nil
}

func timeBetweenDatetime(in map[string]types.FactValue) (types.FactValue, error) {
	start, ok := in["start"]
	if !ok {
		return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeMissingRequiredField, Field: "start", Message: "missing required input start"}
	}
	finish, ok := in["finish"]
	if !ok {
		return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeMissingRequiredField, Field: "finish", Message: "missing required input finish"}
	}
	st, ok := start.AsTime()
	if !ok {
		return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeWrongKind, Field: "start", Message: "start is not a timestamp"}
	}
	fin, ok := finish.AsTime()
	if !ok {
		return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeWrongKind, Field: "finish", Message: "finish is not a timestamp"}
	}
	if fin.Before(st) {
		return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeBusinessRuleViolation, Message: "finish precedes start"}
	}

	d := fin.Sub(st)
	units := optionalString(in, "units", "hours")
	var result float64
	switch units {
	case "seconds":
		result = d.Seconds()
	case "minutes":
		result = d.Minutes()
	case "hours":
		result = d.Hours()
	case "days":
		result = d.Hours() / 24
	default:
		return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeBusinessRuleViolation, Field: "units", Message: "unknown units " + units}
	}

	if workday, ok := in["workday"]; ok {
		if wd, ok := workday.AsBool(); ok && wd {
			result = businessHoursBetween(st, fin, units)
		}
	}
	return types.Float(result), nil
}

// businessHoursBetween is a coarse Mon-Fri, 00:00-24:00 business-day
// approximation: weekend days are excluded from the elapsed span entirely.
// Partial-day and holiday calendars are out of scope for this calculator.
func businessHoursBetween(start, finish time.Time, units string) float64 {
	total := 0.0
	cur := start
	for cur.Before(finish) {
		next := cur.Add(24 * time.Hour)
		if next.After(finish) {
			next = finish
		}
		if cur.Weekday() != time.Saturday && cur.Weekday() != time.Sunday {
			total += next.Sub(cur).Hours()
		}
		cur = next
	}
	switch units {
	case "seconds":
		return total * 3600
	case "minutes":
		return total * 60
	case "days":
		return total / 24
	default:
		return total
	}
}

func add(in map[string]types.FactValue) (types.FactValue, error) {
	a, err := requireFloat(in, "a")
	if err != nil {
		return types.FactValue{}, err
	}
	b, err := requireFloat(in, "b")
	if err != nil {
		return types.FactValue{}, err
	}
	return types.Float(a + b), nil
}

func multiply(in map[string]types.FactValue) (types.FactValue, error) {
	a, err := requireFloat(in, "a")
	if err != nil {
		return types.FactValue{}, err
	}
	b, err := requireFloat(in, "b")
	if err != nil {
		return types.FactValue{}, err
	}
	result := a * b
	if math.IsInf(result, 0) {
		return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeOverflow, Message: "multiply overflowed"}
	}
	return types.Float(result), nil
}

func percentageAdd(in map[string]types.FactValue) (types.FactValue, error) {
	base, err := requireFloat(in, "base")
	if err != nil {
		return types.FactValue{}, err
	}
	pct, err := requireFloat(in, "percentage")
	if err != nil {
		return types.FactValue{}, err
	}
	return types.Float(base * (1 + pct/100)), nil
}

func percentageDeduct(in map[string]types.FactValue) (types.FactValue, error) {
	base, err := requireFloat(in, "base")
	if err != nil {
		return types.FactValue{}, err
	}
	pct, err := requireFloat(in, "percentage")
	if err != nil {
		return types.FactValue{}, err
	}
	return types.Float(base * (1 - pct/100)), nil
}

func weightedAverage(in map[string]types.FactValue) (types.FactValue, error) {
	items, ok := in["items"]
	if !ok {
		return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeMissingRequiredField, Field: "items", Message: "missing required input items"}
	}
	arr, ok := items.AsArray()
	if !ok {
		return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeWrongKind, Field: "items", Message: "items must be an array"}
	}
	var weightedSum, totalWeight float64
	for i, item := range arr {
		m, ok := item.AsMap()
		if !ok {
			return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeWrongKind, Field: "items", Message: "item is not an object"}
		}
		v, ok := m["value"]
		if !ok {
			return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeMissingRequiredField, Field: "items[" + strconv.Itoa(i) + "].value", Message: "item missing value"}
		}
		w, ok := m["weight"]
		if !ok {
			return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeMissingRequiredField, Field: "items[" + strconv.Itoa(i) + "].weight", Message: "item missing weight"}
		}
		vf, _, ok := v.Numeric()
		if !ok {
			return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeWrongKind, Field: "items[" + strconv.Itoa(i) + "].value", Message: "value is not numeric"}
		}
		wf, _, ok := w.Numeric()
		if !ok {
			return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeWrongKind, Field: "items[" + strconv.Itoa(i) + "].weight", Message: "weight is not numeric"}
		}
		weightedSum += vf * wf
		totalWeight += wf
	}
	if totalWeight == 0 {
		return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeOutOfRange, Field: "items", Message: "total weight is zero"}
	}
	return types.Float(weightedSum / totalWeight), nil
}

func proportionalAllocator(in map[string]types.FactValue) (types.FactValue, error) {
	totalAmount, err := requireFloat(in, "total_amount")
	if err != nil {
		return types.FactValue{}, err
	}
	individualValue, err := requireFloat(in, "individual_value")
	if err != nil {
		return types.FactValue{}, err
	}
	totalValue, err := requireFloat(in, "total_value")
	if err != nil {
		return types.FactValue{}, err
	}
	if totalValue == 0 {
		return types.FactValue{}, &types.CalculatorError{Code: types.ErrCodeOutOfRange, Field: "total_value", Message: "total_value is zero"}
	}
	return types.Float(totalAmount * individualValue / totalValue), nil
}

