package session

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics wraps the OpenTelemetry instruments spec.md §6 calls out as
// "diagnostic, not contractual": nothing in the engine's matching semantics
// reads these back. A Session built without a Meter gets the no-op
// implementation, so taking measurements never requires a collector to be
// running (grounded on beads' own hooks_otel.go instrumentation-is-optional
// posture, generalized from tracing to metrics here).
type Metrics struct {
	factsAsserted  metric.Int64Counter
	factsRetracted metric.Int64Counter
	tokensCreated  metric.Int64Counter
	firings        metric.Int64Counter
	batchDuration  metric.Float64Histogram
}

// NewMetrics builds instruments against meter. Pass noop.NewMeterProvider().Meter("")
// (or nil, which is equivalent) when no telemetry backend is configured.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("weftengine/rules")
	}
	m := &Metrics{}
	var err error
	if m.factsAsserted, err = meter.Int64Counter("rules.facts_asserted"); err != nil {
		return nil, err
	}
	if m.factsRetracted, err = meter.Int64Counter("rules.facts_retracted"); err != nil {
		return nil, err
	}
	if m.tokensCreated, err = meter.Int64Counter("rules.tokens_created"); err != nil {
		return nil, err
	}
	if m.firings, err = meter.Int64Counter("rules.firings"); err != nil {
		return nil, err
	}
	if m.batchDuration, err = meter.Float64Histogram("rules.batch_duration_seconds"); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) recordAssert(ctx context.Context, n int64) {
	if n > 0 {
		m.factsAsserted.Add(ctx, n)
	}
}

func (m *Metrics) recordRetract(ctx context.Context) {
	m.factsRetracted.Add(ctx, 1)
}

func (m *Metrics) recordFiring(ctx context.Context) {
	m.firings.Add(ctx, 1)
}

func (m *Metrics) recordBatchSeconds(ctx context.Context, seconds float64) {
	m.batchDuration.Record(ctx, seconds)
}
