package main

import (
	"context"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/weftengine/rules/internal/session"
)

// meterProvider is non-nil only when --metrics was passed; Execute shuts it
// down after the command tree finishes so the final periodic export flushes.
var meterProvider *sdkmetric.MeterProvider

// setupMetrics wires the session's OpenTelemetry instruments to a stdout
// exporter when enabled, or to the no-op meter otherwise. Counters are
// diagnostic only (spec.md §6) — nothing here feeds back into matching.
func setupMetrics(enabled bool) (*session.Metrics, error) {
	if !enabled {
		return session.NewMetrics(nil)
	}
	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, err
	}
	meterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
	return session.NewMetrics(meterProvider.Meter("weftengine/rules"))
}

func shutdownMetrics(ctx context.Context) {
	if meterProvider != nil {
		_ = meterProvider.Shutdown(ctx)
	}
}
