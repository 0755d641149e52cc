package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectNames(t *testing.T, reader *sdkmetric.ManualReader) map[string]bool {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestBusinessMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordDatasetLoad(ctx, "file", 40, 10*time.Millisecond, nil)
	metrics.RecordDatasetLoad(ctx, "sheets", 0, time.Second, errors.New("quota"))
	metrics.RecordInsight(ctx, 2*time.Second, true)
	metrics.RecordExport(ctx, "xlsx")

	names := collectNames(t, reader)
	for _, name := range []string{
		"dataset_loads_total",
		"dataset_load_duration_seconds",
		"dataset_records_parsed_total",
		"insight_requests_total",
		"insight_failures_total",
		"insight_duration_seconds",
		"exports_total",
	} {
		assert.True(t, names[name], name)
	}
}

func TestBusinessMetrics_NilSafe(t *testing.T) {
	var metrics *BusinessMetrics
	assert.NotPanics(t, func() {
		metrics.RecordDatasetLoad(context.Background(), "file", 1, time.Millisecond, nil)
		metrics.RecordInsight(context.Background(), time.Millisecond, false)
		metrics.RecordExport(context.Background(), "csv")
	})
}

func TestInitializeOTel_NoExporters(t *testing.T) {
	providers, err := InitializeOTel(&OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: "test",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "none",
	}, slog.Default())
	require.NoError(t, err)

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.Nil(t, providers.PrometheusHTTP)
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(&OTelConfig{TraceExporter: "jaeger", MetricExporter: "none"}, slog.Default())
	assert.Error(t, err)
}
