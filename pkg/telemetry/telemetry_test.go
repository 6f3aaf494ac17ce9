package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/dccc/clubhouse/pkg/config"
)

func keepInstruments(t *testing.T) {
	t.Helper()
	prev := current.Load()
	t.Cleanup(func() { current.Store(prev) })
}

// counts sums a counter's data points by the value of the given attribute
func counts(t *testing.T, reader sdkmetric.Reader, name string, key attribute.Key) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(key)
				out[v.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestRecordBeforeInitIsNoop(t *testing.T) {
	ctx := context.Background()
	RecordEvent(ctx, EventLike)
	RecordFailure(ctx, EventLike, "conflict")

	shutdown, err := Init(&config.TelemetryConfig{Enabled: false})
	require.NoError(t, err)
	shutdown()
}

func TestUseMeterProvider(t *testing.T) {
	keepInstruments(t)
	ctx := context.Background()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	require.NoError(t, UseMeterProvider(mp))

	RecordEvent(ctx, EventLike)
	RecordEvent(ctx, EventLike)
	RecordEvent(ctx, EventSubmit)
	RecordFailure(ctx, EventDelete, "permission")
	RecordFailure(ctx, EventDelete, "not_found")

	require.Equal(t, map[string]int64{EventLike: 2, EventSubmit: 1}, counts(t, reader, "club.events", "event"))
	require.Equal(t, map[string]int64{"permission": 1, "not_found": 1}, counts(t, reader, "club.events.failed", "kind"))
}

func TestInitServesClubMetrics(t *testing.T) {
	keepInstruments(t)

	shutdown, err := Init(&config.TelemetryConfig{
		Enabled:           true,
		PrometheusEnabled: true,
		ServiceName:       "clubhouse-test",
		Version:           "1.2.3",
		Environment:       "test",
	})
	require.NoError(t, err)
	t.Cleanup(shutdown)

	RecordEvent(context.Background(), EventReset)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, "club_events")
	require.Contains(t, body, `event="reset"`)
	require.Contains(t, body, "clubhouse-test")
	require.Contains(t, body, "go_goroutines")
}
