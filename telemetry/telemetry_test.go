package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "warn", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "critical", want: LevelCritical},
		{in: "verbose", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warning", true)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "work_id", "w-1")
	logger.Log(context.Background(), LevelCritical, "fatal")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "WARN", first["level"])
	assert.Equal(t, "w-1", first["work_id"])
	assert.Equal(t, "CRITICAL", second["level"])
}

func TestNewLoggerText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "debug", false)
	require.NoError(t, err)

	logger.Debug("collecting", "records", 3)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "records=3")

	_, err = NewLogger(&buf, "loud", false)
	assert.ErrorContains(t, err, `unknown log level "loud"`)
}

func TestTracerProvider(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := NewTracerProvider("weekly-feed", exporter, nil)
	restore := Install(tp)

	assert.Same(t, tp, otel.GetTracerProvider())

	_, span := Tracer(nil).Start(context.Background(), "connector.run")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "connector.run", spans[0].Name)
	assert.Equal(t, TracerName, spans[0].InstrumentationScope.Name)

	var service string
	for _, kv := range spans[0].Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	assert.Equal(t, "weekly-feed", service)

	require.NoError(t, restore(context.Background()))
	assert.NotSame(t, tp, otel.GetTracerProvider())
}

func TestTracerProviderWithoutExporter(t *testing.T) {
	tp := NewTracerProvider("weekly-feed", nil, slog.Default())
	defer tp.Shutdown(context.Background())

	_, span := Tracer(tp).Start(context.Background(), "connector.run")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	m.ObserveRun(OutcomeSuccess, 2*time.Second, at)
	m.ObserveRun(OutcomeFailure, time.Second, at.Add(time.Hour))
	m.ObserveRecords(10, 2)
	m.ObserveBundle(7, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.LastSuccess))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.RecordsCollected))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ObjectsFiltered))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics(nil)
	m.ObserveRecords(3, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "connector_records_collected_total 3")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun(OutcomeEmpty, time.Second, time.Now())
		m.ObserveRecords(1, 1)
		m.ObserveBundle(1, 0)
	})
}
