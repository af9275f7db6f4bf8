package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zapcore"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/config"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestTracedHandler(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	t.Run("adds trace ids inside a span", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newSlogLogger(&buf, "info")

		ctx, span := tp.Tracer("test").Start(context.Background(), "op")
		logger.InfoContext(ctx, "reviewed", "verdict", "Approve")
		span.End()

		line := decodeLine(t, &buf)
		assert.Equal(t, span.SpanContext().TraceID().String(), line["trace_id"])
		assert.Equal(t, span.SpanContext().SpanID().String(), line["span_id"])
		assert.Equal(t, true, line["sampled"])
		assert.Equal(t, "Approve", line["verdict"])
	})

	t.Run("derived loggers keep correlation", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newSlogLogger(&buf, "info").With("component", "batch")

		ctx, span := tp.Tracer("test").Start(context.Background(), "op")
		logger.InfoContext(ctx, "row failed")
		span.End()

		line := decodeLine(t, &buf)
		assert.Equal(t, "batch", line["component"])
		assert.Contains(t, line, "trace_id")
	})

	t.Run("no span no ids", func(t *testing.T) {
		var buf bytes.Buffer
		newSlogLogger(&buf, "info").InfoContext(context.Background(), "plain")

		line := decodeLine(t, &buf)
		assert.NotContains(t, line, "trace_id")
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		newSlogLogger(&buf, "warn").Info("dropped")
		assert.Zero(t, buf.Len())
	})
}

func TestZapLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, zapLevel(tt.in))
		})
	}

	logger, err := NewZapLogger("warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestTracingConfigFrom(t *testing.T) {
	cfg := config.Defaults()
	tc := TracingConfigFrom(cfg)
	assert.Equal(t, "fraud-agent", tc.ServiceName)
	assert.Equal(t, cfg.Version, tc.ServiceVersion)
	assert.Equal(t, "localhost:4317", tc.Endpoint)

	cfg.Telemetry.ServiceName = "fraud-batch"
	cfg.Telemetry.OTLPEndpoint = "collector:4317"
	tc = TracingConfigFrom(cfg)
	assert.Equal(t, "fraud-batch", tc.ServiceName)
	assert.Equal(t, "collector:4317", tc.Endpoint)
}

func TestInitializeOpenTelemetry_Disabled(t *testing.T) {
	cfg := config.Defaults()
	cfg.Telemetry.Enabled = false

	p, err := InitializeOpenTelemetry(context.Background(), TracingConfigFrom(cfg))
	require.NoError(t, err)
	require.NotNil(t, p.TracerProvider)

	_, span := p.TracerProvider.Tracer("test").Start(context.Background(), "op")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))

	var nilProvider *Provider
	assert.NoError(t, nilProvider.Shutdown(context.Background()))
}

func TestFailSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	tests := []struct {
		name     string
		err      error
		desc     []string
		wantCode codes.Code
		wantDesc string
	}{
		{name: "nil error leaves status unset", err: nil, wantCode: codes.Unset},
		{name: "error message", err: assert.AnError, wantCode: codes.Error, wantDesc: assert.AnError.Error()},
		{name: "explicit description", err: assert.AnError, desc: []string{"invalid record"}, wantCode: codes.Error, wantDesc: "invalid record"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, span := tp.Tracer("test").Start(context.Background(), tt.name)
			FailSpan(span, tt.err, tt.desc...)
			span.End()

			ended := recorder.Ended()
			got := ended[len(ended)-1]
			assert.Equal(t, tt.wantCode, got.Status().Code)
			assert.Equal(t, tt.wantDesc, got.Status().Description)
		})
	}
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}
