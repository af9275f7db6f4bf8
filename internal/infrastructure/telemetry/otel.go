package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/edugauravkumar-afk/Fraud-Agent/internal/infrastructure/config"
)

const defaultServiceName = "fraud-agent"

// TracingConfig describes where review, intel and training spans go.
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP gRPC collector, host:port.
	Endpoint      string
	SamplingRate  float64
	ExportTimeout time.Duration
	BatchTimeout  time.Duration
}

// TracingConfigFrom reads the telemetry section of cfg.
func TracingConfigFrom(cfg *config.Config) TracingConfig {
	tc := TracingConfig{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		ExportTimeout:  30 * time.Second,
		BatchTimeout:   5 * time.Second,
	}
	if tc.ServiceName == "" {
		tc.ServiceName = defaultServiceName
	}
	if tc.Endpoint == "" {
		tc.Endpoint = "localhost:4317"
	}
	return tc
}

// Provider owns the installed tracer provider.
type Provider struct {
	TracerProvider trace.TracerProvider
	shutdown       func(context.Context) error
}

// Shutdown flushes buffered spans. It is safe on a disabled provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.shutdown == nil {
		return nil
	}
	if err := p.shutdown(ctx); err != nil {
		return fmt.Errorf("tracer shutdown: %w", err)
	}
	return nil
}

// InitializeOpenTelemetry installs the global tracer provider and the W3C
// propagators. Disabled tracing installs a no-op provider so components can
// start spans unconditionally.
func InitializeOpenTelemetry(ctx context.Context, tc TracingConfig) (*Provider, error) {
	if !tc.Enabled {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		return &Provider{TracerProvider: tp}, nil
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(tc.ServiceName),
		semconv.ServiceVersion(tc.ServiceVersion),
		semconv.DeploymentEnvironment(tc.Environment),
		attribute.String("service.namespace", "fraud"),
	))
	if err != nil {
		return nil, fmt.Errorf("building trace resource: %w", err)
	}

	exporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(tc.Endpoint),
		otlptracegrpc.WithInsecure(),
		otlptracegrpc.WithTimeout(tc.ExportTimeout),
	))
	if err != nil {
		return nil, fmt.Errorf("creating otlp exporter for %s: %w", tc.Endpoint, err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(tc.BatchTimeout)),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(tc.SamplingRate)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Provider{TracerProvider: tp, shutdown: tp.Shutdown}, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0.0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// FailSpan marks span as failed with err. The status description is the
// error's message unless desc is given.
func FailSpan(span trace.Span, err error, desc ...string) {
	if err == nil {
		return
	}
	span.RecordError(err)
	msg := err.Error()
	if len(desc) > 0 {
		msg = desc[0]
	}
	span.SetStatus(codes.Error, msg)
}
