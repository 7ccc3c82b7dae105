// Package observability wires OpenTelemetry for the API: OTLP traces, a
// prometheus-backed meter provider for the dispatcher and push counters, and
// a fiber middleware for request spans.
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/Alijeyrad/medstage_backend/config"
)

type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string

	// OTLPEndpoint is host:port of an OTLP/HTTP collector. Spans are sampled
	// but dropped when it is empty.
	OTLPEndpoint string
	OTLPInsecure bool
	SamplingRate float64

	Metrics bool
}

// FromCentralConfig maps the observability section; env comes from server.environment.
func FromCentralConfig(c config.ObservabilityConfig, env string) Config {
	cfg := Config{
		ServiceName:    c.ServiceName,
		ServiceVersion: c.ServiceVersion,
		Environment:    env,
		SamplingRate:   c.Tracing.SamplingRate,
		Metrics:        c.Metrics.Enabled,
	}
	if c.Tracing.Enabled {
		cfg.OTLPEndpoint = c.Tracing.OTLPEndpoint
		cfg.OTLPInsecure = c.Tracing.OTLPInsecure
	}
	return cfg
}

// sampler clamps the rate to [0,1]; zero means sample everything.
func (c Config) sampler() trace.Sampler {
	switch r := c.SamplingRate; {
	case r <= 0 || r >= 1:
		return trace.ParentBased(trace.AlwaysSample())
	default:
		return trace.ParentBased(trace.TraceIDRatioBased(r))
	}
}

// Provider owns the global tracer and meter providers. MeterProvider and
// PrometheusExporter are nil when metrics are disabled.
type Provider struct {
	TracerProvider     *trace.TracerProvider
	MeterProvider      *metric.MeterProvider
	PrometheusExporter *prometheus.Exporter
}

// InitTelemetry installs the providers globally and returns them for shutdown.
func InitTelemetry(ctx context.Context, cfg Config) (*Provider, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentName(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	p := &Provider{}
	if p.TracerProvider, err = initTracing(ctx, res, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	otel.SetTracerProvider(p.TracerProvider)

	if cfg.Metrics {
		if p.MeterProvider, p.PrometheusExporter, err = initMetrics(res); err != nil {
			_ = p.TracerProvider.Shutdown(ctx)
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
		otel.SetMeterProvider(p.MeterProvider)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return p, nil
}

func initTracing(ctx context.Context, res *resource.Resource, cfg Config) (*trace.TracerProvider, error) {
	opts := []trace.TracerProviderOption{
		trace.WithResource(res),
		trace.WithSampler(cfg.sampler()),
	}

	if cfg.OTLPEndpoint != "" {
		exOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.OTLPInsecure {
			exOpts = append(exOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, exOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		opts = append(opts, trace.WithBatcher(exporter))
	}

	return trace.NewTracerProvider(opts...), nil
}

// initMetrics registers the exporter with the default prometheus registry,
// which the /metrics route serves through promhttp.
func initMetrics(res *resource.Resource) (*metric.MeterProvider, *prometheus.Exporter, error) {
	promExporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(promExporter),
	)
	return meterProvider, promExporter, nil
}

// Shutdown flushes pending spans and stops both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	if err := p.TracerProvider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracer provider: %w", err))
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}
