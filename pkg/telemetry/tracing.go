// Package telemetry wires OpenTelemetry tracing for distillation runs. Spans
// are exported over OTLP/HTTP when enabled and are no-ops otherwise.
package telemetry

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// Config represents the tracing section of the configuration
type Config struct {
	Enabled        bool    `mapstructure:"enabled"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"-"`
	SamplerType    string  `mapstructure:"sampler"`
	SamplerRatio   float64 `mapstructure:"ratio"`
}

// ShutdownFunc flushes and stops the tracer provider
type ShutdownFunc func(context.Context) error

// InitTracer installs the global tracer provider. The OTLP endpoint and headers
// come from OTEL_EXPORTER_OTLP_ENDPOINT and OTEL_EXPORTER_OTLP_HEADERS.
func InitTracer(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = TracerName
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create resource")
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create trace exporter")
	}

	provider := trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithSpanProcessor(trace.NewBatchSpanProcessor(
			exporter,
			trace.WithMaxExportBatchSize(512),
			trace.WithBatchTimeout(time.Second),
		)),
		trace.WithSampler(sampler(cfg)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return func(ctx context.Context) error {
		var result *multierror.Error
		if err := provider.Shutdown(ctx); err != nil {
			result = multierror.Append(result, err)
		}
		if err := exporter.Shutdown(ctx); err != nil {
			result = multierror.Append(result, err)
		}
		return result.ErrorOrNil()
	}, nil
}

func sampler(cfg Config) trace.Sampler {
	switch cfg.SamplerType {
	case "never":
		return trace.NeverSample()
	case "ratio":
		return trace.ParentBased(trace.TraceIDRatioBased(cfg.SamplerRatio))
	default:
		return trace.AlwaysSample()
	}
}
