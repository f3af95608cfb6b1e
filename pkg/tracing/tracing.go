package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/segyhp/lending-engine/pkg/logger"
)

const instrumentationName = "github.com/segyhp/lending-engine"

type ShutdownFunc func(context.Context) error

var tracer trace.Tracer

// Setup installs an OTLP/HTTP tracer provider. An empty collector endpoint or
// an exporter error leaves tracing on the noop provider; it never fails the
// caller's startup.
func Setup(ctx context.Context, serviceName, collectorURL string) (ShutdownFunc, error) {
	noopShutdown := func(context.Context) error { return nil }
	if collectorURL == "" {
		return noopShutdown, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	connectionCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exporter, err := otlptracehttp.New(connectionCtx,
		otlptracehttp.WithInsecure(),
		otlptracehttp.WithEndpoint(collectorURL),
	)
	if err != nil {
		logger.Error("OTLP exporter setup failed, tracing disabled", err)
		return noopShutdown, nil
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	tracer = provider.Tracer(instrumentationName)

	return func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return provider.Shutdown(shutdownCtx)
	}, nil
}

// Tracer returns the configured tracer or a noop one.
func Tracer() trace.Tracer {
	if tracer == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName)
	}
	return tracer
}

// Start opens a span named name under ctx.
func Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}
